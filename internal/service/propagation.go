package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentloop/rentloop-backend/internal/models"
	"github.com/rentloop/rentloop-backend/pkg/storage"
)

// TransactionItemLimit is the store's per-transaction write cap. A plan
// that would exceed it fails closed before any write; the operator splits
// the request instead of the engine truncating it.
const TransactionItemLimit = 100

type PropagationPath int

const (
	// PathSequential applies image writes one by one. Taken for unpublished
	// listings: no external reader depends on intermediate state, and each
	// write converges on retry.
	PathSequential PropagationPath = iota
	// PathAtomic commits image writes and both public projections in one
	// transaction so public readers never observe a partial update.
	PathAtomic
)

// PropagationPlan is the strategy resolved once per approval, so both paths
// execute the same reconciler output.
type PropagationPlan struct {
	Path    PropagationPath
	Listing *models.Listing
	Writes  []ImageWrite
	Target  []models.ListingImage
}

// Propagator writes a reconciliation result into the authoritative image
// records and, for published listings, the public projections.
type Propagator struct {
	db      *gorm.DB
	storage storage.ObjectStorage
	logger  *zap.Logger
}

func NewPropagator(db *gorm.DB, objectStorage storage.ObjectStorage, logger *zap.Logger) *Propagator {
	return &Propagator{
		db:      db,
		storage: objectStorage,
		logger:  logger,
	}
}

func (p *Propagator) Plan(listing *models.Listing, res *ReconcileResult) PropagationPlan {
	path := PathSequential
	if listing.Published {
		path = PathAtomic
	}
	return PropagationPlan{
		Path:    path,
		Listing: listing,
		Writes:  res.Writes,
		Target:  res.TargetActive,
	}
}

func (p *Propagator) Execute(ctx context.Context, plan PropagationPlan) error {
	if plan.Path == PathAtomic {
		return p.executeAtomic(ctx, plan)
	}
	return p.executeSequential(ctx, plan)
}

// executeSequential guards the listing version first, then applies each
// write individually. Every write is idempotent, so a retried approval
// converges on the same end state after a mid-sequence failure.
func (p *Propagator) executeSequential(ctx context.Context, plan PropagationPlan) error {
	db := p.db.WithContext(ctx)

	if err := bumpListingVersion(db, plan.Listing); err != nil {
		return err
	}
	for _, w := range plan.Writes {
		if err := applyImageWrite(db, plan.Listing.ID, w); err != nil {
			return err
		}
	}

	p.logger.Info("applied image writes sequentially",
		zap.Uint("listing_id", plan.Listing.ID),
		zap.Int("writes", len(plan.Writes)))
	return nil
}

func (p *Propagator) executeAtomic(ctx context.Context, plan PropagationPlan) error {
	db := p.db.WithContext(ctx)
	listingID := plan.Listing.ID

	// Size the transaction and diff the cover against the current
	// projections before opening it.
	existingCover, err := p.readCover(db, listingID)
	if err != nil {
		return err
	}
	var existingMedia int64
	if err := db.Model(&models.ListingMediaProjection{}).
		Where("listing_id = ?", listingID).
		Count(&existingMedia).Error; err != nil {
		return fmt.Errorf("%w: count media projection: %v", ErrStoreUnavailable, err)
	}

	mediaRows := p.buildMediaRows(listingID, plan.Target)
	coverRow, coverChanged := p.buildCover(listingID, existingCover, plan.Target)
	coverDelete := len(plan.Target) == 0 && existingCover != nil

	stale := int(existingMedia) - len(mediaRows)
	if stale < 0 {
		stale = 0
	}

	items := 1 + len(plan.Writes) + len(mediaRows) + stale
	if coverChanged || coverDelete {
		items++
	}
	if items > TransactionItemLimit {
		return fmt.Errorf("%w: %d write items, limit is %d", ErrTransactionTooLarge, items, TransactionItemLimit)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := bumpListingVersion(tx, plan.Listing); err != nil {
			return err
		}

		for _, w := range plan.Writes {
			if err := applyImageWrite(tx, listingID, w); err != nil {
				return err
			}
		}

		switch {
		case coverDelete:
			if err := tx.Where("listing_id = ?", listingID).
				Delete(&models.ListingCoverProjection{}).Error; err != nil {
				return fmt.Errorf("%w: delete cover projection: %v", ErrStoreUnavailable, err)
			}
		case coverChanged:
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "listing_id"}},
				UpdateAll: true,
			}).Create(coverRow).Error; err != nil {
				return fmt.Errorf("%w: upsert cover projection: %v", ErrStoreUnavailable, err)
			}
		}

		for i := range mediaRows {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "listing_id"}, {Name: "image_index"}},
				UpdateAll: true,
			}).Create(&mediaRows[i]).Error; err != nil {
				return fmt.Errorf("%w: upsert media projection index %d: %v", ErrStoreUnavailable, mediaRows[i].ImageIndex, err)
			}
		}

		if err := tx.Where("listing_id = ? AND image_index >= ?", listingID, len(mediaRows)).
			Delete(&models.ListingMediaProjection{}).Error; err != nil {
			return fmt.Errorf("%w: trim media projection: %v", ErrStoreUnavailable, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	p.logger.Info("committed atomic propagation",
		zap.Uint("listing_id", listingID),
		zap.Int("writes", len(plan.Writes)),
		zap.Int("media_entries", len(mediaRows)),
		zap.Bool("cover_updated", coverChanged || coverDelete))
	return nil
}

func (p *Propagator) readCover(db *gorm.DB, listingID uint) (*models.ListingCoverProjection, error) {
	var cover models.ListingCoverProjection
	err := db.Where("listing_id = ?", listingID).First(&cover).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read cover projection: %v", ErrStoreUnavailable, err)
	}
	return &cover, nil
}

// buildMediaRows renders the target active set into projection entries.
// Computed from the post-mutation set, so no entry can point at a
// soft-deleted or still-pending image.
func (p *Propagator) buildMediaRows(listingID uint, target []models.ListingImage) []models.ListingMediaProjection {
	now := time.Now()
	rows := make([]models.ListingMediaProjection, 0, len(target))
	for i, img := range target {
		rows = append(rows, models.ListingMediaProjection{
			ListingID:    listingID,
			ImageIndex:   i,
			ImageID:      img.ID,
			FullURL:      p.storage.PublicURL(img.ObjectKey),
			ThumbnailURL: p.thumbnailURL(img),
			Caption:      img.Caption,
			IsCoverImage: i == 0,
			UpdatedAt:    now,
		})
	}
	return rows
}

func (p *Propagator) buildCover(listingID uint, existing *models.ListingCoverProjection, target []models.ListingImage) (*models.ListingCoverProjection, bool) {
	if len(target) == 0 {
		return nil, false
	}

	primary := target[0]
	thumbURL := p.thumbnailURL(primary)
	if existing != nil && existing.ImageID == primary.ID && existing.ThumbnailURL == thumbURL {
		return nil, false
	}

	return &models.ListingCoverProjection{
		ListingID:    listingID,
		ImageID:      primary.ID,
		ThumbnailURL: thumbURL,
		UpdatedAt:    time.Now(),
	}, true
}

func (p *Propagator) thumbnailURL(img models.ListingImage) string {
	if img.ThumbKey != "" {
		return p.storage.PublicURL(img.ThumbKey)
	}
	return p.storage.PublicURL(img.ObjectKey)
}

// bumpListingVersion is the optimistic guard shared by both paths. Two
// approvals racing on the same listing both read the same version; the
// loser matches zero rows and fails with ErrConcurrentUpdate instead of
// silently overwriting the winner's images.
func bumpListingVersion(tx *gorm.DB, listing *models.Listing) error {
	result := tx.Model(&models.Listing{}).
		Where("id = ? AND version = ?", listing.ID, listing.Version).
		UpdateColumn("version", gorm.Expr("version + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("%w: bump listing version: %v", ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

func applyImageWrite(tx *gorm.DB, listingID uint, w ImageWrite) error {
	now := time.Now()
	query := tx.Model(&models.ListingImage{}).
		Where("id = ? AND listing_id = ?", w.ImageID, listingID)

	var result *gorm.DB
	switch w.Kind {
	case WriteClearPrimary:
		result = query.Updates(map[string]interface{}{"is_primary": false, "updated_at": now})
	case WriteSetPrimary:
		result = query.Updates(map[string]interface{}{"is_primary": true, "updated_at": now})
	case WriteSoftDelete:
		// Already-deleted rows match nothing, which keeps a retried
		// approval from moving the deletion timestamp.
		result = query.Where("soft_deleted = ?", false).
			Updates(map[string]interface{}{"soft_deleted": true, "soft_deleted_at": now, "updated_at": now})
	case WriteClearPendingApproval:
		result = query.Updates(map[string]interface{}{"pending_approval": false, "updated_at": now})
	default:
		return fmt.Errorf("unknown image write kind %d", w.Kind)
	}

	if result.Error != nil {
		return fmt.Errorf("%w: %s image %d: %v", ErrStoreUnavailable, w.Kind, w.ImageID, result.Error)
	}
	return nil
}
