package service

import (
	"fmt"
	"sort"

	"github.com/rentloop/rentloop-backend/internal/models"
)

// ImageWriteKind identifies one mutation of an authoritative image record.
type ImageWriteKind int

const (
	WriteClearPrimary ImageWriteKind = iota
	WriteSetPrimary
	WriteSoftDelete
	WriteClearPendingApproval
)

func (k ImageWriteKind) String() string {
	switch k {
	case WriteClearPrimary:
		return "clear_primary"
	case WriteSetPrimary:
		return "set_primary"
	case WriteSoftDelete:
		return "soft_delete"
	case WriteClearPendingApproval:
		return "clear_pending_approval"
	default:
		return "unknown"
	}
}

type ImageWrite struct {
	Kind    ImageWriteKind
	ImageID uint
}

// ReconcileResult is the full outcome of applying a change request to a
// listing's current image records, computed without touching storage.
type ReconcileResult struct {
	// TargetActive holds the post-mutation active image set: primary first,
	// remainder by display order ascending, ties broken by id.
	TargetActive []models.ListingImage
	// Writes are the record mutations needed to reach TargetActive.
	Writes []ImageWrite
	// Removed is the pre-mutation snapshot of the images being soft-deleted,
	// kept for the deferred binary cleanup.
	Removed []models.ListingImage
}

// Reconcile computes the target image set and the writes needed to reach it.
// Pure function: validation failures return before any write is planned.
func Reconcile(current []models.ListingImage, addIDs, deleteIDs []uint, newPrimaryID *uint) (*ReconcileResult, error) {
	byID := make(map[uint]*models.ListingImage, len(current))
	for i := range current {
		byID[current[i].ID] = &current[i]
	}

	addIDs = dedupe(addIDs)
	deleteIDs = dedupe(deleteIDs)

	deleteSet := make(map[uint]bool, len(deleteIDs))
	for _, id := range deleteIDs {
		img, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: image %d does not belong to the listing", ErrUnknownImageReference, id)
		}
		if img.SoftDeleted {
			return nil, fmt.Errorf("%w: image %d is already deleted", ErrUnknownImageReference, id)
		}
		deleteSet[id] = true
	}

	var primaryAdd *models.ListingImage
	for _, id := range addIDs {
		img, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: image %d does not belong to the listing", ErrUnknownImageReference, id)
		}
		if img.Readiness != models.ImageReady || img.SoftDeleted {
			return nil, fmt.Errorf("%w: image %d is not ready", ErrUnknownImageReference, id)
		}
		if img.IsPrimary {
			if primaryAdd != nil {
				return nil, fmt.Errorf("%w: images %d and %d", ErrAmbiguousPrimary, primaryAdd.ID, img.ID)
			}
			primaryAdd = img
		}
	}
	addSet := make(map[uint]bool, len(addIDs))
	for _, id := range addIDs {
		addSet[id] = true
	}

	if newPrimaryID != nil {
		id := *newPrimaryID
		if deleteSet[id] {
			return nil, fmt.Errorf("%w: image %d is being deleted in the same request", ErrInvalidPrimaryTarget, id)
		}
		img, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: image %d does not belong to the listing", ErrInvalidPrimaryTarget, id)
		}
		if img.Readiness != models.ImageReady || img.SoftDeleted {
			return nil, fmt.Errorf("%w: image %d is not ready", ErrInvalidPrimaryTarget, id)
		}
		if img.PendingApproval && !addSet[id] {
			return nil, fmt.Errorf("%w: image %d is still pending approval", ErrInvalidPrimaryTarget, id)
		}
	}

	// Build the post-mutation active set before flags are finalized:
	// current actives minus deletions, plus the approved additions.
	var target []models.ListingImage
	for i := range current {
		img := current[i]
		if deleteSet[img.ID] {
			continue
		}
		if addSet[img.ID] {
			img.PendingApproval = false
		}
		if img.IsActive() {
			target = append(target, img)
		}
	}

	finalPrimaryID := resolvePrimary(target, primaryAdd, newPrimaryID)

	var writes []ImageWrite

	// Demote every record whose primary flag survives into the target set
	// but is no longer the primary. Records in deleteIDs are excluded: the
	// soft delete already takes them out of the active set.
	for i := range current {
		img := &current[i]
		if img.IsPrimary && !deleteSet[img.ID] && img.ID != finalPrimaryID {
			writes = append(writes, ImageWrite{Kind: WriteClearPrimary, ImageID: img.ID})
		}
	}

	var removed []models.ListingImage
	for _, id := range deleteIDs {
		writes = append(writes, ImageWrite{Kind: WriteSoftDelete, ImageID: id})
		removed = append(removed, *byID[id])
	}

	for _, id := range addIDs {
		writes = append(writes, ImageWrite{Kind: WriteClearPendingApproval, ImageID: id})
	}

	if finalPrimaryID != 0 && !byID[finalPrimaryID].IsPrimary {
		writes = append(writes, ImageWrite{Kind: WriteSetPrimary, ImageID: finalPrimaryID})
	}

	// Apply the final flags to the target copies and order the set:
	// primary first, remainder by display order, id as tiebreaker.
	for i := range target {
		target[i].IsPrimary = target[i].ID == finalPrimaryID
	}
	sort.SliceStable(target, func(i, j int) bool {
		if target[i].IsPrimary != target[j].IsPrimary {
			return target[i].IsPrimary
		}
		if target[i].DisplayOrder != target[j].DisplayOrder {
			return target[i].DisplayOrder < target[j].DisplayOrder
		}
		return target[i].ID < target[j].ID
	})

	return &ReconcileResult{
		TargetActive: target,
		Writes:       writes,
		Removed:      removed,
	}, nil
}

// resolvePrimary picks the image that owns the primary flag after the
// request applies. Precedence: an explicit re-primary, then an added image
// carrying its own flag, then the surviving current primary. When all of
// those fall away and actives remain, the first by display order is
// promoted so the exactly-one-primary invariant holds. Returns 0 when the
// target set is empty.
func resolvePrimary(target []models.ListingImage, primaryAdd *models.ListingImage, newPrimaryID *uint) uint {
	if newPrimaryID != nil {
		return *newPrimaryID
	}
	if primaryAdd != nil {
		return primaryAdd.ID
	}
	for _, img := range target {
		if img.IsPrimary {
			return img.ID
		}
	}
	if len(target) == 0 {
		return 0
	}

	best := target[0]
	for _, img := range target[1:] {
		if img.DisplayOrder < best.DisplayOrder ||
			(img.DisplayOrder == best.DisplayOrder && img.ID < best.ID) {
			best = img
		}
	}
	return best.ID
}

func dedupe(ids []uint) []uint {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
