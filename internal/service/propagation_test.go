package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rentloop/rentloop-backend/internal/models"
)

type fakeStorage struct {
	mu       sync.Mutex
	deleted  []string
	failKeys map[string]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{failKeys: make(map[string]bool)}
}

func (f *fakeStorage) Upload(ctx context.Context, key string, src io.Reader, size int64) error {
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[key] {
		return errors.New("storage unavailable")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeStorage) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.ListingImage{},
		&models.ImageChangeRequest{},
		&models.ListingCoverProjection{},
		&models.ListingMediaProjection{},
	))

	return db
}

func seedListing(t *testing.T, db *gorm.DB, published bool) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		HostID:       1,
		Title:        "Canal View Loft",
		Location:     "Amsterdam",
		URL:          fmt.Sprintf("listing-%t", published),
		NightlyPrice: 120,
		MaxGuests:    2,
		Published:    published,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func seedImage(t *testing.T, db *gorm.DB, img models.ListingImage) models.ListingImage {
	t.Helper()
	require.NoError(t, db.Create(&img).Error)
	return img
}

func loadImage(t *testing.T, db *gorm.DB, id uint) models.ListingImage {
	t.Helper()
	var img models.ListingImage
	require.NoError(t, db.First(&img, id).Error)
	return img
}

func loadMediaRows(t *testing.T, db *gorm.DB, listingID uint) []models.ListingMediaProjection {
	t.Helper()
	var rows []models.ListingMediaProjection
	require.NoError(t, db.Where("listing_id = ?", listingID).Order("image_index").Find(&rows).Error)
	return rows
}

func TestPropagatePlanPicksPathByVisibility(t *testing.T) {
	p := NewPropagator(newTestDB(t), newFakeStorage(), zap.NewNop())

	res := &ReconcileResult{}
	assert.Equal(t, PathSequential, p.Plan(&models.Listing{Published: false}, res).Path)
	assert.Equal(t, PathAtomic, p.Plan(&models.Listing{Published: true}, res).Path)
}

func TestPropagateSequentialAppliesWrites(t *testing.T) {
	db := newTestDB(t)
	p := NewPropagator(db, newFakeStorage(), zap.NewNop())

	listing := seedListing(t, db, false)
	a := seedImage(t, db, models.ListingImage{ListingID: listing.ID, DisplayOrder: 0, IsPrimary: true, Readiness: models.ImageReady, ObjectKey: "a.jpg"})
	b := seedImage(t, db, models.ListingImage{ListingID: listing.ID, DisplayOrder: 1, Readiness: models.ImageReady, PendingApproval: true, ObjectKey: "b.jpg"})

	plan := PropagationPlan{
		Path:    PathSequential,
		Listing: listing,
		Writes: []ImageWrite{
			{Kind: WriteSoftDelete, ImageID: a.ID},
			{Kind: WriteClearPendingApproval, ImageID: b.ID},
			{Kind: WriteSetPrimary, ImageID: b.ID},
		},
	}
	require.NoError(t, p.Execute(context.Background(), plan))

	gotA := loadImage(t, db, a.ID)
	assert.True(t, gotA.SoftDeleted)
	require.NotNil(t, gotA.SoftDeletedAt)

	gotB := loadImage(t, db, b.ID)
	assert.False(t, gotB.PendingApproval)
	assert.True(t, gotB.IsPrimary)

	var got models.Listing
	require.NoError(t, db.First(&got, listing.ID).Error)
	assert.Equal(t, listing.Version+1, got.Version)

	// Sequential path never touches the projections.
	assert.Empty(t, loadMediaRows(t, db, listing.ID))
}

func TestPropagateSequentialSoftDeleteIdempotent(t *testing.T) {
	db := newTestDB(t)
	p := NewPropagator(db, newFakeStorage(), zap.NewNop())

	listing := seedListing(t, db, false)
	a := seedImage(t, db, models.ListingImage{ListingID: listing.ID, Readiness: models.ImageReady, ObjectKey: "a.jpg"})

	plan := PropagationPlan{
		Path:    PathSequential,
		Listing: listing,
		Writes:  []ImageWrite{{Kind: WriteSoftDelete, ImageID: a.ID}},
	}
	require.NoError(t, p.Execute(context.Background(), plan))
	first := loadImage(t, db, a.ID)
	require.NotNil(t, first.SoftDeletedAt)

	// A retried approval re-applies the same writes against the new
	// version; the deletion timestamp must not move.
	var reloaded models.Listing
	require.NoError(t, db.First(&reloaded, listing.ID).Error)
	plan.Listing = &reloaded
	require.NoError(t, p.Execute(context.Background(), plan))

	second := loadImage(t, db, a.ID)
	require.NotNil(t, second.SoftDeletedAt)
	assert.Equal(t, first.SoftDeletedAt.UnixNano(), second.SoftDeletedAt.UnixNano())
}

func TestPropagateVersionConflict(t *testing.T) {
	db := newTestDB(t)
	p := NewPropagator(db, newFakeStorage(), zap.NewNop())

	listing := seedListing(t, db, true)
	a := seedImage(t, db, models.ListingImage{ListingID: listing.ID, IsPrimary: true, Readiness: models.ImageReady, ObjectKey: "a.jpg"})

	// Another approval already bumped the version.
	require.NoError(t, db.Model(&models.Listing{}).
		Where("id = ?", listing.ID).
		UpdateColumn("version", gorm.Expr("version + 1")).Error)

	plan := PropagationPlan{
		Path:    PathAtomic,
		Listing: listing,
		Writes:  []ImageWrite{{Kind: WriteSoftDelete, ImageID: a.ID}},
		Target:  nil,
	}
	err := p.Execute(context.Background(), plan)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)

	// The loser's transaction rolled back completely.
	got := loadImage(t, db, a.ID)
	assert.False(t, got.SoftDeleted)
	assert.Empty(t, loadMediaRows(t, db, listing.ID))
}

func TestPropagateAtomicBuildsProjections(t *testing.T) {
	db := newTestDB(t)
	storage := newFakeStorage()
	p := NewPropagator(db, storage, zap.NewNop())

	listing := seedListing(t, db, true)
	a := seedImage(t, db, models.ListingImage{ListingID: listing.ID, DisplayOrder: 0, IsPrimary: true, Readiness: models.ImageReady, ObjectKey: "a.jpg", ThumbKey: "a-thumb.jpg"})
	b := seedImage(t, db, models.ListingImage{ListingID: listing.ID, DisplayOrder: 1, Readiness: models.ImageReady, PendingApproval: true, ObjectKey: "b.jpg", ThumbKey: "b-thumb.jpg", Caption: "garden"})

	images := []models.ListingImage{a, b}
	res, err := Reconcile(images, []uint{b.ID}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, p.Execute(context.Background(), p.Plan(listing, res)))

	var cover models.ListingCoverProjection
	require.NoError(t, db.First(&cover, "listing_id = ?", listing.ID).Error)
	assert.Equal(t, a.ID, cover.ImageID)
	assert.Equal(t, "https://cdn.test/a-thumb.jpg", cover.ThumbnailURL)

	rows := loadMediaRows(t, db, listing.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].ImageIndex)
	assert.Equal(t, a.ID, rows[0].ImageID)
	assert.True(t, rows[0].IsCoverImage)
	assert.Equal(t, "https://cdn.test/a.jpg", rows[0].FullURL)
	assert.Equal(t, 1, rows[1].ImageIndex)
	assert.Equal(t, b.ID, rows[1].ImageID)
	assert.False(t, rows[1].IsCoverImage)
	assert.Equal(t, "garden", rows[1].Caption)

	gotB := loadImage(t, db, b.ID)
	assert.False(t, gotB.PendingApproval)
}

func TestPropagateAtomicTrimsStaleEntries(t *testing.T) {
	db := newTestDB(t)
	p := NewPropagator(db, newFakeStorage(), zap.NewNop())

	listing := seedListing(t, db, true)
	a := seedImage(t, db, models.ListingImage{ListingID: listing.ID, DisplayOrder: 0, IsPrimary: true, Readiness: models.ImageReady, ObjectKey: "a.jpg"})
	b := seedImage(t, db, models.ListingImage{ListingID: listing.ID, DisplayOrder: 1, Readiness: models.ImageReady, ObjectKey: "b.jpg"})
	c := seedImage(t, db, models.ListingImage{ListingID: listing.ID, DisplayOrder: 2, Readiness: models.ImageReady, ObjectKey: "c.jpg"})

	for i, img := range []models.ListingImage{a, b, c} {
		require.NoError(t, db.Create(&models.ListingMediaProjection{
			ListingID:    listing.ID,
			ImageIndex:   i,
			ImageID:      img.ID,
			FullURL:      "https://cdn.test/" + img.ObjectKey,
			IsCoverImage: i == 0,
		}).Error)
	}

	images := []models.ListingImage{a, b, c}
	res, err := Reconcile(images, nil, []uint{c.ID}, nil)
	require.NoError(t, err)

	require.NoError(t, p.Execute(context.Background(), p.Plan(listing, res)))

	rows := loadMediaRows(t, db, listing.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, a.ID, rows[0].ImageID)
	assert.Equal(t, b.ID, rows[1].ImageID)
}

func TestPropagateAtomicRemovesCoverWhenSetEmpties(t *testing.T) {
	db := newTestDB(t)
	p := NewPropagator(db, newFakeStorage(), zap.NewNop())

	listing := seedListing(t, db, true)
	a := seedImage(t, db, models.ListingImage{ListingID: listing.ID, IsPrimary: true, Readiness: models.ImageReady, ObjectKey: "a.jpg"})

	require.NoError(t, db.Create(&models.ListingCoverProjection{
		ListingID:    listing.ID,
		ImageID:      a.ID,
		ThumbnailURL: "https://cdn.test/a.jpg",
	}).Error)
	require.NoError(t, db.Create(&models.ListingMediaProjection{
		ListingID:    listing.ID,
		ImageIndex:   0,
		ImageID:      a.ID,
		FullURL:      "https://cdn.test/a.jpg",
		IsCoverImage: true,
	}).Error)

	res, err := Reconcile([]models.ListingImage{a}, nil, []uint{a.ID}, nil)
	require.NoError(t, err)

	require.NoError(t, p.Execute(context.Background(), p.Plan(listing, res)))

	var coverCount int64
	require.NoError(t, db.Model(&models.ListingCoverProjection{}).
		Where("listing_id = ?", listing.ID).Count(&coverCount).Error)
	assert.Zero(t, coverCount)
	assert.Empty(t, loadMediaRows(t, db, listing.ID))
}

func TestPropagateAtomicSkipsUnchangedCover(t *testing.T) {
	db := newTestDB(t)
	p := NewPropagator(db, newFakeStorage(), zap.NewNop())

	listing := seedListing(t, db, true)
	a := seedImage(t, db, models.ListingImage{ListingID: listing.ID, DisplayOrder: 0, IsPrimary: true, Readiness: models.ImageReady, ObjectKey: "a.jpg", ThumbKey: "a-thumb.jpg"})
	b := seedImage(t, db, models.ListingImage{ListingID: listing.ID, DisplayOrder: 1, Readiness: models.ImageReady, ObjectKey: "b.jpg"})

	require.NoError(t, db.Create(&models.ListingCoverProjection{
		ListingID:    listing.ID,
		ImageID:      a.ID,
		ThumbnailURL: "https://cdn.test/a-thumb.jpg",
	}).Error)
	var before models.ListingCoverProjection
	require.NoError(t, db.First(&before, "listing_id = ?", listing.ID).Error)

	res, err := Reconcile([]models.ListingImage{a, b}, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, p.Execute(context.Background(), p.Plan(listing, res)))

	var after models.ListingCoverProjection
	require.NoError(t, db.First(&after, "listing_id = ?", listing.ID).Error)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestPropagateTooLargeFailsClosed(t *testing.T) {
	db := newTestDB(t)
	p := NewPropagator(db, newFakeStorage(), zap.NewNop())

	listing := seedListing(t, db, true)

	target := make([]models.ListingImage, 0, TransactionItemLimit+1)
	for i := 0; i < TransactionItemLimit+1; i++ {
		target = append(target, models.ListingImage{
			ID:        uint(i + 1),
			ListingID: listing.ID,
			Readiness: models.ImageReady,
			ObjectKey: fmt.Sprintf("img-%d.jpg", i),
		})
	}

	plan := PropagationPlan{
		Path:    PathAtomic,
		Listing: listing,
		Target:  target,
	}
	err := p.Execute(context.Background(), plan)
	assert.ErrorIs(t, err, ErrTransactionTooLarge)

	// Fail closed: nothing was written, not even the version bump.
	var got models.Listing
	require.NoError(t, db.First(&got, listing.ID).Error)
	assert.Equal(t, listing.Version, got.Version)
	assert.Empty(t, loadMediaRows(t, db, listing.ID))
}
