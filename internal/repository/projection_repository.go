package repository

import (
	"github.com/rentloop/rentloop-backend/internal/models"
	"gorm.io/gorm"
)

// ProjectionRepository is the read side of the public projections. Writes
// happen exclusively inside the propagation engine's transaction.
type ProjectionRepository struct {
	db *gorm.DB
}

func NewProjectionRepository(db *gorm.DB) *ProjectionRepository {
	return &ProjectionRepository{db: db}
}

func (r *ProjectionRepository) GetCover(listingID uint) (*models.ListingCoverProjection, error) {
	var cover models.ListingCoverProjection
	err := r.db.Where("listing_id = ?", listingID).First(&cover).Error
	if err != nil {
		return nil, err
	}
	return &cover, nil
}

func (r *ProjectionRepository) GetCovers(listingIDs []uint) (map[uint]models.ListingCoverProjection, error) {
	var covers []models.ListingCoverProjection
	err := r.db.Where("listing_id IN ?", listingIDs).Find(&covers).Error
	if err != nil {
		return nil, err
	}

	byListing := make(map[uint]models.ListingCoverProjection, len(covers))
	for _, cover := range covers {
		byListing[cover.ListingID] = cover
	}
	return byListing, nil
}

func (r *ProjectionRepository) GetMedia(listingID uint) ([]models.ListingMediaProjection, error) {
	var entries []models.ListingMediaProjection
	err := r.db.Where("listing_id = ?", listingID).
		Order("image_index ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ProjectionRepository) CountMedia(listingID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ListingMediaProjection{}).
		Where("listing_id = ?", listingID).
		Count(&count).Error
	return count, err
}
