package repository

import (
	"github.com/rentloop/rentloop-backend/internal/models"
	"gorm.io/gorm"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(image *models.ListingImage) error {
	return r.db.Create(image).Error
}

func (r *ImageRepository) GetByID(id uint) (*models.ListingImage, error) {
	var image models.ListingImage
	err := r.db.First(&image, id).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetByListingID returns every non-soft-deleted image record of the listing,
// including records still pending approval. Soft-deleted rows stay in the
// table for auditing but are never part of a reconciliation's input.
func (r *ImageRepository) GetByListingID(listingID uint) ([]models.ListingImage, error) {
	var images []models.ListingImage
	err := r.db.Where("listing_id = ? AND soft_deleted = ?", listingID, false).
		Order("display_order ASC, id ASC").
		Find(&images).Error
	return images, err
}

func (r *ImageRepository) CountByListingID(listingID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ListingImage{}).
		Where("listing_id = ? AND soft_deleted = ?", listingID, false).
		Count(&count).Error
	return count, err
}
