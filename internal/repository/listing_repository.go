package repository

import (
	"github.com/rentloop/rentloop-backend/internal/models"
	"gorm.io/gorm"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) Create(listing *models.Listing) (*models.Listing, error) {
	result := r.db.Create(listing)
	if result.Error != nil {
		return nil, result.Error
	}
	return listing, nil
}

func (r *ListingRepository) GetByID(id uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.First(&listing, id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *ListingRepository) GetByURL(url string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.Where("url = ?", url).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *ListingRepository) GetByHostID(hostID uint) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Where("host_id = ?", hostID).Find(&listings).Error
	return listings, err
}

func (r *ListingRepository) GetPublished(limit, offset int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Where("published = ?", true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&listings).Error
	return listings, err
}

func (r *ListingRepository) CountByHostID(hostID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).Where("host_id = ?", hostID).Count(&count).Error
	return count, err
}

func (r *ListingRepository) Update(listing *models.Listing) error {
	return r.db.Save(listing).Error
}

func (r *ListingRepository) Delete(id uint) error {
	return r.db.Delete(&models.Listing{}, id).Error
}

// IsPubliclyVisible reports whether the listing's images are mirrored into
// the public projections.
func (r *ListingRepository) IsPubliclyVisible(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).
		Where("id = ? AND published = ?", id, true).
		Count(&count).Error
	return count > 0, err
}
