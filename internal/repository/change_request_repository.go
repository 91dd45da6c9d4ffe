package repository

import (
	"time"

	"github.com/rentloop/rentloop-backend/internal/models"
	"gorm.io/gorm"
)

type ChangeRequestRepository struct {
	db *gorm.DB
}

func NewChangeRequestRepository(db *gorm.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

func (r *ChangeRequestRepository) Create(req *models.ImageChangeRequest) error {
	return r.db.Create(req).Error
}

func (r *ChangeRequestRepository) GetByID(id uint) (*models.ImageChangeRequest, error) {
	var req models.ImageChangeRequest
	err := r.db.First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *ChangeRequestRepository) GetByHostID(hostID uint, limit, offset int) ([]models.ImageChangeRequest, error) {
	var reqs []models.ImageChangeRequest
	err := r.db.Where("host_id = ?", hostID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&reqs).Error
	return reqs, err
}

func (r *ChangeRequestRepository) GetByStatus(status models.ChangeRequestStatus, limit, offset int) ([]models.ImageChangeRequest, error) {
	var reqs []models.ImageChangeRequest
	err := r.db.Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&reqs).Error
	return reqs, err
}

// GetReviewable returns requests an admin can still act on, oldest first.
func (r *ChangeRequestRepository) GetReviewable(limit, offset int) ([]models.ImageChangeRequest, error) {
	var reqs []models.ImageChangeRequest
	err := r.db.Where("status IN ?", []models.ChangeRequestStatus{
		models.ChangeRequestReceived,
		models.ChangeRequestPendingReview,
	}).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&reqs).Error
	return reqs, err
}

// Transition moves the request from one of the expected statuses to the
// target status in a single conditional update. It reports false when the
// row was not in an expected status anymore, which is how a second approval
// of the same request loses cleanly.
func (r *ChangeRequestRepository) Transition(id uint, from []models.ChangeRequestStatus, to models.ChangeRequestStatus, reviewerID uint) (bool, error) {
	now := time.Now()
	result := r.db.Model(&models.ImageChangeRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":      to,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
