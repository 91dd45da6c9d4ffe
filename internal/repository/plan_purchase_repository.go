package repository

import (
	"github.com/rentloop/rentloop-backend/internal/models"
	"gorm.io/gorm"
)

type PlanPurchaseRepository struct {
	db *gorm.DB
}

func NewPlanPurchaseRepository(db *gorm.DB) *PlanPurchaseRepository {
	return &PlanPurchaseRepository{db: db}
}

func (r *PlanPurchaseRepository) Create(purchase *models.PlanPurchase) error {
	return r.db.Create(purchase).Error
}

func (r *PlanPurchaseRepository) GetBySessionID(sessionID string) (*models.PlanPurchase, error) {
	var purchase models.PlanPurchase
	err := r.db.Where("stripe_session_id = ?", sessionID).First(&purchase).Error
	return &purchase, err
}

func (r *PlanPurchaseRepository) Update(purchase *models.PlanPurchase) error {
	return r.db.Save(purchase).Error
}

func (r *PlanPurchaseRepository) GetUserPurchaseHistory(userID uint) ([]models.PlanPurchase, error) {
	var purchases []models.PlanPurchase
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}
