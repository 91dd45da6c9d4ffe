package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rentloop/rentloop-backend/internal/models"
)

func NewDatabase(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.ListingImage{},
		&models.ImageChangeRequest{},
		&models.ListingCoverProjection{},
		&models.ListingMediaProjection{},
		&models.Plan{},
		&models.PlanPurchase{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return seedPlans(db)
}

func seedPlans(db *gorm.DB) error {
	plans := []models.Plan{
		{
			Name:         "Starter",
			Description:  "1 listing, 20 photos",
			ListingLimit: 1,
			PhotoLimit:   20,
			Price:        0,
			IsActive:     true,
		},
		{
			Name:         "Host",
			Description:  "5 listings, 150 photos",
			ListingLimit: 5,
			PhotoLimit:   150,
			Price:        14.99,
			IsActive:     true,
		},
		{
			Name:         "Agency",
			Description:  "50 listings, 2000 photos, priority support",
			ListingLimit: 50,
			PhotoLimit:   2000,
			Price:        79.99,
			IsActive:     true,
		},
	}

	for _, plan := range plans {
		var count int64
		db.Model(&models.Plan{}).Where("name = ?", plan.Name).Count(&count)
		if count == 0 {
			if err := db.Create(&plan).Error; err != nil {
				return fmt.Errorf("failed to seed plan %q: %w", plan.Name, err)
			}
		}
	}

	return nil
}
