package models

import (
	"time"

	"gorm.io/gorm"
)

type Listing struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	HostID       uint           `json:"host_id" gorm:"not null;index"`
	Title        string         `json:"title" gorm:"not null"`
	Description  string         `json:"description"`
	Location     string         `json:"location"`
	URL          string         `json:"url" gorm:"unique;not null"`
	NightlyPrice float64        `json:"nightly_price" gorm:"not null;default:0"`
	MaxGuests    int            `json:"max_guests" gorm:"not null;default:2"`
	Published    bool           `json:"published" gorm:"default:false"`
	Version      uint           `json:"-" gorm:"not null;default:0"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

type ListingRequest struct {
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description"`
	Location     string  `json:"location" validate:"required"`
	NightlyPrice float64 `json:"nightly_price" validate:"required,gt=0"`
	MaxGuests    int     `json:"max_guests" validate:"required,gt=0"`
}

type UpdateListingRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Location     *string  `json:"location"`
	NightlyPrice *float64 `json:"nightly_price"`
	MaxGuests    *int     `json:"max_guests"`
}

type ListingResponse struct {
	ID           uint      `json:"id"`
	HostID       uint      `json:"host_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	URL          string    `json:"url"`
	NightlyPrice float64   `json:"nightly_price"`
	MaxGuests    int       `json:"max_guests"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (l *Listing) ToResponse() ListingResponse {
	return ListingResponse{
		ID:           l.ID,
		HostID:       l.HostID,
		Title:        l.Title,
		Description:  l.Description,
		Location:     l.Location,
		URL:          l.URL,
		NightlyPrice: l.NightlyPrice,
		MaxGuests:    l.MaxGuests,
		Published:    l.Published,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}
