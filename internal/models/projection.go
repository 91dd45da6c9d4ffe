package models

import (
	"time"
)

// ListingCoverProjection is the denormalized thumbnail shown in search
// results. Derived from ListingImage; never a source of truth. Only
// maintained while the listing is published, stale otherwise.
type ListingCoverProjection struct {
	ListingID    uint      `json:"listing_id" gorm:"primaryKey;autoIncrement:false"`
	ImageID      uint      `json:"image_id" gorm:"not null"`
	ThumbnailURL string    `json:"thumbnail_url" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListingMediaProjection is one entry of the ordered media list shown on a
// public listing page. Entry 0 is always the active primary image and
// carries IsCoverImage; indices are contiguous and duplicate-free.
type ListingMediaProjection struct {
	ListingID    uint      `json:"listing_id" gorm:"primaryKey;autoIncrement:false"`
	ImageIndex   int       `json:"image_index" gorm:"primaryKey;autoIncrement:false"`
	ImageID      uint      `json:"image_id" gorm:"not null"`
	FullURL      string    `json:"full_url" gorm:"not null"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Caption      string    `json:"caption"`
	IsCoverImage bool      `json:"is_cover_image" gorm:"default:false"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PublicListingResponse struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	Location     string  `json:"location"`
	URL          string  `json:"url"`
	NightlyPrice float64 `json:"nightly_price"`
	MaxGuests    int     `json:"max_guests"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
}
