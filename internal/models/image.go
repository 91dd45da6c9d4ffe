package models

import (
	"time"
)

type ImageReadiness string

const (
	ImagePendingUpload ImageReadiness = "PENDING_UPLOAD"
	ImagePendingScan   ImageReadiness = "PENDING_SCAN"
	ImageReady         ImageReadiness = "READY"
	ImageQuarantined   ImageReadiness = "QUARANTINED"
)

// ListingImage is the authoritative record for one image of a listing.
// Soft deletion keeps the row for auditing; the binary object behind
// ObjectKey is removed separately after the owning change request commits.
type ListingImage struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	ListingID       uint           `json:"listing_id" gorm:"not null;index"`
	DisplayOrder    int            `json:"display_order" gorm:"not null;default:0"`
	IsPrimary       bool           `json:"is_primary" gorm:"default:false"`
	Readiness       ImageReadiness `json:"readiness" gorm:"not null;default:'PENDING_UPLOAD'"`
	PendingApproval bool           `json:"pending_approval" gorm:"default:true"`
	SoftDeleted     bool           `json:"soft_deleted" gorm:"default:false"`
	SoftDeletedAt   *time.Time     `json:"soft_deleted_at,omitempty"`
	ObjectKey       string         `json:"object_key" gorm:"not null"`
	ThumbKey        string         `json:"thumb_key"`
	Caption         string         `json:"caption"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// IsActive reports whether the image is part of the listing's visible set:
// scanned and ready, approved, and not soft-deleted. Among active images of
// a listing exactly one has IsPrimary set, unless the set is empty.
func (i ListingImage) IsActive() bool {
	return i.Readiness == ImageReady && !i.PendingApproval && !i.SoftDeleted
}

type ListingImageResponse struct {
	ID           uint      `json:"id"`
	ListingID    uint      `json:"listing_id"`
	DisplayOrder int       `json:"display_order"`
	IsPrimary    bool      `json:"is_primary"`
	Readiness    string    `json:"readiness"`
	PendingApproval bool   `json:"pending_approval"`
	Caption      string    `json:"caption"`
	PublicURL    string    `json:"public_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
}
