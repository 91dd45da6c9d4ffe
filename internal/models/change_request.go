package models

import (
	"time"
)

type ChangeRequestStatus string

const (
	ChangeRequestRequested     ChangeRequestStatus = "REQUESTED"
	ChangeRequestReceived      ChangeRequestStatus = "RECEIVED"
	ChangeRequestPendingReview ChangeRequestStatus = "PENDING_REVIEW"
	ChangeRequestVerified      ChangeRequestStatus = "VERIFIED"
	ChangeRequestRejected      ChangeRequestStatus = "REJECTED"
)

// Reviewable reports whether an admin may still approve or reject the
// request. VERIFIED and REJECTED are terminal.
func (s ChangeRequestStatus) Reviewable() bool {
	return s == ChangeRequestReceived || s == ChangeRequestPendingReview
}

func (s ChangeRequestStatus) Terminal() bool {
	return s == ChangeRequestVerified || s == ChangeRequestRejected
}

// ImageChangeRequest is a host's durable intent to mutate a listing's image
// set. Rows are never deleted; the review trail stays queryable.
type ImageChangeRequest struct {
	ID                uint                `json:"id" gorm:"primaryKey"`
	ListingID         uint                `json:"listing_id" gorm:"not null;index"`
	HostID            uint                `json:"host_id" gorm:"not null;index"`
	ImagesToAdd       []uint              `json:"images_to_add" gorm:"type:json;serializer:json"`
	ImagesToDelete    []uint              `json:"images_to_delete" gorm:"type:json;serializer:json"`
	NewPrimaryImageID *uint               `json:"new_primary_image_id,omitempty"`
	Status            ChangeRequestStatus `json:"status" gorm:"not null;default:'REQUESTED'"`
	ReviewedBy        uint                `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time          `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

type SubmitImageChangeRequest struct {
	ImagesToAdd       []uint `json:"images_to_add"`
	ImagesToDelete    []uint `json:"images_to_delete"`
	NewPrimaryImageID *uint  `json:"new_primary_image_id"`
}

type ApprovalResponse struct {
	RequestID     uint   `json:"request_id"`
	ListingID     uint   `json:"listing_id"`
	Status        string `json:"status"`
	WritesApplied int    `json:"writes_applied"`
	ImagesRemoved int    `json:"images_removed"`
}
