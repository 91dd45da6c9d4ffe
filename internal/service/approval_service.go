package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rentloop/rentloop-backend/internal/models"
	"github.com/rentloop/rentloop-backend/internal/repository"
)

// Notifier delivers review outcomes to hosts. Implementations must be
// fire-and-forget: the approval has already committed when they run.
type Notifier interface {
	NotifyApproved(requestID uint, hostID uint)
	NotifyRejected(requestID uint, hostID uint)
}

// ApprovalService drives an image change request through its terminal
// transition. One approval is one unit of work: reconcile, propagate,
// mark VERIFIED, then clean up unreferenced binaries. The request only
// becomes terminal after every data mutation committed, so any earlier
// failure leaves it retryable in its prior status.
type ApprovalService struct {
	requestRepo *repository.ChangeRequestRepository
	listingRepo *repository.ListingRepository
	imageRepo   *repository.ImageRepository
	propagator  *Propagator
	cleaner     *Cleaner
	notifier    Notifier
	logger      *zap.Logger
}

func NewApprovalService(
	requestRepo *repository.ChangeRequestRepository,
	listingRepo *repository.ListingRepository,
	imageRepo *repository.ImageRepository,
	propagator *Propagator,
	cleaner *Cleaner,
	notifier Notifier,
	logger *zap.Logger,
) *ApprovalService {
	return &ApprovalService{
		requestRepo: requestRepo,
		listingRepo: listingRepo,
		imageRepo:   imageRepo,
		propagator:  propagator,
		cleaner:     cleaner,
		notifier:    notifier,
		logger:      logger,
	}
}

var reviewableStatuses = []models.ChangeRequestStatus{
	models.ChangeRequestReceived,
	models.ChangeRequestPendingReview,
}

func (s *ApprovalService) Approve(ctx context.Context, requestID uint, approverID uint) (*models.ApprovalResponse, error) {
	req, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("%w: load change request: %v", ErrStoreUnavailable, err)
	}
	if !req.Status.Reviewable() {
		return nil, fmt.Errorf("%w: request %d is %s", ErrInvalidTransition, req.ID, req.Status)
	}

	listing, err := s.listingRepo.GetByID(req.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("%w: load listing: %v", ErrStoreUnavailable, err)
	}

	images, err := s.imageRepo.GetByListingID(listing.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load image records: %v", ErrStoreUnavailable, err)
	}

	res, err := Reconcile(images, req.ImagesToAdd, req.ImagesToDelete, req.NewPrimaryImageID)
	if err != nil {
		return nil, err
	}

	plan := s.propagator.Plan(listing, res)
	if err := s.propagator.Execute(ctx, plan); err != nil {
		return nil, err
	}

	// Terminal transition last: this is the point at which the approval
	// becomes externally visible as done.
	applied, err := s.requestRepo.Transition(req.ID, reviewableStatuses, models.ChangeRequestVerified, approverID)
	if err != nil {
		return nil, fmt.Errorf("%w: mark request verified: %v", ErrStoreUnavailable, err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: request %d was reviewed concurrently", ErrInvalidTransition, req.ID)
	}

	s.logger.Info("approved image change request",
		zap.Uint("request_id", req.ID),
		zap.Uint("listing_id", listing.ID),
		zap.Uint("approver_id", approverID),
		zap.Int("writes", len(res.Writes)),
		zap.Int("removed", len(res.Removed)))

	go s.notifier.NotifyApproved(req.ID, req.HostID)

	// Commit-then-cleanup: only now may unreferenced binaries go away.
	s.cleaner.Run(ctx, res.Removed)

	return &models.ApprovalResponse{
		RequestID:     req.ID,
		ListingID:     listing.ID,
		Status:        string(models.ChangeRequestVerified),
		WritesApplied: len(res.Writes),
		ImagesRemoved: len(res.Removed),
	}, nil
}

// Reject declines the request without touching any image record.
func (s *ApprovalService) Reject(ctx context.Context, requestID uint, reviewerID uint) (*models.ApprovalResponse, error) {
	req, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("%w: load change request: %v", ErrStoreUnavailable, err)
	}
	if !req.Status.Reviewable() {
		return nil, fmt.Errorf("%w: request %d is %s", ErrInvalidTransition, req.ID, req.Status)
	}

	applied, err := s.requestRepo.Transition(req.ID, reviewableStatuses, models.ChangeRequestRejected, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("%w: mark request rejected: %v", ErrStoreUnavailable, err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: request %d was reviewed concurrently", ErrInvalidTransition, req.ID)
	}

	s.logger.Info("rejected image change request",
		zap.Uint("request_id", req.ID),
		zap.Uint("reviewer_id", reviewerID))

	go s.notifier.NotifyRejected(req.ID, req.HostID)

	return &models.ApprovalResponse{
		RequestID: req.ID,
		ListingID: req.ListingID,
		Status:    string(models.ChangeRequestRejected),
	}, nil
}
