package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rentloop/rentloop-backend/internal/models"
	"github.com/rentloop/rentloop-backend/internal/repository"
)

// ChangeRequestService handles host-side submission and browsing of image
// change requests. Image-reference validity is checked at approval time by
// the reconciler, not here; submission only rejects the obviously malformed.
type ChangeRequestService struct {
	requestRepo *repository.ChangeRequestRepository
	listingRepo *repository.ListingRepository
	imageRepo   *repository.ImageRepository
	logger      *zap.Logger
}

func NewChangeRequestService(
	requestRepo *repository.ChangeRequestRepository,
	listingRepo *repository.ListingRepository,
	imageRepo *repository.ImageRepository,
	logger *zap.Logger,
) *ChangeRequestService {
	return &ChangeRequestService{
		requestRepo: requestRepo,
		listingRepo: listingRepo,
		imageRepo:   imageRepo,
		logger:      logger,
	}
}

func (s *ChangeRequestService) Submit(listingID uint, hostID uint, req models.SubmitImageChangeRequest) (*models.ImageChangeRequest, error) {
	listing, err := s.listingRepo.GetByID(listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("%w: load listing: %v", ErrStoreUnavailable, err)
	}
	if listing.HostID != hostID {
		return nil, ErrNotListingOwner
	}

	if len(req.ImagesToAdd) == 0 && len(req.ImagesToDelete) == 0 && req.NewPrimaryImageID == nil {
		return nil, errors.New("change request is empty")
	}

	status, err := s.initialStatus(listingID, req.ImagesToAdd)
	if err != nil {
		return nil, err
	}

	change := &models.ImageChangeRequest{
		ListingID:         listingID,
		HostID:            hostID,
		ImagesToAdd:       req.ImagesToAdd,
		ImagesToDelete:    req.ImagesToDelete,
		NewPrimaryImageID: req.NewPrimaryImageID,
		Status:            status,
	}

	if err := s.requestRepo.Create(change); err != nil {
		return nil, fmt.Errorf("%w: create change request: %v", ErrStoreUnavailable, err)
	}

	s.logger.Info("submitted image change request",
		zap.Uint("request_id", change.ID),
		zap.Uint("listing_id", listingID),
		zap.Uint("host_id", hostID),
		zap.String("status", string(status)))

	return change, nil
}

// initialStatus skips RECEIVED when the request needs no upload at all, and
// holds the request in REQUESTED while any referenced add is still being
// processed upstream.
func (s *ChangeRequestService) initialStatus(listingID uint, addIDs []uint) (models.ChangeRequestStatus, error) {
	if len(addIDs) == 0 {
		return models.ChangeRequestPendingReview, nil
	}

	images, err := s.imageRepo.GetByListingID(listingID)
	if err != nil {
		return "", fmt.Errorf("%w: load image records: %v", ErrStoreUnavailable, err)
	}
	ready := make(map[uint]bool, len(images))
	for _, img := range images {
		ready[img.ID] = img.Readiness == models.ImageReady
	}

	for _, id := range addIDs {
		if !ready[id] {
			return models.ChangeRequestRequested, nil
		}
	}
	return models.ChangeRequestReceived, nil
}

func (s *ChangeRequestService) GetForHost(requestID uint, hostID uint) (*models.ImageChangeRequest, error) {
	req, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("%w: load change request: %v", ErrStoreUnavailable, err)
	}
	if req.HostID != hostID {
		return nil, ErrNotListingOwner
	}
	return req, nil
}

func (s *ChangeRequestService) ListForHost(hostID uint, limit, offset int) ([]models.ImageChangeRequest, error) {
	return s.requestRepo.GetByHostID(hostID, limit, offset)
}

func (s *ChangeRequestService) ListReviewable(limit, offset int) ([]models.ImageChangeRequest, error) {
	return s.requestRepo.GetReviewable(limit, offset)
}
