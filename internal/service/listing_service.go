package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rentloop/rentloop-backend/internal/models"
	"github.com/rentloop/rentloop-backend/internal/repository"
	"github.com/rentloop/rentloop-backend/pkg/storage"
	"github.com/rentloop/rentloop-backend/pkg/utils"
)

const maxImageSize = 10 * 1024 * 1024 // 10MB

type ListingService struct {
	listingRepo *repository.ListingRepository
	imageRepo   *repository.ImageRepository
	userRepo    *repository.UserRepository
	storage     storage.ObjectStorage
	propagator  *Propagator
	logger      *zap.Logger
}

func NewListingService(
	listingRepo *repository.ListingRepository,
	imageRepo *repository.ImageRepository,
	userRepo *repository.UserRepository,
	objectStorage storage.ObjectStorage,
	propagator *Propagator,
	logger *zap.Logger,
) *ListingService {
	return &ListingService{
		listingRepo: listingRepo,
		imageRepo:   imageRepo,
		userRepo:    userRepo,
		storage:     objectStorage,
		propagator:  propagator,
		logger:      logger,
	}
}

func (s *ListingService) CreateListing(hostID uint, req models.ListingRequest) (*models.Listing, error) {
	user, err := s.userRepo.GetByID(hostID)
	if err != nil {
		return nil, fmt.Errorf("host not found: %w", err)
	}

	count, err := s.listingRepo.CountByHostID(hostID)
	if err != nil {
		return nil, err
	}
	if int(count) >= user.ListingLimit {
		return nil, errors.New("listing limit reached for this account")
	}

	listing := &models.Listing{
		HostID:       hostID,
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		URL:          utils.GenerateRandomString(10),
		NightlyPrice: req.NightlyPrice,
		MaxGuests:    req.MaxGuests,
	}

	return s.listingRepo.Create(listing)
}

func (s *ListingService) GetListing(listingID uint) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) GetHostListings(hostID uint) ([]models.Listing, error) {
	return s.listingRepo.GetByHostID(hostID)
}

func (s *ListingService) UpdateListing(listingID uint, hostID uint, req models.UpdateListingRequest) (*models.Listing, error) {
	listing, err := s.ownedListing(listingID, hostID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Location != nil {
		listing.Location = *req.Location
	}
	if req.NightlyPrice != nil {
		listing.NightlyPrice = *req.NightlyPrice
	}
	if req.MaxGuests != nil {
		listing.MaxGuests = *req.MaxGuests
	}

	if err := s.listingRepo.Update(listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) DeleteListing(listingID uint, hostID uint) error {
	if _, err := s.ownedListing(listingID, hostID); err != nil {
		return err
	}
	return s.listingRepo.Delete(listingID)
}

// Publish makes the listing publicly visible and rebuilds both projections
// from the current active image set, since they may have gone stale while
// the listing was private. The rebuild runs on the atomic path so public
// readers never see the listing with half its media.
func (s *ListingService) Publish(ctx context.Context, listingID uint, hostID uint) (*models.Listing, error) {
	listing, err := s.ownedListing(listingID, hostID)
	if err != nil {
		return nil, err
	}
	if listing.Published {
		return listing, nil
	}

	listing.Published = true
	if err := s.listingRepo.Update(listing); err != nil {
		return nil, err
	}

	images, err := s.imageRepo.GetByListingID(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: load image records: %v", ErrStoreUnavailable, err)
	}
	res, err := Reconcile(images, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	plan := s.propagator.Plan(listing, res)
	if err := s.propagator.Execute(ctx, plan); err != nil {
		return nil, err
	}

	return listing, nil
}

func (s *ListingService) Unpublish(listingID uint, hostID uint) (*models.Listing, error) {
	listing, err := s.ownedListing(listingID, hostID)
	if err != nil {
		return nil, err
	}
	if !listing.Published {
		return listing, nil
	}

	// Projections are left in place and go stale; they are rebuilt on the
	// next publish.
	listing.Published = false
	if err := s.listingRepo.Update(listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// UploadImage stores the binary and creates the authoritative image record.
// The record enters the set pending approval; it only becomes publicly
// visible once an admin approves a change request that references it.
func (s *ListingService) UploadImage(ctx context.Context, listingID uint, hostID uint, file *multipart.FileHeader, caption string, displayOrder int) (*models.ListingImage, error) {
	listing, err := s.ownedListing(listingID, hostID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(hostID)
	if err != nil {
		return nil, fmt.Errorf("host not found: %w", err)
	}
	count, err := s.imageRepo.CountByListingID(listing.ID)
	if err != nil {
		return nil, err
	}
	if int(count) >= user.PhotoLimit {
		return nil, errors.New("photo limit reached for this account")
	}

	if !isValidImageType(file.Header.Get("Content-Type")) {
		return nil, errors.New("invalid file type")
	}
	if file.Size > maxImageSize {
		return nil, errors.New("file size too large")
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	key := fmt.Sprintf("listings/%d/%s%s", listing.ID,
		utils.GenerateRandomString(12), path.Ext(file.Filename))
	if err := s.storage.Upload(ctx, key, src, file.Size); err != nil {
		return nil, err
	}

	image := &models.ListingImage{
		ListingID:       listing.ID,
		DisplayOrder:    displayOrder,
		Readiness:       models.ImageReady,
		PendingApproval: true,
		ObjectKey:       key,
		Caption:         caption,
	}

	if err := s.imageRepo.Create(image); err != nil {
		// Orphan the upload rather than the record.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("leaked upload after failed record create",
				zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("image uploaded",
		zap.Uint("listing_id", listing.ID),
		zap.Uint("image_id", image.ID),
		zap.String("key", key))

	return image, nil
}

func (s *ListingService) GetListingImages(listingID uint, hostID uint) ([]models.ListingImage, error) {
	if _, err := s.ownedListing(listingID, hostID); err != nil {
		return nil, err
	}
	return s.imageRepo.GetByListingID(listingID)
}

func (s *ListingService) ImageResponse(img models.ListingImage) models.ListingImageResponse {
	thumbURL := ""
	if img.ThumbKey != "" {
		thumbURL = s.storage.PublicURL(img.ThumbKey)
	}
	return models.ListingImageResponse{
		ID:              img.ID,
		ListingID:       img.ListingID,
		DisplayOrder:    img.DisplayOrder,
		IsPrimary:       img.IsPrimary,
		Readiness:       string(img.Readiness),
		PendingApproval: img.PendingApproval,
		Caption:         img.Caption,
		PublicURL:       s.storage.PublicURL(img.ObjectKey),
		ThumbnailURL:    thumbURL,
		CreatedAt:       img.CreatedAt,
	}
}

func (s *ListingService) ownedListing(listingID uint, hostID uint) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if listing.HostID != hostID {
		return nil, ErrNotListingOwner
	}
	return listing, nil
}

func isValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	}
	return validTypes[contentType]
}
