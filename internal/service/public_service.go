package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/rentloop/rentloop-backend/internal/models"
	"github.com/rentloop/rentloop-backend/internal/repository"
)

// PublicService serves the renter-facing browse endpoints from the
// denormalized projections. Read-only: it never touches the authoritative
// image records.
type PublicService struct {
	listingRepo    *repository.ListingRepository
	projectionRepo *repository.ProjectionRepository
}

func NewPublicService(listingRepo *repository.ListingRepository, projectionRepo *repository.ProjectionRepository) *PublicService {
	return &PublicService{
		listingRepo:    listingRepo,
		projectionRepo: projectionRepo,
	}
}

// BrowseListings returns published listings with their cover thumbnails.
func (s *PublicService) BrowseListings(limit, offset int) ([]models.PublicListingResponse, error) {
	listings, err := s.listingRepo.GetPublished(limit, offset)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return []models.PublicListingResponse{}, nil
	}

	ids := make([]uint, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	covers, err := s.projectionRepo.GetCovers(ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.PublicListingResponse, 0, len(listings))
	for _, l := range listings {
		resp := models.PublicListingResponse{
			ID:           l.ID,
			Title:        l.Title,
			Location:     l.Location,
			URL:          l.URL,
			NightlyPrice: l.NightlyPrice,
			MaxGuests:    l.MaxGuests,
		}
		if cover, ok := covers[l.ID]; ok {
			resp.ThumbnailURL = cover.ThumbnailURL
		}
		out = append(out, resp)
	}
	return out, nil
}

// GetListingMedia returns the ordered media entries of a published listing.
func (s *PublicService) GetListingMedia(listingURL string) ([]models.ListingMediaProjection, error) {
	listing, err := s.listingRepo.GetByURL(listingURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if !listing.Published {
		return nil, ErrListingNotFound
	}

	return s.projectionRepo.GetMedia(listing.ID)
}
