package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rentloop/rentloop-backend/internal/models"
	"github.com/rentloop/rentloop-backend/internal/service"
)

type PublicHandler struct {
	publicService *service.PublicService
}

func NewPublicHandler(publicService *service.PublicService) *PublicHandler {
	return &PublicHandler{
		publicService: publicService,
	}
}

func (h *PublicHandler) BrowseListings(c *fiber.Ctx) error {
	limit, offset := paginationParams(c)

	listings, err := h.publicService.BrowseListings(limit, offset)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(listings, "Listings retrieved successfully"))
}

func (h *PublicHandler) GetListingMedia(c *fiber.Ctx) error {
	url := c.Params("url")

	media, err := h.publicService.GetListingMedia(url)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(media, "Listing media retrieved successfully"))
}
