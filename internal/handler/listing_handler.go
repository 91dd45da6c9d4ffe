package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/rentloop/rentloop-backend/internal/models"
	"github.com/rentloop/rentloop-backend/internal/service"
	"github.com/rentloop/rentloop-backend/pkg/utils"
)

type ListingHandler struct {
	listingService *service.ListingService
	validator      *utils.Validator
}

func NewListingHandler(listingService *service.ListingService, validator *utils.Validator) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		validator:      validator,
	}
}

func (h *ListingHandler) CreateListing(c *fiber.Ctx) error {
	var req models.ListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	hostID := c.Locals("userID").(uint)

	listing, err := h.listingService.CreateListing(hostID, req)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(listing.ToResponse(), "Listing created successfully"))
}

func (h *ListingHandler) GetListing(c *fiber.Ctx) error {
	listingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid listing ID"))
	}

	listing, err := h.listingService.GetListing(listingID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(listing.ToResponse(), "Listing retrieved successfully"))
}

func (h *ListingHandler) GetMyListings(c *fiber.Ctx) error {
	hostID := c.Locals("userID").(uint)

	listings, err := h.listingService.GetHostListings(hostID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	responses := make([]models.ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, l.ToResponse())
	}

	return c.JSON(models.SuccessResponse(responses, "Listings retrieved successfully"))
}

func (h *ListingHandler) UpdateListing(c *fiber.Ctx) error {
	listingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid listing ID"))
	}

	var req models.UpdateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	hostID := c.Locals("userID").(uint)

	listing, err := h.listingService.UpdateListing(listingID, hostID, req)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(listing.ToResponse(), "Listing updated successfully"))
}

func (h *ListingHandler) DeleteListing(c *fiber.Ctx) error {
	listingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid listing ID"))
	}

	hostID := c.Locals("userID").(uint)

	if err := h.listingService.DeleteListing(listingID, hostID); err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Listing deleted successfully"))
}

func (h *ListingHandler) PublishListing(c *fiber.Ctx) error {
	listingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid listing ID"))
	}

	hostID := c.Locals("userID").(uint)

	listing, err := h.listingService.Publish(c.UserContext(), listingID, hostID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(listing.ToResponse(), "Listing published successfully"))
}

func (h *ListingHandler) UnpublishListing(c *fiber.Ctx) error {
	listingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid listing ID"))
	}

	hostID := c.Locals("userID").(uint)

	listing, err := h.listingService.Unpublish(listingID, hostID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(listing.ToResponse(), "Listing unpublished successfully"))
}

func (h *ListingHandler) UploadImage(c *fiber.Ctx) error {
	listingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid listing ID"))
	}

	hostID := c.Locals("userID").(uint)

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("No file uploaded"))
	}

	caption := c.FormValue("caption")
	displayOrder, _ := strconv.Atoi(c.FormValue("display_order", "0"))

	image, err := h.listingService.UploadImage(c.UserContext(), listingID, hostID, file, caption, displayOrder)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(h.listingService.ImageResponse(*image), "Image uploaded successfully"))
}

func (h *ListingHandler) GetListingImages(c *fiber.Ctx) error {
	listingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid listing ID"))
	}

	hostID := c.Locals("userID").(uint)

	images, err := h.listingService.GetListingImages(listingID, hostID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	responses := make([]models.ListingImageResponse, 0, len(images))
	for _, img := range images {
		responses = append(responses, h.listingService.ImageResponse(img))
	}

	return c.JSON(models.SuccessResponse(responses, "Images retrieved successfully"))
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	return uint(id), err
}
