package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/rentloop/rentloop-backend/internal/models"
	"github.com/rentloop/rentloop-backend/internal/service"
)

type ChangeRequestHandler struct {
	changeRequestService *service.ChangeRequestService
	approvalService      *service.ApprovalService
}

func NewChangeRequestHandler(changeRequestService *service.ChangeRequestService, approvalService *service.ApprovalService) *ChangeRequestHandler {
	return &ChangeRequestHandler{
		changeRequestService: changeRequestService,
		approvalService:      approvalService,
	}
}

// Submit creates a change request for a listing the host owns.
func (h *ChangeRequestHandler) Submit(c *fiber.Ctx) error {
	listingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid listing ID"))
	}

	var req models.SubmitImageChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	hostID := c.Locals("userID").(uint)

	change, err := h.changeRequestService.Submit(listingID, hostID, req)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(change, "Change request submitted successfully"))
}

func (h *ChangeRequestHandler) GetMyRequest(c *fiber.Ctx) error {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request ID"))
	}

	hostID := c.Locals("userID").(uint)

	req, err := h.changeRequestService.GetForHost(requestID, hostID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(req, "Change request retrieved successfully"))
}

func (h *ChangeRequestHandler) ListMyRequests(c *fiber.Ctx) error {
	hostID := c.Locals("userID").(uint)
	limit, offset := paginationParams(c)

	reqs, err := h.changeRequestService.ListForHost(hostID, limit, offset)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(reqs, "Change requests retrieved successfully"))
}

// ListReviewable returns the admin review queue, oldest first.
func (h *ChangeRequestHandler) ListReviewable(c *fiber.Ctx) error {
	limit, offset := paginationParams(c)

	reqs, err := h.changeRequestService.ListReviewable(limit, offset)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(reqs, "Reviewable change requests retrieved successfully"))
}

func (h *ChangeRequestHandler) Approve(c *fiber.Ctx) error {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request ID"))
	}

	approverID := c.Locals("userID").(uint)

	result, err := h.approvalService.Approve(c.UserContext(), requestID, approverID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(result, "Change request approved successfully"))
}

func (h *ChangeRequestHandler) Reject(c *fiber.Ctx) error {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request ID"))
	}

	reviewerID := c.Locals("userID").(uint)

	result, err := h.approvalService.Reject(c.UserContext(), requestID, reviewerID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(result, "Change request rejected successfully"))
}

func paginationParams(c *fiber.Ctx) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	offset, _ = strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
