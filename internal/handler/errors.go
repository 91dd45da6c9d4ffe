package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rentloop/rentloop-backend/internal/service"
)

// statusForError maps the engine's error taxonomy onto HTTP. Validation and
// state-machine failures are the caller's fault; concurrent updates and
// store outages are retryable.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrRequestNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNotListingOwner):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConcurrentUpdate):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrUnknownImageReference),
		errors.Is(err, service.ErrAmbiguousPrimary),
		errors.Is(err, service.ErrInvalidPrimaryTarget):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTransactionTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
