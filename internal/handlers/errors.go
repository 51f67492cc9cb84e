package handlers

import (
	"errors"

	"github.com/pocketbase/pocketbase/apis"

	"ticket-ledger/internal/status"
)

// apiError maps ledger sentinels onto API errors. Rejections carry no more
// detail than the sentinel; the reason stays server side.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("Not found", err)
	case errors.Is(err, status.ErrUnauthorized):
		return apis.NewForbiddenError("Access denied", err)
	case errors.Is(err, status.ErrInvalidInput):
		return apis.NewBadRequestError("Invalid request", err)
	case errors.Is(err, status.ErrAlreadyEnrolled):
		return apis.NewBadRequestError("Already enrolled", err)
	case errors.Is(err, status.ErrNotEnrolled):
		return apis.NewBadRequestError("Not enrolled", err)
	case errors.Is(err, status.ErrEventInactive):
		return apis.NewBadRequestError("Event is not active", err)
	case errors.Is(err, status.ErrInsufficientPayment):
		return apis.NewBadRequestError("Insufficient payment", err)
	case errors.Is(err, status.ErrSoulbound):
		return apis.NewBadRequestError("Ticket is soulbound", err)
	case errors.Is(err, status.ErrAlreadyCheckedIn):
		return apis.NewBadRequestError("Ticket already checked in", err)
	case errors.Is(err, status.ErrTransferFailed):
		return apis.NewBadRequestError("Payment transfer failed", err)
	default:
		return apis.NewInternalServerError("Something went wrong", err)
	}
}
