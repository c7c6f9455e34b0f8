package lederr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Every operation in the ledger core fails with exactly one of these kinds.
// Handlers classify with errors.Is and never invent ad-hoc error shapes, so
// built-in failures (gorm, stripe) surface as InternalServerError rather than
// leaking a different format.
var (
	ErrNotAuthorized       = errors.New("Not authorized")
	ErrPropertyNotFound    = errors.New("Property not found")
	ErrPropertyExists      = errors.New("Property already registered")
	ErrInvalidData         = errors.New("Invalid property data")
	ErrInvalidAmount       = errors.New("Invalid amount")
	ErrInsufficientShares  = errors.New("Insufficient shares available")
	ErrInsufficientBalance = errors.New("Insufficient balance")
	ErrNoPayoutAvailable   = errors.New("No payout available")
	ErrAlreadyClaimed      = errors.New("Payout already claimed")
	ErrSaleNotActive       = errors.New("Sale is not active")
	ErrPaused              = errors.New("Operations are paused")
	ErrOverflow            = errors.New("Arithmetic overflow")
	ErrInvalidOracle       = errors.New("Invalid oracle")
	ErrReservationNotFound = errors.New("Reservation not found")
)

// StatusCode maps an error kind to its HTTP status. Unknown errors are 500.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotAuthorized), errors.Is(err, ErrInvalidOracle):
		return fiber.StatusForbidden
	case errors.Is(err, ErrPropertyNotFound), errors.Is(err, ErrNoPayoutAvailable),
		errors.Is(err, ErrReservationNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrPropertyExists), errors.Is(err, ErrAlreadyClaimed):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidData), errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInsufficientShares), errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrSaleNotActive), errors.Is(err, ErrOverflow):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrPaused):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Known reports whether err belongs to the closed error set above.
func Known(err error) bool {
	return StatusCode(err) != fiber.StatusInternalServerError
}
