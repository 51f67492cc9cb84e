// Package status defines the sentinel error kinds shared by the ledger core
// and the HTTP layer. Every precondition violation surfaces as exactly one of
// these values so callers can present precise messages instead of a generic
// failure.
package status

import "errors"

var (
	// ErrUnauthorized is returned when the caller lacks the required role:
	// a non-organizer attempting an organizer-only action, or a non-holder
	// attempting a holder-only action.
	ErrUnauthorized = errors.New("ledger: unauthorized")

	// ErrAlreadyEnrolled is returned when a principal already present in the
	// participant registry is enrolled a second time.
	ErrAlreadyEnrolled = errors.New("ledger: already enrolled")

	// ErrNotEnrolled is returned when an operation requires the principal to
	// be present in the participant registry and it is not.
	ErrNotEnrolled = errors.New("ledger: not enrolled")

	// ErrEventInactive is returned when mutating a deactivated policy.
	ErrEventInactive = errors.New("ledger: event inactive")

	// ErrInsufficientPayment is returned when supplied funds are below the
	// required price.
	ErrInsufficientPayment = errors.New("ledger: insufficient payment")

	// ErrSoulbound is returned when a transfer or listing is attempted on a
	// non-transferable ticket.
	ErrSoulbound = errors.New("ledger: ticket is soulbound")

	// ErrAlreadyCheckedIn is returned when a ticket is checked in twice.
	ErrAlreadyCheckedIn = errors.New("ledger: already checked in")

	// ErrInvalidInput is returned for malformed identifiers such as an empty
	// event id or a zero-length proof.
	ErrInvalidInput = errors.New("ledger: invalid input")

	// ErrNotFound is returned when the referenced policy, ticket or listing
	// does not exist. The authorization gate never returns it: unknown events
	// collapse to a plain false there.
	ErrNotFound = errors.New("ledger: not found")

	// ErrTransferFailed wraps a value-transfer provider failure. The
	// enclosing operation is rejected with no state change.
	ErrTransferFailed = errors.New("treasury: transfer failed")
)
