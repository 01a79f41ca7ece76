/*
errors.go - Centralized error types for the booking engine

PURPOSE:
  All error conditions in one place for consistency and discoverability.
  Every failure is locally detected and surfaced as a distinct, catchable
  condition - none are silently swallowed.

ERROR CATEGORIES:
  1. Not-found     - room/user/booking/holiday missing
  2. Validation    - malformed time range
  3. Conflict      - overlapping active booking
  4. Business-rule - holiday restriction
  5. Authorization - wrong role, not the booking owner
  6. Invalid-state - wrong status for a transition, cancellation cutoff

USAGE:
  if errors.Is(err, booking.ErrBookingConflict) {
      // surface as HTTP 409
  }

SEE ALSO:
  - engine.go: Produces these errors
  - api/handlers.go: Maps them to HTTP statuses
*/
package booking

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRoomNotFound is returned when a referenced room doesn't exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrBookingNotFound is returned when a referenced booking doesn't exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrHolidayNotFound is returned when a referenced holiday doesn't exist.
	ErrHolidayNotFound = errors.New("holiday not found")

	// ErrInvalidTimeRange is returned when a range is malformed (end not
	// strictly after start).
	ErrInvalidTimeRange = errors.New("invalid time range: end must be after start")

	// ErrBookingConflict is returned when an interval overlaps an active
	// booking on the same room.
	ErrBookingConflict = errors.New("booking conflict")

	// ErrHolidayRestriction is returned when a booking falls on or spans
	// an active holiday.
	ErrHolidayRestriction = errors.New("holiday restriction")

	// ErrNotAuthorized is returned when the actor's role snapshot does not
	// permit the operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidState is returned when the booking's status does not allow
	// the requested transition.
	ErrInvalidState = errors.New("invalid booking state")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError reports which interval collided on which room.
type ConflictError struct {
	RoomID RoomID
	Start  time.Time
	End    time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking overlaps with an existing active booking on room %s (%s - %s)",
		e.RoomID, e.Start.Format(TimeLayout), e.End.Format(TimeLayout))
}

func (e *ConflictError) Unwrap() error { return ErrBookingConflict }

// HolidayRestrictionError reports the blackout that blocked creation.
type HolidayRestrictionError struct {
	From time.Time
	To   time.Time
}

func (e *HolidayRestrictionError) Error() string {
	if e.From.Equal(e.To) {
		return fmt.Sprintf("booking cannot be made on a holiday: %s", e.From.Format(DateLayout))
	}
	return fmt.Sprintf("booking cannot span holidays between %s and %s",
		e.From.Format(DateLayout), e.To.Format(DateLayout))
}

func (e *HolidayRestrictionError) Unwrap() error { return ErrHolidayRestriction }

// InvalidStateError reports a disallowed transition. Message always
// carries the current status so callers can explain the failure.
type InvalidStateError struct {
	Current BookingStatus
	Message string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s. Current status: %s", e.Message, e.Current)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// AuthorizationError reports a role or ownership failure.
type AuthorizationError struct {
	ActorID UserID
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

func (e *AuthorizationError) Unwrap() error { return ErrNotAuthorized }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrHolidayNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrBookingConflict) ||
		errors.Is(err, ErrHolidayRestriction) ||
		errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrInvalidState) ||
		IsNotFound(err)
}
