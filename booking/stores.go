/*
stores.go - Persistence interfaces consumed by the engine

PURPOSE:
  Defines the boundary between the lifecycle engine and the database.
  The engine is constructed with these collaborators; it never reaches
  into a live object graph. Implementations live in store/sqlite.

TRANSACTIONAL BOUNDARY:
  Each booking operation (create/approve/reject/cancel) must execute as
  one atomic unit: the overlap check and the subsequent writes are
  indivisible with respect to other writers on the same room. Store.WithTx
  wraps the read-validate-write sequence; a booking is never persisted
  without its corresponding history entry - both commit or both roll back.

APPEND-ONLY CONTRACT:
  AuditTrail has no update or delete. History is corrected by appending,
  never by editing.

SEE ALSO:
  - engine.go: The consumer of every interface here
  - store/sqlite/sqlite.go: Concrete implementation
*/
package booking

import (
	"context"
	"time"
)

// =============================================================================
// SCHEDULE STORE - Bookings per room
// =============================================================================

// ScheduleStore persists bookings and answers interval queries.
type ScheduleStore interface {
	// SaveBooking inserts the booking, or updates its mutable fields
	// (status, reasons, approval/cancellation stamps, UpdatedAt) when the
	// id already exists. Start/End/RoomID/RequesterID/CreatedAt never
	// change after insert.
	SaveBooking(ctx context.Context, b *Booking) error

	// GetBooking returns the booking or (nil, nil) when absent.
	GetBooking(ctx context.Context, id BookingID) (*Booking, error)

	// ActiveOverlaps returns the room's PENDING/APPROVED bookings whose
	// interval intersects [start, end), ordered ascending by start time.
	ActiveOverlaps(ctx context.Context, roomID RoomID, start, end time.Time) ([]Booking, error)

	// BookingsByRequester returns a requester's bookings, newest first.
	// With activeOnly set, only PENDING/APPROVED bookings starting after
	// the given instant are returned (the cancellable set), ordered by
	// start time ascending instead.
	BookingsByRequester(ctx context.Context, userID UserID, activeOnly bool, after time.Time) ([]Booking, error)
}

// =============================================================================
// AUDIT TRAIL - Append-only transition log
// =============================================================================

type AuditTrail interface {
	// AppendHistory records one transition. This is the only write.
	AppendHistory(ctx context.Context, entry HistoryEntry) error

	// HistoryByBooking returns all entries for a booking, newest first.
	HistoryByBooking(ctx context.Context, id BookingID) ([]HistoryEntry, error)
}

// =============================================================================
// STORE - Transactional aggregate over schedule + audit
// =============================================================================

// Store combines the schedule store and audit trail with a transaction
// boundary. WithTx executes fn against a store view bound to a single
// database transaction: if fn returns an error the transaction is rolled
// back, otherwise it is committed.
type Store interface {
	ScheduleStore
	AuditTrail

	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// DIRECTORIES - Identity and room lookups
// =============================================================================

// RoomDirectory resolves room references. Lookups return (nil, nil) when
// the record is absent; the engine converts that into a not-found error.
type RoomDirectory interface {
	GetRoom(ctx context.Context, id RoomID) (*Room, error)
}

// UserDirectory resolves actor identities with their role snapshot at the
// time of the call.
type UserDirectory interface {
	GetUser(ctx context.Context, id UserID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// =============================================================================
// HOLIDAY CALENDAR - Blackout-date predicates
// =============================================================================

// HolidayCalendar answers the two predicates booking creation needs.
// Only active holidays count; recurring holidays match their month/day
// in any year.
type HolidayCalendar interface {
	// IsHoliday checks a single date (time-of-day ignored).
	IsHoliday(ctx context.Context, date time.Time) (bool, error)

	// HasHolidayBetween checks the inclusive date range [from, to].
	HasHolidayBetween(ctx context.Context, from, to time.Time) (bool, error)
}
