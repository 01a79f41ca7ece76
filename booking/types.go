/*
Package booking provides the core room-booking engine.

PURPOSE:
  This package contains the domain types and algorithms for managing
  time-slot reservations of university rooms: availability calculation,
  the booking lifecycle state machine, and the append-only audit trail.

KEY CONCEPTS IN THIS FILE (types.go):
  - Booking: A request for a room over a half-open interval [Start, End)
  - BookingStatus: The lifecycle state machine states
  - HistoryEntry: An immutable audit record of one lifecycle transition
  - TimeSlot: A derived free interval (never persisted)
  - Room / User / Holiday: Directory records the engine consumes

DESIGN PRINCIPLES:
  1. Immutability: History entries are never modified once written
  2. Explicit references: Records link by identifier, not object graphs;
     every lookup is an explicit call with its own not-found error
  3. Half-open intervals: [a,b) and [c,d) overlap iff a < d AND c < b
  4. Auditability: Every transition produces exactly one history entry

USAGE:
  engine := booking.NewEngine(store, store, store, store)
  b, err := engine.Create(ctx, roomID, userID, start, end, "Study group")

SEE ALSO:
  - engine.go: Lifecycle engine implementing the transitions
  - availability.go: Free-slot calculation
  - stores.go: Persistence interfaces consumed by the engine
*/
package booking

import (
	"time"
)

// TimeLayout is the canonical wire/storage format for booking instants.
// Times are timezone-naive local instants at minute granularity; the
// layout is lexicographically ordered so string range predicates work.
const TimeLayout = "2006-01-02T15:04:05"

// DateLayout is the storage format for holiday dates.
const DateLayout = "2006-01-02"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type BookingID string
type RoomID string
type UserID string
type HolidayID string

// =============================================================================
// BOOKING - A reservation request for a room over [Start, End)
// =============================================================================

type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusApproved  BookingStatus = "APPROVED"
	StatusRejected  BookingStatus = "REJECTED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Active reports whether the status occupies its time interval.
// PENDING and APPROVED bookings block the slot; REJECTED and CANCELLED
// bookings free it and are excluded from every overlap check.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Terminal reports whether no further transition starts from this status.
func (s BookingStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// Booking is a room reservation. The interval [Start, End) is half-open:
// a booking ending at 11:00 does not conflict with one starting at 11:00.
// Bookings are never deleted; terminal bookings are retained for history.
type Booking struct {
	ID          BookingID
	RoomID      RoomID
	RequesterID UserID

	Start time.Time
	End   time.Time

	Purpose string
	Status  BookingStatus

	// Set on rejection
	RejectionReason string

	// Set on approval
	ApprovedBy UserID
	ApprovedAt *time.Time

	// Set on cancellation
	CancelledBy UserID
	CancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overlaps reports whether the booking's interval intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}

// =============================================================================
// TIME SLOT - Derived free interval, produced fresh on each query
// =============================================================================

type TimeSlot struct {
	Start time.Time
	End   time.Time
}

// =============================================================================
// AUDIT TRAIL - Immutable record of lifecycle transitions
// =============================================================================

type AuditAction string

const (
	ActionCreated   AuditAction = "CREATED"
	ActionApproved  AuditAction = "APPROVED"
	ActionRejected  AuditAction = "REJECTED"
	ActionCancelled AuditAction = "CANCELLED"

	// Reserved actions. No operation currently produces them; they exist
	// so stored history with these values round-trips cleanly.
	ActionModified AuditAction = "MODIFIED"
	ActionDeleted  AuditAction = "DELETED"
)

// HistoryEntry records one lifecycle transition of a booking.
// Entries are append-only: once written they are never modified or
// deleted. Exactly one CREATED entry exists per booking, and insertion
// order is chronological order.
type HistoryEntry struct {
	ID        string
	BookingID BookingID
	Action    AuditAction
	ActorID   UserID
	OldStatus *BookingStatus // nil for CREATED
	NewStatus BookingStatus
	Reason    string
	At        time.Time
}

// =============================================================================
// USERS AND ROLES
// =============================================================================

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleFaculty Role = "FACULTY"
	RoleAdmin   Role = "ADMIN"
)

// User is an already-authenticated identity with its role snapshot.
// The engine re-verifies role membership itself: route-level gating and
// business-rule gating are independent layers.
type User struct {
	ID        UserID
	Username  string
	Email     string
	FirstName string
	LastName  string
	Roles     []Role
}

func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// CanRequestBookings reports whether the user holds a requester-class
// role. Pure administrative accounts do not book rooms themselves.
func (u *User) CanRequestBookings() bool {
	return u.HasRole(RoleStudent) || u.HasRole(RoleFaculty)
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// =============================================================================
// ROOMS
// =============================================================================

type RoomType string

const (
	RoomClassroom  RoomType = "CLASSROOM"
	RoomLaboratory RoomType = "LABORATORY"
	RoomConference RoomType = "CONFERENCE_ROOM"
	RoomAuditorium RoomType = "AUDITORIUM"
	RoomLibrary    RoomType = "LIBRARY_ROOM"
)

type Room struct {
	ID          RoomID
	Name        string
	RoomNumber  string
	Building    string
	Capacity    int
	FloorNumber int
	Type        RoomType
	Active      bool
	Description string
}

// =============================================================================
// HOLIDAYS - Blackout dates for booking creation
// =============================================================================

// Holiday is a blackout date. Only active holidays participate in
// validation; deactivation is the only form of deletion.
type Holiday struct {
	ID          HolidayID
	Date        time.Time // day granularity
	Name        string
	Description string
	Recurring   bool // same month/day every year
	Active      bool
	CreatedBy   UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
