/*
engine.go - Booking lifecycle engine

PURPOSE:
  Orchestrates the booking lifecycle: creation, approval, rejection and
  cancellation. Enforces role checks, the no-overlap invariant, the
  holiday gate and the cancellation cutoff, and appends one audit entry
  per transition.

STATE MACHINE:
  PENDING ──▶ APPROVED ──▶ CANCELLED
     │  │
     │  └──▶ REJECTED
     └─────▶ CANCELLED

  Initial: PENDING (on creation). Terminal: REJECTED, CANCELLED.
  PENDING→APPROVED/REJECTED: admin only.
  PENDING/APPROVED→CANCELLED: owner (outside the cutoff window) or admin.
  Every other transition fails with an invalid-state error.

APPROVAL RACE RE-CHECK:
  Two overlapping PENDING bookings can coexist (both passed the overlap
  check against APPROVED+PENDING at different instants under weaker
  isolation, or one was created while the other awaited approval admin
  action). Approval therefore re-validates overlap inside its own
  transaction and fails unless the only "conflict" is the booking itself.

CONCURRENCY:
  Every mutating operation runs read-validate-write inside Store.WithTx.
  No in-process shared state; all state lives in the store and is read
  fresh per operation.

SEE ALSO:
  - stores.go: Collaborator interfaces
  - availability.go: FreeSlots sweep
  - errors.go: Error taxonomy produced here
*/
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CancellationNotice is the minimum notice for self-service cancellation:
// a requester may not cancel within this window before the start time.
const CancellationNotice = time.Hour

// Engine orchestrates the booking lifecycle against its collaborators.
// Construct with NewEngine; all dependencies are explicit.
type Engine struct {
	store    Store
	rooms    RoomDirectory
	users    UserDirectory
	holidays HolidayCalendar
	clock    Clock
}

func NewEngine(store Store, rooms RoomDirectory, users UserDirectory, holidays HolidayCalendar) *Engine {
	return &Engine{
		store:    store,
		rooms:    rooms,
		users:    users,
		holidays: holidays,
		clock:    RealClock{},
	}
}

// WithClock replaces the engine's clock. For tests.
func (e *Engine) WithClock(c Clock) *Engine {
	e.clock = c
	return e
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// FreeSlots returns the free intervals of [rangeStart, rangeEnd) for a
// room. Callers must reject rangeEnd < rangeStart at the boundary; an
// inverted range here yields a validation error rather than a panic.
func (e *Engine) FreeSlots(ctx context.Context, roomID RoomID, rangeStart, rangeEnd time.Time) ([]TimeSlot, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, ErrInvalidTimeRange
	}

	if _, err := e.room(ctx, roomID); err != nil {
		return nil, err
	}

	booked, err := e.store.ActiveOverlaps(ctx, roomID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	return FreeSlots(booked, rangeStart, rangeEnd), nil
}

// =============================================================================
// CREATE
// =============================================================================

// Create validates and persists a new PENDING booking for the requester,
// together with its CREATED history entry. The overlap check and both
// writes happen in one transaction.
func (e *Engine) Create(ctx context.Context, roomID RoomID, requesterID UserID, start, end time.Time, purpose string) (*Booking, error) {
	room, err := e.room(ctx, roomID)
	if err != nil {
		return nil, err
	}

	requester, err := e.user(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	if !requester.CanRequestBookings() {
		return nil, &AuthorizationError{
			ActorID: requester.ID,
			Message: "only students or faculty can create bookings",
		}
	}

	start = start.Truncate(time.Minute)
	end = end.Truncate(time.Minute)
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	// Holiday data is read-only with respect to bookings, so the gate
	// runs before the transaction; only the overlap check needs to be
	// atomic with the writes.
	if err := e.checkHolidays(ctx, start, end); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	b := &Booking{
		ID:          BookingID(uuid.NewString()),
		RoomID:      room.ID,
		RequesterID: requester.ID,
		Start:       start,
		End:         end,
		Purpose:     purpose,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = e.store.WithTx(ctx, func(tx Store) error {
		overlaps, err := tx.ActiveOverlaps(ctx, room.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to check overlaps: %w", err)
		}
		if len(overlaps) > 0 {
			return &ConflictError{RoomID: room.ID, Start: start, End: end}
		}

		if err := tx.SaveBooking(ctx, b); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}

		return tx.AppendHistory(ctx, HistoryEntry{
			ID:        uuid.NewString(),
			BookingID: b.ID,
			Action:    ActionCreated,
			ActorID:   requester.ID,
			OldStatus: nil,
			NewStatus: StatusPending,
			At:        now,
		})
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// checkHolidays rejects a booking whose start date is an active holiday,
// or that spans any active holiday when it crosses calendar dates.
func (e *Engine) checkHolidays(ctx context.Context, start, end time.Time) error {
	startDate := dateOf(start)
	endDate := dateOf(end)

	onHoliday, err := e.holidays.IsHoliday(ctx, startDate)
	if err != nil {
		return fmt.Errorf("failed to check holidays: %w", err)
	}
	if onHoliday {
		return &HolidayRestrictionError{From: startDate, To: startDate}
	}

	if !startDate.Equal(endDate) {
		spans, err := e.holidays.HasHolidayBetween(ctx, startDate, endDate)
		if err != nil {
			return fmt.Errorf("failed to check holidays: %w", err)
		}
		if spans {
			return &HolidayRestrictionError{From: startDate, To: endDate}
		}
	}

	return nil
}

// =============================================================================
// APPROVAL & REJECTION (admin-only)
// =============================================================================

// Approve transitions a PENDING booking to APPROVED. Overlap is
// re-checked inside the transaction to catch bookings accepted
// concurrently; a booking overlapping only itself is not a conflict.
func (e *Engine) Approve(ctx context.Context, id BookingID, adminUsername, reason string) (*Booking, error) {
	admin, err := e.admin(ctx, adminUsername, "approve")
	if err != nil {
		return nil, err
	}

	var b *Booking
	err = e.store.WithTx(ctx, func(tx Store) error {
		b, err = e.booking(ctx, tx, id)
		if err != nil {
			return err
		}

		if b.Status != StatusPending {
			return &InvalidStateError{Current: b.Status, Message: "can only approve PENDING bookings"}
		}

		overlaps, err := tx.ActiveOverlaps(ctx, b.RoomID, b.Start, b.End)
		if err != nil {
			return fmt.Errorf("failed to re-check overlaps: %w", err)
		}
		for i := range overlaps {
			if overlaps[i].ID != b.ID {
				return fmt.Errorf("cannot approve: booking now overlaps with another active booking: %w", ErrInvalidState)
			}
		}

		now := e.clock.Now()
		b.Status = StatusApproved
		b.ApprovedBy = admin.ID
		b.ApprovedAt = &now
		b.UpdatedAt = now

		if err := tx.SaveBooking(ctx, b); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}

		return tx.AppendHistory(ctx, HistoryEntry{
			ID:        uuid.NewString(),
			BookingID: b.ID,
			Action:    ActionApproved,
			ActorID:   admin.ID,
			OldStatus: statusPtr(StatusPending),
			NewStatus: StatusApproved,
			Reason:    reason,
			At:        now,
		})
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Reject transitions a PENDING booking to REJECTED.
func (e *Engine) Reject(ctx context.Context, id BookingID, adminUsername, reason string) (*Booking, error) {
	admin, err := e.admin(ctx, adminUsername, "reject")
	if err != nil {
		return nil, err
	}

	var b *Booking
	err = e.store.WithTx(ctx, func(tx Store) error {
		b, err = e.booking(ctx, tx, id)
		if err != nil {
			return err
		}

		if b.Status != StatusPending {
			return &InvalidStateError{Current: b.Status, Message: "can only reject PENDING bookings"}
		}

		now := e.clock.Now()
		b.Status = StatusRejected
		b.RejectionReason = reason
		b.UpdatedAt = now

		if err := tx.SaveBooking(ctx, b); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}

		return tx.AppendHistory(ctx, HistoryEntry{
			ID:        uuid.NewString(),
			BookingID: b.ID,
			Action:    ActionRejected,
			ActorID:   admin.ID,
			OldStatus: statusPtr(StatusPending),
			NewStatus: StatusRejected,
			Reason:    reason,
			At:        now,
		})
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// =============================================================================
// CANCELLATION
// =============================================================================

// Cancel is the self-service path: the booking's owner cancels a
// PENDING or APPROVED booking, no later than CancellationNotice before
// its start. Administrators use CancelByAdmin instead.
func (e *Engine) Cancel(ctx context.Context, id BookingID, requesterUsername string) (*Booking, error) {
	actor, err := e.userByUsername(ctx, requesterUsername)
	if err != nil {
		return nil, err
	}

	var b *Booking
	err = e.store.WithTx(ctx, func(tx Store) error {
		b, err = e.booking(ctx, tx, id)
		if err != nil {
			return err
		}

		if b.RequesterID != actor.ID {
			return &AuthorizationError{ActorID: actor.ID, Message: "you can only cancel your own bookings"}
		}

		if err := e.checkCancellable(b); err != nil {
			return err
		}

		return e.cancel(ctx, tx, b, actor, "Booking cancelled by requester")
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// CancelByAdmin cancels a booking regardless of the cutoff window, for
// any status other than already-CANCELLED.
func (e *Engine) CancelByAdmin(ctx context.Context, id BookingID, adminUsername, reason string) (*Booking, error) {
	admin, err := e.admin(ctx, adminUsername, "cancel")
	if err != nil {
		return nil, err
	}

	var b *Booking
	err = e.store.WithTx(ctx, func(tx Store) error {
		b, err = e.booking(ctx, tx, id)
		if err != nil {
			return err
		}

		if b.Status == StatusCancelled {
			return &InvalidStateError{Current: b.Status, Message: "booking is already cancelled"}
		}

		historyReason := "Booking cancelled by admin"
		if strings.TrimSpace(reason) != "" {
			historyReason = "Booking cancelled by admin: " + reason
		}

		return e.cancel(ctx, tx, b, admin, historyReason)
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// checkCancellable enforces the self-service cancellation rules.
func (e *Engine) checkCancellable(b *Booking) error {
	if b.Status == StatusCancelled {
		return &InvalidStateError{Current: b.Status, Message: "booking is already cancelled"}
	}
	if !b.Status.Active() {
		return &InvalidStateError{Current: b.Status, Message: "only pending or approved bookings can be cancelled"}
	}

	now := e.clock.Now()
	if !now.Before(b.Start) {
		return &InvalidStateError{Current: b.Status, Message: "cannot cancel a booking that has already started"}
	}
	if now.After(b.Start.Add(-CancellationNotice)) {
		return &InvalidStateError{Current: b.Status, Message: "cannot cancel a booking within 1 hour of its start time"}
	}

	return nil
}

func (e *Engine) cancel(ctx context.Context, tx Store, b *Booking, actor *User, reason string) error {
	old := b.Status
	now := e.clock.Now()

	b.Status = StatusCancelled
	b.CancelledBy = actor.ID
	b.CancelledAt = &now
	b.UpdatedAt = now

	if err := tx.SaveBooking(ctx, b); err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}

	return tx.AppendHistory(ctx, HistoryEntry{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		Action:    ActionCancelled,
		ActorID:   actor.ID,
		OldStatus: statusPtr(old),
		NewStatus: StatusCancelled,
		Reason:    reason,
		At:        now,
	})
}

// =============================================================================
// HISTORY & LOOKUPS
// =============================================================================

// History returns the booking's audit trail, newest first.
func (e *Engine) History(ctx context.Context, id BookingID) ([]HistoryEntry, error) {
	if _, err := e.booking(ctx, e.store, id); err != nil {
		return nil, err
	}
	return e.store.HistoryByBooking(ctx, id)
}

// Get returns a single booking.
func (e *Engine) Get(ctx context.Context, id BookingID) (*Booking, error) {
	return e.booking(ctx, e.store, id)
}

// BookingsByRequester returns a requester's bookings, newest first.
// With cancellable set, only active bookings that have not started yet
// are returned.
func (e *Engine) BookingsByRequester(ctx context.Context, userID UserID, cancellable bool) ([]Booking, error) {
	if _, err := e.user(ctx, userID); err != nil {
		return nil, err
	}
	return e.store.BookingsByRequester(ctx, userID, cancellable, e.clock.Now())
}

// =============================================================================
// HELPERS
// =============================================================================

func (e *Engine) room(ctx context.Context, id RoomID) (*Room, error) {
	room, err := e.rooms.GetRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return room, nil
}

func (e *Engine) user(ctx context.Context, id UserID) (*User, error) {
	user, err := e.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return user, nil
}

func (e *Engine) userByUsername(ctx context.Context, username string) (*User, error) {
	user, err := e.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return user, nil
}

// admin resolves an actor by username and verifies the ADMIN role.
func (e *Engine) admin(ctx context.Context, username, verb string) (*User, error) {
	actor, err := e.userByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, &AuthorizationError{
			ActorID: actor.ID,
			Message: fmt.Sprintf("only admins can %s bookings", verb),
		}
	}
	return actor, nil
}

func (e *Engine) booking(ctx context.Context, s ScheduleStore, id BookingID) (*Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up booking: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}
	return b, nil
}

func statusPtr(s BookingStatus) *BookingStatus { return &s }

// dateOf strips the time of day, keeping the naive-local date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
