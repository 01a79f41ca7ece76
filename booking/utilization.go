/*
utilization.go - Occupancy reporting for a room over a range

PURPOSE:
  The complement view of the availability sweep: instead of listing free
  slots, report how much of a range is booked. Rates use decimal values
  so a 50-minute booking over a 3-hour range reports exactly 5/18, not a
  float approximation.
*/
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Utilization summarizes a room's occupancy within [RangeStart, RangeEnd).
type Utilization struct {
	RoomID     RoomID
	RangeStart time.Time
	RangeEnd   time.Time

	BookedMinutes int64
	FreeMinutes   int64
	TotalMinutes  int64

	// Rate is BookedMinutes / TotalMinutes in [0, 1].
	Rate decimal.Decimal
}

// ComputeUtilization derives occupancy from a room's active bookings
// intersecting the range. Bookings are clipped to the range; overlapping
// input is handled by the same max-advance sweep as FreeSlots, so booked
// time is never double counted.
func ComputeUtilization(bookings []Booking, rangeStart, rangeEnd time.Time) Utilization {
	u := Utilization{
		RangeStart:   rangeStart,
		RangeEnd:     rangeEnd,
		TotalMinutes: int64(rangeEnd.Sub(rangeStart) / time.Minute),
		Rate:         decimal.Zero,
	}
	if u.TotalMinutes <= 0 {
		u.TotalMinutes = 0
		return u
	}

	for _, slot := range FreeSlots(bookings, rangeStart, rangeEnd) {
		u.FreeMinutes += int64(slot.End.Sub(slot.Start) / time.Minute)
	}
	u.BookedMinutes = u.TotalMinutes - u.FreeMinutes

	u.Rate = decimal.NewFromInt(u.BookedMinutes).
		Div(decimal.NewFromInt(u.TotalMinutes))
	return u
}

// Utilization reports occupancy for a room over [rangeStart, rangeEnd).
func (e *Engine) Utilization(ctx context.Context, roomID RoomID, rangeStart, rangeEnd time.Time) (*Utilization, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, ErrInvalidTimeRange
	}
	room, err := e.room(ctx, roomID)
	if err != nil {
		return nil, err
	}

	booked, err := e.store.ActiveOverlaps(ctx, roomID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	u := ComputeUtilization(booked, rangeStart, rangeEnd)
	u.RoomID = room.ID
	return &u, nil
}
