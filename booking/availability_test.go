package booking_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/roombook/booking"
)

func decimalDiv(a, b int64) decimal.Decimal {
	return decimal.NewFromInt(a).Div(decimal.NewFromInt(b))
}

// =============================================================================
// TEST SETUP
// =============================================================================

// at builds a naive instant on a fixed test day. UTC matches the
// zone-dropping round trip through the store.
func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func booked(start, end time.Time) booking.Booking {
	return booking.Booking{
		ID:     booking.BookingID("b-" + start.Format("15:04")),
		RoomID: "room-1",
		Start:  start,
		End:    end,
		Status: booking.StatusApproved,
	}
}

// =============================================================================
// FREE SLOT SWEEP
// =============================================================================

func TestFreeSlots_EmptyRoom_WholeRangeFree(t *testing.T) {
	// GIVEN: No bookings
	// WHEN: Querying 09:00-12:00
	slots := booking.FreeSlots(nil, at(9, 0), at(12, 0))

	// THEN: The whole range is one free slot
	require.Len(t, slots, 1)
	assert.Equal(t, at(9, 0), slots[0].Start)
	assert.Equal(t, at(12, 0), slots[0].End)
}

func TestFreeSlots_SingleBookingInMiddle_TwoSlots(t *testing.T) {
	// GIVEN: 10:00-11:00 is booked
	bookings := []booking.Booking{booked(at(10, 0), at(11, 0))}

	// WHEN: Querying 09:00-12:00
	slots := booking.FreeSlots(bookings, at(9, 0), at(12, 0))

	// THEN: Two free slots surround the booking
	require.Len(t, slots, 2)
	assert.Equal(t, at(9, 0), slots[0].Start)
	assert.Equal(t, at(10, 0), slots[0].End)
	assert.Equal(t, at(11, 0), slots[1].Start)
	assert.Equal(t, at(12, 0), slots[1].End)
}

func TestFreeSlots_BookingCoversRange_NoSlots(t *testing.T) {
	// GIVEN: A booking strictly containing the query range
	bookings := []booking.Booking{booked(at(8, 0), at(13, 0))}

	slots := booking.FreeSlots(bookings, at(9, 0), at(12, 0))

	// THEN: Nothing is free; the result is empty but non-nil
	require.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestFreeSlots_BookingTouchesRangeStart_NoLeadingSlot(t *testing.T) {
	// GIVEN: A booking starting exactly at the range start
	bookings := []booking.Booking{booked(at(9, 0), at(10, 0))}

	slots := booking.FreeSlots(bookings, at(9, 0), at(12, 0))

	// THEN: No zero-width slot before the booking
	require.Len(t, slots, 1)
	assert.Equal(t, at(10, 0), slots[0].Start)
	assert.Equal(t, at(12, 0), slots[0].End)
}

func TestFreeSlots_AdjacentBookings_NoGapBetween(t *testing.T) {
	// GIVEN: Back-to-back bookings 09:00-10:00 and 10:00-11:00
	bookings := []booking.Booking{
		booked(at(9, 0), at(10, 0)),
		booked(at(10, 0), at(11, 0)),
	}

	slots := booking.FreeSlots(bookings, at(9, 0), at(12, 0))

	// THEN: Only the trailing hour is free; adjacency creates no slot
	require.Len(t, slots, 1)
	assert.Equal(t, at(11, 0), slots[0].Start)
	assert.Equal(t, at(12, 0), slots[0].End)
}

func TestFreeSlots_UnsortedInput_StillCorrect(t *testing.T) {
	// GIVEN: Bookings out of start order
	bookings := []booking.Booking{
		booked(at(11, 0), at(11, 30)),
		booked(at(9, 30), at(10, 0)),
	}

	slots := booking.FreeSlots(bookings, at(9, 0), at(12, 0))

	require.Len(t, slots, 3)
	assert.Equal(t, at(9, 0), slots[0].Start)
	assert.Equal(t, at(9, 30), slots[0].End)
	assert.Equal(t, at(10, 0), slots[1].Start)
	assert.Equal(t, at(11, 0), slots[1].End)
	assert.Equal(t, at(11, 30), slots[2].Start)
	assert.Equal(t, at(12, 0), slots[2].End)
}

func TestFreeSlots_OverlappingBookings_NoPhantomGap(t *testing.T) {
	// GIVEN: Overlapping bookings (should not happen, but the sweep
	// must not emit a free slot inside either of them)
	bookings := []booking.Booking{
		booked(at(9, 0), at(11, 0)),
		booked(at(10, 0), at(10, 30)),
	}

	slots := booking.FreeSlots(bookings, at(9, 0), at(12, 0))

	require.Len(t, slots, 1)
	assert.Equal(t, at(11, 0), slots[0].Start)
	assert.Equal(t, at(12, 0), slots[0].End)
}

func TestFreeSlots_BookingBeyondRangeEnd_Clipped(t *testing.T) {
	// GIVEN: A booking starting after the range end
	bookings := []booking.Booking{booked(at(13, 0), at(14, 0))}

	slots := booking.FreeSlots(bookings, at(9, 0), at(12, 0))

	// THEN: The slot is clipped at the range end
	require.Len(t, slots, 1)
	assert.Equal(t, at(9, 0), slots[0].Start)
	assert.Equal(t, at(12, 0), slots[0].End)
}

func TestFreeSlots_SlotsPartitionTheRange(t *testing.T) {
	// GIVEN: A mix of bookings
	bookings := []booking.Booking{
		booked(at(9, 15), at(9, 45)),
		booked(at(10, 30), at(11, 0)),
		booked(at(11, 0), at(11, 20)),
	}
	rangeStart, rangeEnd := at(9, 0), at(12, 0)

	slots := booking.FreeSlots(bookings, rangeStart, rangeEnd)

	// THEN: Free time plus booked time covers the range exactly
	var free time.Duration
	for _, slot := range slots {
		assert.True(t, slot.End.After(slot.Start), "slots must have positive width")
		free += slot.End.Sub(slot.Start)
	}
	var bookedTotal time.Duration
	for _, b := range bookings {
		bookedTotal += b.End.Sub(b.Start)
	}
	assert.Equal(t, rangeEnd.Sub(rangeStart), free+bookedTotal)

	// AND: Slots are ordered and non-overlapping
	for i := 1; i < len(slots); i++ {
		assert.False(t, slots[i].Start.Before(slots[i-1].End))
	}
}

// =============================================================================
// UTILIZATION
// =============================================================================

func TestComputeUtilization_PartiallyBooked(t *testing.T) {
	// GIVEN: 50 booked minutes in a 3 hour range
	bookings := []booking.Booking{booked(at(10, 0), at(10, 50))}

	u := booking.ComputeUtilization(bookings, at(9, 0), at(12, 0))

	assert.Equal(t, int64(180), u.TotalMinutes)
	assert.Equal(t, int64(50), u.BookedMinutes)
	assert.Equal(t, int64(130), u.FreeMinutes)
	// 50/180 exactly, not a float approximation
	assert.True(t, u.Rate.Equal(decimalDiv(50, 180)), "rate = %s", u.Rate)
}

func TestComputeUtilization_EmptyRange_ZeroRate(t *testing.T) {
	u := booking.ComputeUtilization(nil, at(9, 0), at(9, 0))

	assert.Equal(t, int64(0), u.TotalMinutes)
	assert.True(t, u.Rate.IsZero())
}

func TestComputeUtilization_FullyBooked_RateOne(t *testing.T) {
	bookings := []booking.Booking{booked(at(9, 0), at(12, 0))}

	u := booking.ComputeUtilization(bookings, at(9, 0), at(12, 0))

	assert.Equal(t, u.TotalMinutes, u.BookedMinutes)
	assert.True(t, u.Rate.Equal(decimalDiv(1, 1)))
}
