/*
availability.go - Free-slot calculation for a room over a range

PURPOSE:
  Turns a room's booked intervals within a query range into the
  complementary set of free intervals. Pure function: no persistence,
  no identity, produced fresh on each query.

ALGORITHM:
  Sweep a cursor from rangeStart over the active bookings in ascending
  start order. A gap before a booking's start is a free slot; the cursor
  then advances to max(cursor, booking.End). A final gap before rangeEnd
  is the last slot.

GUARANTEES:
  - Emitted slots are non-overlapping and ordered ascending
  - Every slot has positive duration (zero-width slots are suppressed)
  - Robust to overlapping input bookings via the max advance, even though
    the no-overlap invariant means they should not occur

SEE ALSO:
  - engine.go: FreeSlots fetches the bookings and calls into here
*/
package booking

import (
	"sort"
	"time"
)

// FreeSlots computes the free intervals of [rangeStart, rangeEnd) given
// the room's active bookings intersecting the range. The store returns
// bookings sorted ascending by start; the sort here keeps the sweep
// correct for callers that cannot guarantee it.
func FreeSlots(bookings []Booking, rangeStart, rangeEnd time.Time) []TimeSlot {
	sorted := make([]Booking, len(bookings))
	copy(sorted, bookings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	slots := []TimeSlot{}
	cursor := rangeStart

	for _, b := range sorted {
		if cursor.Before(b.Start) {
			// Clip to the range: a booking may start after rangeEnd when
			// the caller passes a superset of intersecting bookings.
			end := b.Start
			if end.After(rangeEnd) {
				end = rangeEnd
			}
			if cursor.Before(end) {
				slots = append(slots, TimeSlot{Start: cursor, End: end})
			}
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}

	if cursor.Before(rangeEnd) {
		slots = append(slots, TimeSlot{Start: cursor, End: rangeEnd})
	}

	return slots
}
