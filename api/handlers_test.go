package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/roombook/booking"
	"github.com/campushub/roombook/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

// newTestRouter builds the full router over an in-memory store seeded
// with a student (alice), an admin (root) and one room. The engine clock
// is pinned to 08:00 on the test day.
func newTestRouter(t *testing.T) (http.Handler, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SaveUser(ctx, booking.User{
		ID: "u-alice", Username: "alice", Roles: []booking.Role{booking.RoleStudent},
	}))
	require.NoError(t, store.SaveUser(ctx, booking.User{
		ID: "u-root", Username: "root", Roles: []booking.Role{booking.RoleAdmin},
	}))
	require.NoError(t, store.SaveRoom(ctx, booking.Room{
		ID: "room-1", Name: "Lecture Hall A", RoomNumber: "101",
		Capacity: 40, Type: booking.RoomClassroom, Active: true,
	}))

	clock := &fixedClock{now: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)}
	engine := booking.NewEngine(store, store, store, store).WithClock(clock)

	return NewRouter(NewHandler(engine, store)), store
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func createBooking(t *testing.T, router http.Handler, start, end string) BookingDTO {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/bookings", CreateBookingRequest{
		RoomID:      "room-1",
		RequesterID: "u-alice",
		StartTime:   start,
		EndTime:     end,
		Purpose:     "Study group",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[BookingDTO](t, rec)
}

// =============================================================================
// BOOKING FLOW
// =============================================================================

func TestBookingFlow_CreateApproveHistory(t *testing.T) {
	router, _ := newTestRouter(t)

	// Create
	b := createBooking(t, router, "2026-03-10T10:00:00", "2026-03-10T11:00:00")
	assert.Equal(t, "PENDING", b.Status)
	assert.Equal(t, "u-alice", b.RequesterID)

	// Approve as admin
	rec := doJSON(t, router, http.MethodPost, "/api/bookings/"+b.ID+"/approve",
		DecisionRequest{Actor: "root"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[BookingDTO](t, rec)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.Equal(t, "u-root", approved.ApprovedBy)
	assert.NotEmpty(t, approved.ApprovedAt)

	// History, newest first
	rec = doJSON(t, router, http.MethodGet, "/api/bookings/"+b.ID+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]HistoryEntryDTO](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, "APPROVED", history[0].Action)
	assert.Equal(t, "CREATED", history[1].Action)
	assert.Nil(t, history[1].OldStatus)
}

func TestCreateBooking_Conflict_409(t *testing.T) {
	router, _ := newTestRouter(t)

	createBooking(t, router, "2026-03-10T10:00:00", "2026-03-10T11:00:00")

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", CreateBookingRequest{
		RoomID:      "room-1",
		RequesterID: "u-alice",
		StartTime:   "2026-03-10T10:30:00",
		EndTime:     "2026-03-10T11:30:00",
		Purpose:     "Another group",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBooking_UnknownRoom_404(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", CreateBookingRequest{
		RoomID:      "room-404",
		RequesterID: "u-alice",
		StartTime:   "2026-03-10T10:00:00",
		EndTime:     "2026-03-10T11:00:00",
		Purpose:     "Study group",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBooking_MalformedTime_400(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", CreateBookingRequest{
		RoomID:      "room-1",
		RequesterID: "u-alice",
		StartTime:   "10 o'clock",
		EndTime:     "2026-03-10T11:00:00",
		Purpose:     "Study group",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApprove_NonAdmin_403(t *testing.T) {
	router, _ := newTestRouter(t)

	b := createBooking(t, router, "2026-03-10T10:00:00", "2026-03-10T11:00:00")

	rec := doJSON(t, router, http.MethodPost, "/api/bookings/"+b.ID+"/approve",
		DecisionRequest{Actor: "alice"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApprove_Twice_409(t *testing.T) {
	router, _ := newTestRouter(t)

	b := createBooking(t, router, "2026-03-10T10:00:00", "2026-03-10T11:00:00")

	rec := doJSON(t, router, http.MethodPost, "/api/bookings/"+b.ID+"/approve",
		DecisionRequest{Actor: "root"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/bookings/"+b.ID+"/approve",
		DecisionRequest{Actor: "root"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Contains(t, errResp.Error, "Current status: APPROVED")
}

func TestCancel_ByOwner_200(t *testing.T) {
	router, _ := newTestRouter(t)

	b := createBooking(t, router, "2026-03-10T10:00:00", "2026-03-10T11:00:00")

	rec := doJSON(t, router, http.MethodDelete, "/api/bookings/"+b.ID+"?actor=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cancelled := decode[BookingDTO](t, rec)
	assert.Equal(t, "CANCELLED", cancelled.Status)
}

func TestCancel_MissingActor_400(t *testing.T) {
	router, _ := newTestRouter(t)

	b := createBooking(t, router, "2026-03-10T10:00:00", "2026-03-10T11:00:00")

	rec := doJSON(t, router, http.MethodDelete, "/api/bookings/"+b.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancel_NotOwner_403(t *testing.T) {
	router, store := newTestRouter(t)
	require.NoError(t, store.SaveUser(context.Background(), booking.User{
		ID: "u-bob", Username: "bob", Roles: []booking.Role{booking.RoleStudent},
	}))

	b := createBooking(t, router, "2026-03-10T10:00:00", "2026-03-10T11:00:00")

	rec := doJSON(t, router, http.MethodDelete, "/api/bookings/"+b.ID+"?actor=bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCancelAdmin_OverridesCutoff(t *testing.T) {
	router, _ := newTestRouter(t)

	// Booking starts 08:30, clock is 08:00: the owner is inside the
	// cutoff window but the admin override still goes through
	b := createBooking(t, router, "2026-03-10T08:30:00", "2026-03-10T09:30:00")

	rec := doJSON(t, router, http.MethodDelete, "/api/bookings/"+b.ID+"?actor=alice", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/bookings/"+b.ID+"/admin",
		DecisionRequest{Actor: "root", Reason: "room flooded"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cancelled := decode[BookingDTO](t, rec)
	assert.Equal(t, "CANCELLED", cancelled.Status)
}

// =============================================================================
// AVAILABILITY
// =============================================================================

func TestAvailability_ReflectsBookings(t *testing.T) {
	router, _ := newTestRouter(t)

	createBooking(t, router, "2026-03-10T10:00:00", "2026-03-10T11:00:00")

	rec := doJSON(t, router, http.MethodGet,
		"/api/rooms/room-1/availability?start=2026-03-10T09:00:00&end=2026-03-10T12:00:00", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	avail := decode[AvailabilityDTO](t, rec)
	require.Len(t, avail.FreeSlots, 2)
	assert.Equal(t, "2026-03-10T09:00:00", avail.FreeSlots[0].StartTime)
	assert.Equal(t, "2026-03-10T10:00:00", avail.FreeSlots[0].EndTime)
	assert.Equal(t, "2026-03-10T11:00:00", avail.FreeSlots[1].StartTime)
	assert.Equal(t, "2026-03-10T12:00:00", avail.FreeSlots[1].EndTime)
}

func TestAvailability_InvertedRange_400(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet,
		"/api/rooms/room-1/availability?start=2026-03-10T12:00:00&end=2026-03-10T09:00:00", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailability_MissingParams_400(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/rooms/room-1/availability", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUtilization_Report(t *testing.T) {
	router, _ := newTestRouter(t)

	createBooking(t, router, "2026-03-10T10:00:00", "2026-03-10T11:00:00")

	rec := doJSON(t, router, http.MethodGet,
		"/api/rooms/room-1/utilization?start=2026-03-10T09:00:00&end=2026-03-10T12:00:00", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u := decode[UtilizationDTO](t, rec)
	assert.Equal(t, int64(60), u.BookedMinutes)
	assert.Equal(t, int64(180), u.TotalMinutes)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHoliday_BlocksBooking_422(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/holidays", CreateHolidayRequest{
		Date: "2026-03-10",
		Name: "Founders Day",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/bookings", CreateBookingRequest{
		RoomID:      "room-1",
		RequesterID: "u-alice",
		StartTime:   "2026-03-10T10:00:00",
		EndTime:     "2026-03-10T11:00:00",
		Purpose:     "Study group",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHoliday_DeleteThenBook(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/holidays", CreateHolidayRequest{
		Date: "2026-03-10",
		Name: "Founders Day",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	holiday := decode[HolidayDTO](t, rec)

	rec = doJSON(t, router, http.MethodDelete, "/api/holidays/"+holiday.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	createBooking(t, router, "2026-03-10T10:00:00", "2026-03-10T11:00:00")
}

// =============================================================================
// DIRECTORY SURFACE
// =============================================================================

func TestCreateUser_UnknownRole_400(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", CreateUserRequest{
		Username: "eve",
		Roles:    []string{"WIZARD"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserBookings_CancellableFilter(t *testing.T) {
	router, _ := newTestRouter(t)

	// One upcoming, one cancelled
	upcoming := createBooking(t, router, "2026-03-10T14:00:00", "2026-03-10T15:00:00")
	dropped := createBooking(t, router, "2026-03-10T16:00:00", "2026-03-10T17:00:00")
	rec := doJSON(t, router, http.MethodDelete, "/api/bookings/"+dropped.ID+"?actor=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/users/u-alice/bookings?cancellable=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cancellable := decode[[]BookingDTO](t, rec)
	require.Len(t, cancellable, 1)
	assert.Equal(t, upcoming.ID, cancellable[0].ID)

	rec = doJSON(t, router, http.MethodGet, "/api/users/u-alice/bookings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]BookingDTO](t, rec)
	assert.Len(t, all, 2)
}

func TestRooms_CreateAndList(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/rooms", CreateRoomRequest{
		Name:       "Chemistry Lab",
		RoomNumber: "201",
		Building:   "Science",
		Capacity:   24,
		Type:       string(booking.RoomLaboratory),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := decode[[]RoomDTO](t, rec)
	assert.Len(t, rooms, 2)
}

func TestRouter_UnknownBooking_404(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{
		"/api/bookings/nope",
		"/api/bookings/nope/history",
	} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, fmt.Sprintf("GET %s", path))
	}
}
