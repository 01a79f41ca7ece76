/*
handlers.go - HTTP API handlers for the room booking system

PURPOSE:
  Exposes the booking engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Rooms:
    GET    /api/rooms                    List rooms
    POST   /api/rooms                    Register a room
    GET    /api/rooms/{id}               Get room details
    GET    /api/rooms/{id}/availability  Free slots over a range
    GET    /api/rooms/{id}/utilization   Occupancy report over a range

  Bookings:
    POST   /api/bookings                 Create booking (PENDING)
    GET    /api/bookings/{id}            Get booking details
    POST   /api/bookings/{id}/approve    Approve (admin)
    POST   /api/bookings/{id}/reject     Reject (admin)
    DELETE /api/bookings/{id}            Cancel (requester)
    DELETE /api/bookings/{id}/admin      Cancel (admin override)
    GET    /api/bookings/{id}/history    Audit trail, newest first

  Users:
    POST   /api/users                    Register a user
    GET    /api/users/{id}               Get user details
    GET    /api/users/{id}/bookings      Bookings by requester

  Holidays:
    GET    /api/holidays                 List active holidays
    POST   /api/holidays                 Register a holiday
    DELETE /api/holidays/{id}            Deactivate (soft delete)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engine)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Domain errors are mapped to HTTP status by writeDomainError:
  - 400: Validation errors, invalid input
  - 403: Authorization failures (role or ownership)
  - 404: Resource not found
  - 409: Conflicts and invalid state transitions
  - 422: Holiday restrictions
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication. Actor identity comes from the request
  itself (requester_id on create, actor on decisions). An auth layer
  would replace these with the authenticated principal.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campushub/roombook/booking"
	"github.com/campushub/roombook/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *booking.Engine
	Store  *sqlite.Store
}

// NewHandler creates a new handler with the given engine and store.
func NewHandler(engine *booking.Engine, store *sqlite.Store) *Handler {
	return &Handler{Engine: engine, Store: store}
}

// =============================================================================
// ROOM HANDLERS
// =============================================================================

// ListRooms returns all rooms.
// GET /api/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Store.ListRooms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rooms", err)
		return
	}

	dtos := make([]RoomDTO, len(rooms))
	for i, room := range rooms {
		dtos[i] = toRoomDTO(room)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRoom returns a single room.
// GET /api/rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := booking.RoomID(chi.URLParam(r, "id"))

	room, err := h.Store.GetRoom(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get room", err)
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "Room not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toRoomDTO(*room))
}

// CreateRoom registers a room.
// POST /api/rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.RoomNumber == "" {
		writeError(w, http.StatusBadRequest, "name and room_number are required", nil)
		return
	}
	if req.Capacity < 1 {
		writeError(w, http.StatusBadRequest, "capacity must be at least 1", nil)
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	roomType := booking.RoomType(req.Type)
	if req.Type == "" {
		roomType = booking.RoomClassroom
	}

	room := booking.Room{
		ID:          booking.RoomID(req.ID),
		Name:        req.Name,
		RoomNumber:  req.RoomNumber,
		Building:    req.Building,
		Capacity:    req.Capacity,
		FloorNumber: req.FloorNumber,
		Type:        roomType,
		Active:      true,
		Description: req.Description,
	}
	if err := h.Store.SaveRoom(r.Context(), room); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create room", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRoomDTO(room))
}

// GetAvailability returns a room's free slots over a time range.
// GET /api/rooms/{id}/availability?start=...&end=...
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id := booking.RoomID(chi.URLParam(r, "id"))

	start, end, ok := parseRange(w, r)
	if !ok {
		return
	}

	slots, err := h.Engine.FreeSlots(r.Context(), id, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]SlotDTO, len(slots))
	for i, slot := range slots {
		dtos[i] = SlotDTO{
			StartTime: slot.Start.Format(booking.TimeLayout),
			EndTime:   slot.End.Format(booking.TimeLayout),
		}
	}

	writeJSON(w, http.StatusOK, AvailabilityDTO{
		RoomID:     string(id),
		RangeStart: start.Format(booking.TimeLayout),
		RangeEnd:   end.Format(booking.TimeLayout),
		FreeSlots:  dtos,
	})
}

// GetUtilization returns a room's occupancy report over a time range.
// GET /api/rooms/{id}/utilization?start=...&end=...
func (h *Handler) GetUtilization(w http.ResponseWriter, r *http.Request) {
	id := booking.RoomID(chi.URLParam(r, "id"))

	start, end, ok := parseRange(w, r)
	if !ok {
		return
	}

	u, err := h.Engine.Utilization(r.Context(), id, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UtilizationDTO{
		RoomID:        string(u.RoomID),
		RangeStart:    u.RangeStart.Format(booking.TimeLayout),
		RangeEnd:      u.RangeEnd.Format(booking.TimeLayout),
		BookedMinutes: u.BookedMinutes,
		FreeMinutes:   u.FreeMinutes,
		TotalMinutes:  u.TotalMinutes,
		Rate:          u.Rate.String(),
	})
}

// =============================================================================
// BOOKING HANDLERS
// =============================================================================

// CreateBooking submits a new booking request.
// POST /api/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.RoomID == "" || req.RequesterID == "" {
		writeError(w, http.StatusBadRequest, "room_id and requester_id are required", nil)
		return
	}
	if req.Purpose == "" {
		writeError(w, http.StatusBadRequest, "purpose is required", nil)
		return
	}

	start, err := time.Parse(booking.TimeLayout, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_time (expected 2006-01-02T15:04:05)", err)
		return
	}
	end, err := time.Parse(booking.TimeLayout, req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_time (expected 2006-01-02T15:04:05)", err)
		return
	}

	b, err := h.Engine.Create(r.Context(),
		booking.RoomID(req.RoomID), booking.UserID(req.RequesterID),
		start, end, req.Purpose)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookingDTO(b))
}

// GetBooking returns a single booking.
// GET /api/bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := booking.BookingID(chi.URLParam(r, "id"))

	b, err := h.Engine.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

// ApproveBooking approves a pending booking.
// POST /api/bookings/{id}/approve
func (h *Handler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Engine.Approve)
}

// RejectBooking rejects a pending booking.
// POST /api/bookings/{id}/reject
func (h *Handler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Engine.Reject)
}

// decide is the shared approve/reject flow: both take a booking id and
// an admin decision body and return the updated booking.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, id booking.BookingID, actor, reason string) (*booking.Booking, error),
) {
	id := booking.BookingID(chi.URLParam(r, "id"))

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	b, err := op(r.Context(), id, req.Actor, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

// CancelBooking cancels a booking on behalf of its requester.
// DELETE /api/bookings/{id}?actor={username}
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := booking.BookingID(chi.URLParam(r, "id"))

	actor := r.URL.Query().Get("actor")
	if actor == "" {
		writeError(w, http.StatusBadRequest, "actor query parameter is required", nil)
		return
	}

	b, err := h.Engine.Cancel(r.Context(), id, actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

// CancelBookingAdmin cancels any booking as an admin override.
// DELETE /api/bookings/{id}/admin
func (h *Handler) CancelBookingAdmin(w http.ResponseWriter, r *http.Request) {
	id := booking.BookingID(chi.URLParam(r, "id"))

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	b, err := h.Engine.CancelByAdmin(r.Context(), id, req.Actor, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

// GetBookingHistory returns a booking's audit trail, newest first.
// GET /api/bookings/{id}/history
func (h *Handler) GetBookingHistory(w http.ResponseWriter, r *http.Request) {
	id := booking.BookingID(chi.URLParam(r, "id"))

	entries, err := h.Engine.History(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]HistoryEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toHistoryEntryDTO(entry)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// CreateUser registers a user.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required", nil)
		return
	}
	if len(req.Roles) == 0 {
		writeError(w, http.StatusBadRequest, "at least one role is required", nil)
		return
	}

	roles := make([]booking.Role, len(req.Roles))
	for i, raw := range req.Roles {
		role := booking.Role(raw)
		switch role {
		case booking.RoleStudent, booking.RoleFaculty, booking.RoleAdmin:
			roles[i] = role
		default:
			writeError(w, http.StatusBadRequest, "Unknown role: "+raw, nil)
			return
		}
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	u := booking.User{
		ID:        booking.UserID(req.ID),
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Roles:     roles,
	}
	if err := h.Store.SaveUser(r.Context(), u); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

// GetUser returns a single user.
// GET /api/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := booking.UserID(chi.URLParam(r, "id"))

	u, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(*u))
}

// GetUserBookings returns a requester's bookings. With ?cancellable=true
// only upcoming PENDING/APPROVED bookings are returned, soonest first.
// GET /api/users/{id}/bookings
func (h *Handler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	id := booking.UserID(chi.URLParam(r, "id"))
	flag := r.URL.Query().Get("cancellable")
	cancellable := flag == "true" || flag == "1"

	bookings, err := h.Engine.BookingsByRequester(r.Context(), id, cancellable)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]BookingDTO, len(bookings))
	for i := range bookings {
		dtos[i] = toBookingDTO(&bookings[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns all active holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListActiveHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, holiday := range holidays {
		dtos[i] = toHolidayDTO(holiday)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday registers a holiday.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	date, err := time.Parse(booking.DateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (expected 2006-01-02)", err)
		return
	}

	holiday := booking.Holiday{
		ID:          booking.HolidayID(uuid.NewString()),
		Date:        date,
		Name:        req.Name,
		Description: req.Description,
		Recurring:   req.Recurring,
		Active:      true,
		CreatedBy:   booking.UserID(req.CreatedBy),
	}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday deactivates a holiday. The record itself is retained.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := booking.HolidayID(chi.URLParam(r, "id"))

	if err := h.Store.DeactivateHoliday(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// ResetDatabase clears all data (dev only).
// POST /api/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

// parseRange reads the start/end query parameters. On failure it writes
// a 400 response and returns ok=false.
func parseRange(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required", nil)
		return
	}

	var err error
	start, err = time.Parse(booking.TimeLayout, startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start (expected 2006-01-02T15:04:05)", err)
		return
	}
	end, err = time.Parse(booking.TimeLayout, endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end (expected 2006-01-02T15:04:05)", err)
		return
	}

	return start, end, true
}

// writeDomainError maps engine errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		conflictErr *booking.ConflictError
		holidayErr  *booking.HolidayRestrictionError
		stateErr    *booking.InvalidStateError
		authErr     *booking.AuthorizationError
	)

	switch {
	case booking.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.As(err, &conflictErr) || errors.Is(err, booking.ErrBookingConflict):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.As(err, &holidayErr) || errors.Is(err, booking.ErrHolidayRestriction):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.As(err, &stateErr) || errors.Is(err, booking.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.As(err, &authErr) || errors.Is(err, booking.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, booking.ErrInvalidTimeRange):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
