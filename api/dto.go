/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Booking:
    BookingDTO, CreateBookingRequest, DecisionRequest

  Availability:
    SlotDTO, AvailabilityDTO, UtilizationDTO

  History:
    HistoryEntryDTO

  Directory:
    RoomDTO, CreateRoomRequest, UserDTO, CreateUserRequest,
    HolidayDTO, CreateHolidayRequest

TIME ENCODING:
  Instants cross the wire as timezone-naive `2006-01-02T15:04:05`
  strings, the same layout the store persists. Dates use `2006-01-02`.

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - booking/types.go: Domain model
*/
package api

import (
	"github.com/campushub/roombook/booking"
)

// =============================================================================
// BOOKING TYPES
// =============================================================================

// BookingDTO represents a booking in API responses.
type BookingDTO struct {
	ID              string `json:"id"`
	RoomID          string `json:"room_id"`
	RequesterID     string `json:"requester_id"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Purpose         string `json:"purpose"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	ApprovedBy      string `json:"approved_by,omitempty"`
	ApprovedAt      string `json:"approved_at,omitempty"`
	CancelledBy     string `json:"cancelled_by,omitempty"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// CreateBookingRequest is the request to create a booking.
type CreateBookingRequest struct {
	RoomID      string `json:"room_id"`
	RequesterID string `json:"requester_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Purpose     string `json:"purpose"`
}

// DecisionRequest carries an approval, rejection or admin cancellation.
// Actor is the username of the admin making the decision.
type DecisionRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// =============================================================================
// AVAILABILITY TYPES
// =============================================================================

// SlotDTO is one free interval in an availability response.
type SlotDTO struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// AvailabilityDTO is the free-slot listing for a room over a range.
type AvailabilityDTO struct {
	RoomID     string    `json:"room_id"`
	RangeStart string    `json:"range_start"`
	RangeEnd   string    `json:"range_end"`
	FreeSlots  []SlotDTO `json:"free_slots"`
}

// UtilizationDTO is the occupancy report for a room over a range.
type UtilizationDTO struct {
	RoomID        string `json:"room_id"`
	RangeStart    string `json:"range_start"`
	RangeEnd      string `json:"range_end"`
	BookedMinutes int64  `json:"booked_minutes"`
	FreeMinutes   int64  `json:"free_minutes"`
	TotalMinutes  int64  `json:"total_minutes"`
	Rate          string `json:"rate"`
}

// =============================================================================
// HISTORY TYPES
// =============================================================================

// HistoryEntryDTO is one audit trail entry in API responses.
type HistoryEntryDTO struct {
	ID        string  `json:"id"`
	BookingID string  `json:"booking_id"`
	Action    string  `json:"action"`
	ActorID   string  `json:"actor_id"`
	OldStatus *string `json:"old_status"`
	NewStatus string  `json:"new_status"`
	Reason    string  `json:"reason,omitempty"`
	At        string  `json:"at"`
}

// =============================================================================
// DIRECTORY TYPES
// =============================================================================

// RoomDTO represents a room in API responses.
type RoomDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RoomNumber  string `json:"room_number"`
	Building    string `json:"building,omitempty"`
	Capacity    int    `json:"capacity"`
	FloorNumber int    `json:"floor_number,omitempty"`
	Type        string `json:"type"`
	Active      bool   `json:"active"`
	Description string `json:"description,omitempty"`
}

// CreateRoomRequest is the request to register a room.
type CreateRoomRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RoomNumber  string `json:"room_number"`
	Building    string `json:"building"`
	Capacity    int    `json:"capacity"`
	FloorNumber int    `json:"floor_number"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Roles     []string `json:"roles"`
}

// CreateUserRequest is the request to register a user.
type CreateUserRequest struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`
}

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Recurring   bool   `json:"recurring"`
	Active      bool   `json:"active"`
}

// CreateHolidayRequest is the request to register a holiday.
type CreateHolidayRequest struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Recurring   bool   `json:"recurring"`
	CreatedBy   string `json:"created_by"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toBookingDTO(b *booking.Booking) BookingDTO {
	dto := BookingDTO{
		ID:              string(b.ID),
		RoomID:          string(b.RoomID),
		RequesterID:     string(b.RequesterID),
		StartTime:       b.Start.Format(booking.TimeLayout),
		EndTime:         b.End.Format(booking.TimeLayout),
		Purpose:         b.Purpose,
		Status:          string(b.Status),
		RejectionReason: b.RejectionReason,
		ApprovedBy:      string(b.ApprovedBy),
		CancelledBy:     string(b.CancelledBy),
		CreatedAt:       b.CreatedAt.Format(booking.TimeLayout),
		UpdatedAt:       b.UpdatedAt.Format(booking.TimeLayout),
	}
	if b.ApprovedAt != nil {
		dto.ApprovedAt = b.ApprovedAt.Format(booking.TimeLayout)
	}
	if b.CancelledAt != nil {
		dto.CancelledAt = b.CancelledAt.Format(booking.TimeLayout)
	}
	return dto
}

func toHistoryEntryDTO(e booking.HistoryEntry) HistoryEntryDTO {
	dto := HistoryEntryDTO{
		ID:        e.ID,
		BookingID: string(e.BookingID),
		Action:    string(e.Action),
		ActorID:   string(e.ActorID),
		NewStatus: string(e.NewStatus),
		Reason:    e.Reason,
		At:        e.At.Format(booking.TimeLayout),
	}
	if e.OldStatus != nil {
		old := string(*e.OldStatus)
		dto.OldStatus = &old
	}
	return dto
}

func toRoomDTO(room booking.Room) RoomDTO {
	return RoomDTO{
		ID:          string(room.ID),
		Name:        room.Name,
		RoomNumber:  room.RoomNumber,
		Building:    room.Building,
		Capacity:    room.Capacity,
		FloorNumber: room.FloorNumber,
		Type:        string(room.Type),
		Active:      room.Active,
		Description: room.Description,
	}
}

func toUserDTO(u booking.User) UserDTO {
	roles := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		roles[i] = string(role)
	}
	return UserDTO{
		ID:        string(u.ID),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     roles,
	}
}

func toHolidayDTO(h booking.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:          string(h.ID),
		Date:        h.Date.Format(booking.DateLayout),
		Name:        h.Name,
		Description: h.Description,
		Recurring:   h.Recurring,
		Active:      h.Active,
	}
}
