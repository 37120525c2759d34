/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the hotel record types from the external API contract. Prices and revenue
  are strings with two decimals so no float rounding reaches the client.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Request types carry go-playground/validator tags for presence and basic
  shape. Business rules (username shape, date order, availability) stay in
  the hotel package so their messages are the same whatever the front end.

SEE ALSO:
  - handlers.go: Uses these types
  - validate.go: Tag validation and messages
*/
package api

import (
	"time"

	"github.com/warp/hotel-engine/hotel"
)

// =============================================================================
// ACCOUNTS AND SESSIONS
// =============================================================================

type SignUpRequest struct {
	Username     string `json:"username" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	ConfirmPhone string `json:"confirm_phone" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

type AdminLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"confirm" validate:"required"`
}

// TokenResponse is returned by both login endpoints.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username,omitempty"`
	Admin     bool      `json:"admin"`
}

// =============================================================================
// PROFILES
// =============================================================================

type ProfileRequest struct {
	FullName string `json:"full_name" validate:"required,max=100"`
	IDNumber string `json:"id_number" validate:"required,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Address  string `json:"address" validate:"max=200"`
	Phone    string `json:"phone" validate:"omitempty,numeric,min=10,max=15"`
}

type ProfileDTO struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	IDNumber string `json:"id_number"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Complete bool   `json:"complete"`
}

func toProfileDTO(p hotel.Profile) ProfileDTO {
	return ProfileDTO{
		Username: p.Username,
		FullName: p.FullName,
		IDNumber: p.IDNumber,
		Email:    p.Email,
		Address:  p.Address,
		Phone:    p.Phone,
		Complete: p.IsComplete(),
	}
}

// =============================================================================
// ROOMS
// =============================================================================

type RoomDTO struct {
	Number        int      `json:"number"`
	Type          string   `json:"type"`
	PricePerNight string   `json:"price_per_night"`
	Status        string   `json:"status"`
	Facilities    []string `json:"facilities"`
}

func toRoomDTO(r hotel.Room) RoomDTO {
	facilities := r.Facilities
	if facilities == nil {
		facilities = []string{}
	}
	return RoomDTO{
		Number:        r.Number,
		Type:          r.Type,
		PricePerNight: r.PricePerNight.StringFixed(2),
		Status:        string(r.Status),
		Facilities:    facilities,
	}
}

type AvailabilityDTO struct {
	Room      int    `json:"room"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Available bool   `json:"available"`
}

// =============================================================================
// BOOKINGS
// =============================================================================

type CreateBookingRequest struct {
	RoomNumber int    `json:"room_number" validate:"required,gt=0"`
	CheckIn    string `json:"check_in" validate:"required"`
	CheckOut   string `json:"check_out" validate:"required"`
}

type BookingDTO struct {
	ID         int64  `json:"id"`
	RoomNumber int    `json:"room_number"`
	Username   string `json:"username"`
	CreatedAt  string `json:"created_at"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Nights     int    `json:"nights"`
	TotalPrice string `json:"total_price"`
	Status     string `json:"status"`
}

func toBookingDTO(b hotel.Booking) BookingDTO {
	return BookingDTO{
		ID:         int64(b.ID),
		RoomNumber: b.RoomNumber,
		Username:   b.Username,
		CreatedAt:  b.CreatedAt,
		CheckIn:    b.CheckIn.String(),
		CheckOut:   b.CheckOut.String(),
		Nights:     b.Nights(),
		TotalPrice: b.TotalPrice.StringFixed(2),
		Status:     string(b.Status),
	}
}

func toBookingDTOs(bookings []hotel.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = toBookingDTO(b)
	}
	return dtos
}

// ReceiptResponse is returned when a booking is created.
type ReceiptResponse struct {
	Booking BookingDTO `json:"booking"`
	Receipt string     `json:"receipt"`
	Warning string     `json:"warning,omitempty"`
}

// =============================================================================
// REVENUE
// =============================================================================

type RevenueDTO struct {
	Date      string            `json:"date"`
	Daily     string            `json:"daily"`
	WeekStart string            `json:"week_start"`
	WeekEnd   string            `json:"week_end"`
	Weekly    string            `json:"weekly"`
	ByDay     map[string]string `json:"by_day"`
}

func toRevenueDTO(r hotel.RevenueReport) RevenueDTO {
	byDay := make(map[string]string, len(r.ByDay))
	for d, v := range r.ByDay {
		byDay[d.String()] = v.StringFixed(2)
	}
	return RevenueDTO{
		Date:      r.Date.String(),
		Daily:     r.Daily.StringFixed(2),
		WeekStart: r.Week.Start.String(),
		WeekEnd:   r.Week.End.String(),
		Weekly:    r.Weekly.StringFixed(2),
		ByDay:     byDay,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
