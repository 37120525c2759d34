/*
handlers.go - HTTP API handlers for the hotel engine

PURPOSE:
  Exposes the booking engine and the account store over REST. Handles
  HTTP request/response and JSON, and delegates every rule to the hotel
  package.

ENDPOINTS:
  Accounts:
    POST   /api/accounts                   Sign up
    POST   /api/sessions                   Customer login
    POST   /api/admin/sessions             Admin login
    GET    /api/profile                    Own profile (empty when none)
    PUT    /api/profile                    Save own profile

  Rooms:
    GET    /api/rooms                      List (min_price, max_price, type, facility)
    GET    /api/rooms/{number}/availability  check_in, check_out

  Bookings:
    POST   /api/bookings                   Create, returns the receipt
    GET    /api/bookings                   Own bookings
    POST   /api/bookings/{id}/cancel       Cancel own booking (admin: any)

  Admin:
    GET    /api/admin/bookings             Filter by id, username, from, to
    GET    /api/admin/revenue              Daily and weekly revenue for date
    PUT    /api/admin/password             Change the admin password

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing session or wrong credentials
  - 403: Session lacks the required role
  - 404: Resource not found
  - 409: Conflict (room taken, username taken)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Tokens and session middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/hotel-engine/generic"
	"github.com/warp/hotel-engine/hotel"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *hotel.Engine
	Accounts *hotel.Accounts
	Tokens   *Tokens

	log *zap.Logger
}

// NewHandler creates a handler over the engine and its account store.
func NewHandler(engine *hotel.Engine, tokens *Tokens, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Engine:   engine,
		Accounts: engine.Accounts,
		Tokens:   tokens,
		log:      log.Named("api"),
	}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// SignUp registers a customer account.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.Accounts.SignUp(r.Context(), req.Username, req.Phone, req.ConfirmPhone); err != nil {
		h.writeHotelError(w, err, "Failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

// Login exchanges customer credentials for a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	s, err := h.Accounts.Login(r.Context(), req.Username, req.Phone)
	if err != nil {
		h.writeHotelError(w, err, "Failed to log in")
		return
	}
	h.writeToken(w, s)
}

// AdminLogin exchanges the admin password for a token.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	s, err := h.Accounts.AdminLogin(r.Context(), req.Password)
	if err != nil {
		h.writeHotelError(w, err, "Failed to log in")
		return
	}
	h.writeToken(w, s)
}

func (h *Handler) writeToken(w http.ResponseWriter, s hotel.Session) {
	token, expiresAt, err := h.Tokens.Issue(s)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		Username:  s.Username,
		Admin:     s.Admin,
	})
}

// GetProfile returns the caller's profile. A missing profile is returned
// empty, not as 404.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())

	p, err := h.Accounts.GetProfile(r.Context(), s.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get profile", err)
		return
	}
	p.Username = s.Username
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

// SaveProfile creates or replaces the caller's profile.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())

	var req ProfileRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	p := hotel.Profile{
		Username: s.Username,
		FullName: req.FullName,
		IDNumber: req.IDNumber,
		Email:    req.Email,
		Address:  req.Address,
		Phone:    req.Phone,
	}
	if err := h.Accounts.SaveProfile(r.Context(), p); err != nil {
		h.writeHotelError(w, err, "Failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

// =============================================================================
// ROOM HANDLERS
// =============================================================================

// ListRooms returns rooms cheapest first, optionally filtered.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := hotel.RoomFilter{
		Type:     q.Get("type"),
		Facility: q.Get("facility"),
	}

	var err error
	if filter.MinPrice, err = queryDecimal(q.Get("min_price")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid min_price", err)
		return
	}
	if filter.MaxPrice, err = queryDecimal(q.Get("max_price")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid max_price", err)
		return
	}

	rooms, err := h.Engine.ListRooms(r.Context(), filter)
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

// GetAvailability reports whether a room is free for a stay.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid room number", err)
		return
	}

	checkIn := generic.ParseDate(r.URL.Query().Get("check_in"))
	checkOut := generic.ParseDate(r.URL.Query().Get("check_out"))
	if checkIn == generic.InvalidDate || checkOut == generic.InvalidDate {
		writeRejection(w, hotel.ErrInvalidDateFormat)
		return
	}
	if !checkIn.Before(checkOut) {
		writeRejection(w, hotel.ErrInvalidDateOrder)
		return
	}

	ctx := r.Context()
	if _, found, err := h.Engine.GetRoom(ctx, number); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get room", err)
		return
	} else if !found {
		writeError(w, http.StatusNotFound, "Room not found", nil)
		return
	}

	available, err := h.Engine.IsRoomAvailable(ctx, number, checkIn, checkOut)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check availability", err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityDTO{
		Room:      number,
		CheckIn:   checkIn.String(),
		CheckOut:  checkOut.String(),
		Available: available,
	})
}

// =============================================================================
// BOOKING HANDLERS
// =============================================================================

// CreateBooking books a room for the caller and returns the receipt.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	receipt, err := h.Engine.CreateBooking(r.Context(), SessionFrom(r.Context()), req.RoomNumber, req.CheckIn, req.CheckOut)
	resp := ReceiptResponse{}
	switch {
	case err == nil:
	case errors.Is(err, hotel.ErrInconsistent) && receipt.ID != 0:
		// The booking exists; the room flag is repaired on the next recovery.
		resp.Warning = "Booking recorded; room status will be updated shortly."
	default:
		h.writeHotelError(w, err, "Failed to create booking")
		return
	}

	resp.Booking = toBookingDTO(receipt.Booking)
	resp.Receipt = receipt.String()
	writeJSON(w, http.StatusCreated, resp)
}

// ListMyBookings returns the caller's bookings.
func (h *Handler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Engine.UserBookings(r.Context(), SessionFrom(r.Context()).Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTOs(bookings))
}

// CancelBooking cancels a booking owned by the caller. Admins may cancel any.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid booking id", err)
		return
	}

	ctx := r.Context()
	s := SessionFrom(ctx)
	booking, found, err := h.Engine.GetBooking(ctx, hotel.BookingID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get booking", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Booking not found", nil)
		return
	}
	if !s.Admin && booking.Username != s.Username {
		writeError(w, http.StatusForbidden, "Booking belongs to another user", nil)
		return
	}
	if !booking.IsActive() {
		writeError(w, http.StatusConflict, "Booking is already canceled", nil)
		return
	}

	if err := h.Engine.CancelBooking(ctx, booking.ID); err != nil {
		h.writeHotelError(w, err, "Failed to cancel booking")
		return
	}

	booking.Status = hotel.BookingCanceled
	writeJSON(w, http.StatusOK, toBookingDTO(booking))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ListBookings filters all bookings by id, username substring and creation
// date range.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := hotel.BookingFilter{Username: q.Get("username")}

	if raw := q.Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid id", err)
			return
		}
		filter.ID = hotel.BookingID(id)
	}
	for _, bound := range []struct {
		param string
		dst   *generic.Date
	}{
		{"from", &filter.Created.Start},
		{"to", &filter.Created.End},
	} {
		raw := q.Get(bound.param)
		if raw == "" {
			continue
		}
		d := generic.ParseDate(raw)
		if d == generic.InvalidDate {
			writeRejection(w, hotel.ErrInvalidDateFormat)
			return
		}
		*bound.dst = d
	}

	bookings, err := h.Engine.ListBookings(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTOs(bookings))
}

// GetRevenue returns daily and weekly revenue for ?date= (default today).
func (h *Handler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = generic.TodayAt(h.Engine.Now()).String()
	}

	report, err := h.Engine.Revenue(r.Context(), date)
	if err != nil {
		h.writeHotelError(w, err, "Failed to compute revenue")
		return
	}
	writeJSON(w, http.StatusOK, toRevenueDTO(report))
}

// ChangeAdminPassword replaces the admin password.
func (h *Handler) ChangeAdminPassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.Accounts.ChangeAdminPassword(r.Context(), req.Password, req.Confirm); err != nil {
		h.writeHotelError(w, err, "Failed to change password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

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

func writeRejection(w http.ResponseWriter, rej *hotel.Rejection) {
	writeJSON(w, rejectionStatus(rej), ErrorResponse{Error: rej.Message, Code: string(rej.Code)})
}

func rejectionStatus(rej *hotel.Rejection) int {
	switch {
	case errors.Is(rej, hotel.ErrConflict):
		return http.StatusConflict
	case errors.Is(rej, hotel.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// writeHotelError maps engine and store errors to responses. Rejections are
// shown verbatim; anything else is logged and reported as fallback.
func (h *Handler) writeHotelError(w http.ResponseWriter, err error, fallback string) {
	if rej, ok := hotel.AsRejection(err); ok {
		writeRejection(w, rej)
		return
	}
	if hotel.IsClientError(err) {
		writeError(w, http.StatusBadRequest, "Invalid input", err)
		return
	}
	h.log.Error(fallback, zap.Error(err))
	writeError(w, http.StatusInternalServerError, fallback, err)
}

func queryDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
