/*
handlers_test.go - Tests for the HTTP API

Tests for:
- Sign up, login and admin login
- Profile and booking flow end to end through the router
- Ownership and role checks
- Admin listing, revenue and password change
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hotel-engine/generic/store"
	"github.com/warp/hotel-engine/hotel"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testAPI struct {
	t      *testing.T
	router http.Handler
	engine *hotel.Engine
	mem    *store.Memory
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	mem := store.NewMemory()
	accounts := hotel.NewAccounts(mem, "", nil)
	engine := hotel.NewEngine(mem, accounts, nil)
	engine.Now = func() time.Time { return time.Date(2024, time.May, 20, 10, 0, 0, 0, time.Local) }
	require.NoError(t, hotel.Bootstrap(context.Background(), engine, nil))

	h := NewHandler(engine, NewTokens("test-secret", time.Hour), nil)
	return &testAPI{
		t:      t,
		router: NewRouter(h, []string{"http://localhost:5173"}),
		engine: engine,
		mem:    mem,
	}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// customer signs up, logs in and returns the token.
func (a *testAPI) customer(username, phone string) string {
	a.t.Helper()
	rec := a.do("POST", "/api/accounts", "", SignUpRequest{Username: username, Phone: phone, ConfirmPhone: phone})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do("POST", "/api/sessions", "", LoginRequest{Username: username, Phone: phone})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[TokenResponse](a.t, rec).Token
}

// guest is a customer with a complete profile.
func (a *testAPI) guest(username, phone string) string {
	a.t.Helper()
	token := a.customer(username, phone)
	rec := a.do("PUT", "/api/profile", token, ProfileRequest{FullName: "Guest " + username, IDNumber: "ID-" + username})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return token
}

func (a *testAPI) admin() string {
	a.t.Helper()
	rec := a.do("POST", "/api/admin/sessions", "", AdminLoginRequest{Password: hotel.DefaultAdminPassword})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[TokenResponse](a.t, rec).Token
}

func (a *testAPI) book(token string, room int, in, out string) BookingDTO {
	a.t.Helper()
	rec := a.do("POST", "/api/bookings", token, CreateBookingRequest{RoomNumber: room, CheckIn: in, CheckOut: out})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[ReceiptResponse](a.t, rec).Booking
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestSignUp(t *testing.T) {
	srv := newTestAPI(t)
	srv.customer("bob", "5551234567")

	tests := []struct {
		name   string
		req    SignUpRequest
		status int
		code   string
	}{
		{"taken", SignUpRequest{"bob", "5559999999", "5559999999"}, http.StatusConflict, "username_taken"},
		{"bad username", SignUpRequest{"1bob", "5551234567", "5551234567"}, http.StatusBadRequest, "invalid_username"},
		{"bad phone", SignUpRequest{"carol", "555", "555"}, http.StatusBadRequest, "invalid_phone"},
		{"mismatch", SignUpRequest{"carol", "5551234567", "5551234560"}, http.StatusBadRequest, "phone_mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do("POST", "/api/accounts", "", tt.req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}

	rec := srv.do("POST", "/api/accounts", "", map[string]string{"username": "dave"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "phone is required", decode[ErrorResponse](t, rec).Error)
}

func TestLogin(t *testing.T) {
	srv := newTestAPI(t)
	srv.customer("bob", "5551234567")

	rec := srv.do("POST", "/api/sessions", "", LoginRequest{Username: "bob", Phone: "5551234567"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TokenResponse](t, rec)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "bob", resp.Username)
	assert.False(t, resp.Admin)

	rec = srv.do("POST", "/api/sessions", "", LoginRequest{Username: "bob", Phone: "5550000000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or phone number.", decode[ErrorResponse](t, rec).Error)
}

func TestAuthenticate_BadTokens(t *testing.T) {
	srv := newTestAPI(t)

	rec := srv.do("GET", "/api/profile", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", decode[ErrorResponse](t, rec).Error)

	other := NewTokens("other-secret", time.Hour)
	forged, _, err := other.Issue(hotel.Session{Admin: true})
	require.NoError(t, err)
	rec = srv.do("GET", "/api/admin/bookings", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do("GET", "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "not_logged_in", decode[ErrorResponse](t, rec).Code)
}

func TestTokens_Expiry(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	issuedAt := time.Date(2024, time.May, 20, 10, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issuedAt }

	token, expiresAt, err := tokens.Issue(hotel.Session{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Minute), expiresAt)

	s, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, hotel.Session{Username: "bob"}, s)

	tokens.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

// =============================================================================
// PROFILE
// =============================================================================

func TestProfile(t *testing.T) {
	// GIVEN: A customer without a profile
	// WHEN: Reading, saving invalid and valid profiles
	// THEN: The empty profile reads back incomplete and only valid saves stick

	srv := newTestAPI(t)
	token := srv.customer("bob", "5551234567")

	rec := srv.do("GET", "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[ProfileDTO](t, rec)
	assert.Equal(t, "bob", p.Username)
	assert.False(t, p.Complete)

	rec = srv.do("PUT", "/api/profile", token, ProfileRequest{IDNumber: "X1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "full_name is required", decode[ErrorResponse](t, rec).Error)

	rec = srv.do("PUT", "/api/profile", token, ProfileRequest{FullName: "Bob", IDNumber: "X1", Email: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do("PUT", "/api/profile", token, ProfileRequest{FullName: "Bob", IDNumber: "X1", Address: "Flat 2: Rear"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_field", decode[ErrorResponse](t, rec).Code)

	rec = srv.do("PUT", "/api/profile", token, ProfileRequest{
		FullName: "Bob Builder",
		IDNumber: "X1",
		Email:    "bob@example.com",
		Phone:    "5551234567",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do("GET", "/api/profile", token, nil)
	p = decode[ProfileDTO](t, rec)
	assert.Equal(t, "Bob Builder", p.FullName)
	assert.True(t, p.Complete)
}

// =============================================================================
// ROOMS
// =============================================================================

func TestListRooms(t *testing.T) {
	srv := newTestAPI(t)

	rec := srv.do("GET", "/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := decode[[]RoomDTO](t, rec)
	require.Len(t, rooms, 5)
	assert.Equal(t, 101, rooms[0].Number)
	assert.Equal(t, "100.00", rooms[0].PricePerNight)
	assert.Equal(t, 103, rooms[4].Number)

	rec = srv.do("GET", "/api/rooms?facility=Balcony&max_price=150", "", nil)
	rooms = decode[[]RoomDTO](t, rec)
	require.Len(t, rooms, 1)
	assert.Equal(t, 104, rooms[0].Number)

	rec = srv.do("GET", "/api/rooms?min_price=cheap", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailability(t *testing.T) {
	srv := newTestAPI(t)
	token := srv.guest("bob", "5551234567")
	srv.book(token, 101, "2024-06-01", "2024-06-03")

	check := func(path string) AvailabilityDTO {
		rec := srv.do("GET", path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[AvailabilityDTO](t, rec)
	}
	assert.False(t, check("/api/rooms/101/availability?check_in=2024-06-02&check_out=2024-06-04").Available)
	assert.True(t, check("/api/rooms/101/availability?check_in=03/06/2024&check_out=2024-06-04").Available)

	rec := srv.do("GET", "/api/rooms/999/availability?check_in=2024-06-01&check_out=2024-06-02", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do("GET", "/api/rooms/101/availability?check_in=soon&check_out=2024-06-02", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_date_format", decode[ErrorResponse](t, rec).Code)

	rec = srv.do("GET", "/api/rooms/101/availability?check_in=2024-06-02&check_out=2024-06-02", "", nil)
	assert.Equal(t, "invalid_date_order", decode[ErrorResponse](t, rec).Code)
}

// =============================================================================
// BOOKINGS
// =============================================================================

func TestBookingFlow(t *testing.T) {
	// GIVEN: A signed-up customer
	// WHEN: Booking before and after completing the profile, then canceling
	// THEN: The profile gate applies, the receipt is priced and cancel frees the room

	srv := newTestAPI(t)
	token := srv.customer("bob", "5551234567")
	req := CreateBookingRequest{RoomNumber: 101, CheckIn: "2024-06-01", CheckOut: "2024-06-03"}

	rec := srv.do("POST", "/api/bookings", token, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "incomplete_profile", decode[ErrorResponse](t, rec).Code)

	rec = srv.do("PUT", "/api/profile", token, ProfileRequest{FullName: "Bob", IDNumber: "X1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do("POST", "/api/bookings", token, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[ReceiptResponse](t, rec)
	assert.Equal(t, int64(1), created.Booking.ID)
	assert.Equal(t, 2, created.Booking.Nights)
	assert.Equal(t, "200.00", created.Booking.TotalPrice)
	assert.Equal(t, "active", created.Booking.Status)
	assert.Empty(t, created.Warning)
	assert.True(t, strings.HasPrefix(created.Receipt, "========== BOOKING RECEIPT =========="))

	rec = srv.do("POST", "/api/bookings", token, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "room_unavailable", decode[ErrorResponse](t, rec).Code)

	rec = srv.do("GET", "/api/bookings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]BookingDTO](t, rec), 1)

	rec = srv.do("POST", "/api/bookings/1/cancel", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "canceled", decode[BookingDTO](t, rec).Status)

	rec = srv.do("POST", "/api/bookings/1/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do("POST", "/api/bookings", token, req)
	assert.Equal(t, http.StatusCreated, rec.Code, "dates free again")
}

func TestCreateBooking_Rejections(t *testing.T) {
	srv := newTestAPI(t)
	token := srv.guest("bob", "5551234567")

	tests := []struct {
		name   string
		token  string
		req    any
		status int
		code   string
	}{
		{"anonymous", "", CreateBookingRequest{101, "2024-06-01", "2024-06-03"}, http.StatusUnauthorized, "not_logged_in"},
		{"bad date", token, CreateBookingRequest{101, "June", "2024-06-03"}, http.StatusBadRequest, "invalid_date_format"},
		{"order", token, CreateBookingRequest{101, "2024-06-03", "2024-06-01"}, http.StatusBadRequest, "invalid_date_order"},
		{"past", token, CreateBookingRequest{101, "2024-05-01", "2024-05-03"}, http.StatusBadRequest, "past_check_in"},
		{"missing room", token, map[string]string{"check_in": "2024-06-01", "check_out": "2024-06-03"}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do("POST", "/api/bookings", tt.token, tt.req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestCreateBooking_InconsistentWarns(t *testing.T) {
	srv := newTestAPI(t)
	token := srv.guest("bob", "5551234567")
	srv.mem.FailWrites[hotel.TableRooms] = true

	rec := srv.do("POST", "/api/bookings", token, CreateBookingRequest{101, "2024-06-01", "2024-06-03"})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[ReceiptResponse](t, rec)
	assert.NotEmpty(t, resp.Warning)
	assert.Equal(t, int64(1), resp.Booking.ID)
}

func TestCancelBooking_Ownership(t *testing.T) {
	// GIVEN: bob's booking
	// WHEN: carol, an unknown id and the admin try to cancel
	// THEN: carol is refused, the unknown id is 404, the admin succeeds

	srv := newTestAPI(t)
	bob := srv.guest("bob", "5551234567")
	carol := srv.guest("carol", "5557654321")
	booking := srv.book(bob, 102, "2024-06-01", "2024-06-03")

	rec := srv.do("POST", "/api/bookings/1/cancel", carol, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do("POST", "/api/bookings/42/cancel", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do("POST", "/api/bookings/abc/cancel", bob, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do("POST", "/api/bookings/1/cancel", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do("POST", "/api/bookings/1/cancel", srv.admin(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.ID, decode[BookingDTO](t, rec).ID)

	room, _, err := srv.engine.GetRoom(context.Background(), 102)
	require.NoError(t, err)
	assert.Equal(t, hotel.RoomAvailable, room.Status)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	srv := newTestAPI(t)
	customer := srv.customer("bob", "5551234567")

	rec := srv.do("GET", "/api/admin/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do("GET", "/api/admin/bookings", customer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do("POST", "/api/admin/sessions", "", AdminLoginRequest{Password: "guess"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_admin_password", decode[ErrorResponse](t, rec).Code)

	rec = srv.do("GET", "/api/admin/bookings", srv.admin(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminListBookings(t *testing.T) {
	srv := newTestAPI(t)
	srv.mem.Seed(hotel.TableBookings,
		"alice:101:2024-05-01 09:00:00:2024-06-01:2024-06-02:100.00:active:1",
		"alicia:102:2024-05-03 09:00:00:2024-06-01:2024-06-02:150.00:canceled:2",
		"bob:103:2024-05-05 09:00:00:2024-06-01:2024-06-02:300.00:active:3")
	admin := srv.admin()

	ids := func(query string) []int64 {
		rec := srv.do("GET", "/api/admin/bookings"+query, admin, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []int64
		for _, b := range decode[[]BookingDTO](t, rec) {
			out = append(out, b.ID)
		}
		return out
	}

	assert.Equal(t, []int64{1, 2, 3}, ids(""))
	assert.Equal(t, []int64{1, 2}, ids("?username=ali"))
	assert.Equal(t, []int64{3}, ids("?id=3"))
	assert.Equal(t, []int64{2}, ids("?from=02/05/2024&to=2024-05-04"))

	rec := srv.do("GET", "/api/admin/bookings?from=later", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRevenue(t *testing.T) {
	srv := newTestAPI(t)
	bob := srv.guest("bob", "5551234567")
	srv.book(bob, 101, "2024-06-01", "2024-06-03")
	srv.book(bob, 103, "2024-06-01", "2024-06-02")
	admin := srv.admin()

	rec := srv.do("GET", "/api/admin/revenue", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[RevenueDTO](t, rec)
	assert.Equal(t, "2024-05-20", report.Date)
	assert.Equal(t, "500.00", report.Daily)
	assert.Equal(t, "2024-05-20", report.WeekStart)
	assert.Equal(t, "2024-05-26", report.WeekEnd)
	assert.Equal(t, "500.00", report.Weekly)
	assert.Len(t, report.ByDay, 7)

	rec = srv.do("GET", "/api/admin/revenue?date=2024-05-21", admin, nil)
	report = decode[RevenueDTO](t, rec)
	assert.Equal(t, "0.00", report.Daily)
	assert.Equal(t, "500.00", report.Weekly)

	rec = srv.do("GET", "/api/admin/revenue?date=someday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeAdminPassword(t *testing.T) {
	srv := newTestAPI(t)
	admin := srv.admin()

	rec := srv.do("PUT", "/api/admin/password", admin, ChangePasswordRequest{Password: "abc", Confirm: "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password_too_short", decode[ErrorResponse](t, rec).Code)

	rec = srv.do("PUT", "/api/admin/password", admin, ChangePasswordRequest{Password: "newsecret", Confirm: "newsecret"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do("POST", "/api/admin/sessions", "", AdminLoginRequest{Password: hotel.DefaultAdminPassword})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = srv.do("POST", "/api/admin/sessions", "", AdminLoginRequest{Password: "newsecret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[TokenResponse](t, rec).Admin)
}
