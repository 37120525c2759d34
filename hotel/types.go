/*
Package hotel implements rooms, bookings and accounts on top of the generic
record store.

PURPOSE:
  Owns the hotel record types, their on-disk layouts, the validation rules,
  the booking engine (create, cancel, revenue) and the account/profile store.
  Every table is a generic.Table; there is no database engine and no shared
  transaction between tables.

TABLES:
  rooms          room_number:type:price:status:facilities
  bookings       username:room_number:created_at:check_in:check_out:total_price:status:booking_id
  users          username:phone
  user_profiles  username:full_name:id_number:email:address:phone
  admin_pass     password
  booking_seq    last issued booking id
  intents        op + booking fields of an unfinished two-table write

SEE ALSO:
  - engine.go: Booking lifecycle and cross-table consistency
  - accounts.go: Accounts, profiles and the admin secret
  - codec.go: Line layouts
*/
package hotel

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/hotel-engine/generic"
)

// =============================================================================
// ROOM
// =============================================================================

type RoomStatus string

const (
	RoomAvailable RoomStatus = "Available"
	RoomBooked    RoomStatus = "Booked"
)

// Room is one row of the rooms table. Rooms are seeded at bootstrap and never
// deleted; only Status changes, and only through the Engine.
type Room struct {
	Number        int
	Type          string
	PricePerNight decimal.Decimal
	Status        RoomStatus
	Facilities    []string
}

// FacilityList returns the comma-separated facilities as stored.
func (r Room) FacilityList() string { return strings.Join(r.Facilities, ",") }

// HasFacility matches a substring anywhere in the facility list, so "Meal"
// matches "Meal Service".
func (r Room) HasFacility(sub string) bool {
	return strings.Contains(r.FacilityList(), sub)
}

// =============================================================================
// BOOKING
// =============================================================================

type BookingStatus string

const (
	BookingActive   BookingStatus = "active"
	BookingCanceled BookingStatus = "canceled" // terminal
)

type BookingID int64

// Booking is one row of the bookings table. Rows are never deleted; the only
// mutation is Status flipping from active to canceled.
type Booking struct {
	ID         BookingID
	RoomNumber int
	Username   string
	CreatedAt  string // generic.TimestampLayout, local time
	CheckIn    generic.Date
	CheckOut   generic.Date
	TotalPrice decimal.Decimal
	Status     BookingStatus
}

func (b Booking) IsActive() bool { return b.Status == BookingActive }

// CreatedOn is the date portion (first 10 characters) of CreatedAt.
func (b Booking) CreatedOn() generic.Date {
	if len(b.CreatedAt) < 10 {
		return generic.Date(b.CreatedAt)
	}
	return generic.Date(b.CreatedAt[:10])
}

func (b Booking) Nights() int { return generic.NightCount(b.CheckIn, b.CheckOut) }

// Overlaps reports whether [checkIn, checkOut) shares a night with this stay.
func (b Booking) Overlaps(checkIn, checkOut generic.Date) bool {
	return generic.Overlaps(checkIn, checkOut, b.CheckIn, b.CheckOut)
}

// Outstanding is true for an active booking whose check-out is after today.
func (b Booking) Outstanding(today generic.Date) bool {
	return b.IsActive() && b.CheckOut.After(today)
}

// =============================================================================
// ACCOUNT, PROFILE, SESSION
// =============================================================================

// Account is a registered customer. Immutable after registration.
type Account struct {
	Username string
	Phone    string
}

// Profile holds the guest details required before booking. One per username.
type Profile struct {
	Username string
	FullName string
	IDNumber string
	Email    string
	Address  string
	Phone    string
}

// IsComplete reports whether the profile has what a booking needs.
func (p Profile) IsComplete() bool {
	return p.FullName != "" && p.IDNumber != ""
}

// Session identifies the caller of an operation. The front end owns it and
// passes it explicitly; nothing in this package keeps a current user.
type Session struct {
	Username string
	Admin    bool
}

func (s Session) IsCustomer() bool { return s.Username != "" }

// =============================================================================
// FILTERS
// =============================================================================

// RoomFilter narrows a room listing. Zero prices and empty strings do not filter.
type RoomFilter struct {
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	Type     string // exact match
	Facility string // substring of the facility list
}

func (f RoomFilter) Matches(r Room) bool {
	if f.MinPrice.IsPositive() && r.PricePerNight.LessThan(f.MinPrice) {
		return false
	}
	if f.MaxPrice.IsPositive() && r.PricePerNight.GreaterThan(f.MaxPrice) {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Facility != "" && !r.HasFacility(f.Facility) {
		return false
	}
	return true
}

// BookingFilter narrows the admin booking listing.
type BookingFilter struct {
	ID       BookingID      // 0 = any
	Username string         // substring
	Created  generic.Period // on the creation date, open bounds allowed
}

func (f BookingFilter) Matches(b Booking) bool {
	if f.ID != 0 && b.ID != f.ID {
		return false
	}
	if f.Username != "" && !strings.Contains(b.Username, f.Username) {
		return false
	}
	return f.Created.Contains(b.CreatedOn())
}
