package hotel

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/hotel-engine/generic"
)

// Table names. The flat-file backend stores each as <name>.txt.
const (
	TableRooms       = "rooms"
	TableBookings    = "bookings"
	TableAccounts    = "users"
	TableProfiles    = "user_profiles"
	TableAdminSecret = "admin_pass"
	TableBookingSeq  = "booking_seq"
	TableIntents     = "intents"
)

// =============================================================================
// SCHEMAS
// =============================================================================

var RoomSchema = generic.Schema[Room]{
	Name:   TableRooms,
	Fields: 5,
	Greedy: 4,
	Decode: decodeRoom,
	Encode: encodeRoom,
}

// BookingSchema folds surplus delimiters into created_at: the timestamp
// itself contains colons.
var BookingSchema = generic.Schema[Booking]{
	Name:   TableBookings,
	Fields: 8,
	Greedy: 2,
	Decode: decodeBooking,
	Encode: encodeBooking,
}

var AccountSchema = generic.Schema[Account]{
	Name:   TableAccounts,
	Fields: 2,
	Greedy: 1,
	Decode: func(f []string) (Account, error) {
		return Account{Username: f[0], Phone: f[1]}, nil
	},
	Encode: func(a Account) []string { return []string{a.Username, a.Phone} },
}

var ProfileSchema = generic.Schema[Profile]{
	Name:   TableProfiles,
	Fields: 6,
	Greedy: 5,
	Decode: func(f []string) (Profile, error) {
		return Profile{
			Username: f[0],
			FullName: f[1],
			IDNumber: f[2],
			Email:    f[3],
			Address:  f[4],
			Phone:    f[5],
		}, nil
	},
	Encode: func(p Profile) []string {
		return []string{p.Username, p.FullName, p.IDNumber, p.Email, p.Address, p.Phone}
	},
}

// AdminSecretSchema is a single-field table; the whole line is the password.
var AdminSecretSchema = generic.Schema[string]{
	Name:   TableAdminSecret,
	Fields: 1,
	Greedy: 0,
	Decode: func(f []string) (string, error) { return f[0], nil },
	Encode: func(s string) []string { return []string{s} },
}

var bookingSeqSchema = generic.Schema[BookingID]{
	Name:   TableBookingSeq,
	Fields: 1,
	Greedy: 0,
	Decode: func(f []string) (BookingID, error) {
		id, err := strconv.ParseInt(strings.TrimSpace(f[0]), 10, 64)
		if err != nil {
			return 0, generic.Malformed("booking sequence %q", f[0])
		}
		return BookingID(id), nil
	},
	Encode: func(id BookingID) []string { return []string{strconv.FormatInt(int64(id), 10)} },
}

var intentSchema = generic.Schema[Intent]{
	Name:   TableIntents,
	Fields: 1 + 8,
	Greedy: 1 + 2,
	Decode: func(f []string) (Intent, error) {
		b, err := decodeBooking(f[1:])
		if err != nil {
			return Intent{}, err
		}
		return Intent{Op: IntentOp(f[0]), Booking: b}, nil
	},
	Encode: func(in Intent) []string {
		return append([]string{string(in.Op)}, encodeBooking(in.Booking)...)
	},
}

// =============================================================================
// FIELD CODECS
// =============================================================================

func decodeRoom(f []string) (Room, error) {
	number, err := strconv.Atoi(strings.TrimSpace(f[0]))
	if err != nil {
		return Room{}, generic.Malformed("room number %q", f[0])
	}
	price, err := decimal.NewFromString(strings.TrimSpace(f[2]))
	if err != nil {
		return Room{}, generic.Malformed("room price %q", f[2])
	}
	return Room{
		Number:        number,
		Type:          f[1],
		PricePerNight: price,
		Status:        RoomStatus(f[3]),
		Facilities:    splitFacilities(f[4]),
	}, nil
}

func encodeRoom(r Room) []string {
	return []string{
		strconv.Itoa(r.Number),
		r.Type,
		r.PricePerNight.StringFixed(2),
		string(r.Status),
		r.FacilityList(),
	}
}

func splitFacilities(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func decodeBooking(f []string) (Booking, error) {
	room, err := strconv.Atoi(strings.TrimSpace(f[1]))
	if err != nil {
		return Booking{}, generic.Malformed("booking room number %q", f[1])
	}
	total, err := decimal.NewFromString(strings.TrimSpace(f[5]))
	if err != nil {
		return Booking{}, generic.Malformed("booking total %q", f[5])
	}
	id, err := strconv.ParseInt(strings.TrimSpace(f[7]), 10, 64)
	if err != nil {
		return Booking{}, generic.Malformed("booking id %q", f[7])
	}
	return Booking{
		ID:         BookingID(id),
		RoomNumber: room,
		Username:   f[0],
		CreatedAt:  f[2],
		CheckIn:    generic.Date(f[3]),
		CheckOut:   generic.Date(f[4]),
		TotalPrice: total,
		Status:     BookingStatus(f[6]),
	}, nil
}

func encodeBooking(b Booking) []string {
	return []string{
		b.Username,
		strconv.Itoa(b.RoomNumber),
		b.CreatedAt,
		string(b.CheckIn),
		string(b.CheckOut),
		b.TotalPrice.StringFixed(2),
		string(b.Status),
		strconv.FormatInt(int64(b.ID), 10),
	}
}
