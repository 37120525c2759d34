/*
engine.go - Booking lifecycle across the rooms and bookings tables

PURPOSE:
  Engine is the only writer of bookings and of Room.Status. It validates a
  request, appends the booking and then rewrites the rooms table. The two
  writes are not one transaction; an intent row written before them lets
  Recover finish the second write after a crash.

BOOKING STATE MACHINE:
  active --(cancel)--> canceled     (no other transitions)

CREATE SEQUENCE:
  1. Parse dates (InvalidDateFormat)
  2. check-in < check-out (InvalidDateOrder)
  3. check-in not in the past (PastCheckIn)
  4. no overlapping active booking on the room (RoomUnavailable)
  5. profile has full name and id number (IncompleteProfile)
  6. price = nightly price * nights (unknown room prices at 0)
  7. issue id, write intent, append booking, mark room Booked, clear intent

ROOM STATUS:
  Booked means "has an active booking that checks out after today". Cancel
  recomputes it from the remaining bookings instead of forcing Available.
  RefreshRoomStatuses recomputes every room, which clears stays that have
  ended since the last write.

CONCURRENCY:
  One Engine per data directory. create and cancel hold e.mu for their whole
  read-check-write sequence. Reads take no lock.

SEE ALSO:
  - journal.go: Intent rows and Recover
  - rooms.go: Room listing
  - revenue.go: Daily and weekly revenue
*/
package hotel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hotel-engine/generic"
	"go.uber.org/zap"
)

// Engine implements the booking operations.
type Engine struct {
	Rooms    *generic.Table[Room]
	Bookings *generic.Table[Booking]
	Accounts *Accounts

	seq     *generic.Table[BookingID]
	intents *generic.Table[Intent]

	// Now is the clock used for "today" and created_at. Tests pin it.
	Now func() time.Time

	log *zap.Logger
	mu  sync.Mutex
}

// NewEngine binds the engine tables to backend. accounts supplies profile
// lookups for the completeness check.
func NewEngine(backend generic.Backend, accounts *Accounts, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Rooms:    generic.NewTable(backend, RoomSchema, log),
		Bookings: generic.NewTable(backend, BookingSchema, log),
		Accounts: accounts,
		seq:      generic.NewTable(backend, bookingSeqSchema, log),
		intents:  generic.NewTable(backend, intentSchema, log),
		Now:      time.Now,
		log:      log.Named("engine"),
	}
}

func (e *Engine) today() generic.Date { return generic.TodayAt(e.Now()) }

// =============================================================================
// CREATE
// =============================================================================

// CreateBooking reserves roomNumber for [checkInRaw, checkOutRaw) on behalf of
// the session user. Dates may be YYYY-MM-DD or DD/MM/YYYY.
//
// A refusal is a *Rejection. If the booking was written but the room could not
// be updated, the receipt is returned together with an error wrapping
// ErrInconsistent.
func (e *Engine) CreateBooking(ctx context.Context, s Session, roomNumber int, checkInRaw, checkOutRaw string) (Receipt, error) {
	if !s.IsCustomer() {
		return Receipt{}, ErrNotLoggedIn
	}

	checkIn := generic.ParseDate(checkInRaw)
	checkOut := generic.ParseDate(checkOutRaw)
	if checkIn == generic.InvalidDate || checkOut == generic.InvalidDate {
		return Receipt{}, ErrInvalidDateFormat
	}
	if !checkIn.Before(checkOut) {
		return Receipt{}, ErrInvalidDateOrder
	}
	now := e.Now()
	if !generic.IsTodayOrFuture(checkIn, now) {
		return Receipt{}, ErrPastCheckIn
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	available, err := e.IsRoomAvailable(ctx, roomNumber, checkIn, checkOut)
	if err != nil {
		return Receipt{}, err
	}
	if !available {
		e.log.Debug("booking rejected: room taken",
			zap.Int("room", roomNumber),
			zap.Stringer("check_in", checkIn),
			zap.Stringer("check_out", checkOut))
		return Receipt{}, ErrRoomUnavailable
	}

	profile, err := e.Accounts.GetProfile(ctx, s.Username)
	if err != nil {
		return Receipt{}, err
	}
	if !profile.IsComplete() {
		return Receipt{}, ErrIncompleteProfile
	}

	price := decimal.Zero
	room, found, err := e.Rooms.Find(ctx, func(r Room) bool { return r.Number == roomNumber })
	if err != nil {
		return Receipt{}, err
	}
	if found {
		price = room.PricePerNight
	} else {
		e.log.Warn("booking unknown room at zero price", zap.Int("room", roomNumber))
	}

	nights := generic.NightCount(checkIn, checkOut)
	id, err := e.nextID(ctx)
	if err != nil {
		return Receipt{}, err
	}

	booking := Booking{
		ID:         id,
		RoomNumber: roomNumber,
		Username:   s.Username,
		CreatedAt:  now.Local().Format(generic.TimestampLayout),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		TotalPrice: price.Mul(decimal.NewFromInt(int64(nights))),
		Status:     BookingActive,
	}
	intent := Intent{Op: IntentCreate, Booking: booking}

	if err := e.intents.Append(ctx, intent); err != nil {
		return Receipt{}, err
	}
	if err := e.Bookings.Append(ctx, booking); err != nil {
		e.clearIntent(ctx, intent)
		return Receipt{}, err
	}
	receipt := NewReceipt(booking)

	if err := e.setRoomStatus(ctx, roomNumber, RoomBooked); err != nil {
		e.log.Error("booking recorded but room not updated",
			zap.Int64("booking_id", int64(id)),
			zap.Int("room", roomNumber),
			zap.Error(err))
		return receipt, fmt.Errorf("%w: booking %d recorded, room %d status not updated: %v",
			ErrInconsistent, id, roomNumber, err)
	}
	e.clearIntent(ctx, intent)

	e.log.Info("booking created",
		zap.Int64("booking_id", int64(id)),
		zap.String("username", s.Username),
		zap.Int("room", roomNumber),
		zap.Int("nights", nights),
		zap.String("total", booking.TotalPrice.StringFixed(2)))
	return receipt, nil
}

// nextID issues max(last issued, highest id in bookings) + 1 and persists it.
func (e *Engine) nextID(ctx context.Context) (BookingID, error) {
	var last BookingID
	counter, found, err := e.seq.Find(ctx, nil)
	if err != nil {
		return 0, err
	}
	if found {
		last = counter
	}
	for b, err := range e.Bookings.Scan(ctx, nil) {
		if err != nil {
			return 0, err
		}
		last = max(last, b.ID)
	}
	next := last + 1
	if err := e.seq.Replace(ctx, []BookingID{next}); err != nil {
		return 0, err
	}
	return next, nil
}

// =============================================================================
// CANCEL
// =============================================================================

// CancelBooking marks the booking canceled and recomputes its room's status.
// An unknown id is a no-op. Canceling an already canceled booking rewrites
// nothing new.
func (e *Engine) CancelBooking(ctx context.Context, id BookingID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	booking, found, err := e.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		e.log.Debug("cancel of unknown booking ignored", zap.Int64("booking_id", int64(id)))
		return nil
	}

	intent := Intent{Op: IntentCancel, Booking: booking}
	if err := e.intents.Append(ctx, intent); err != nil {
		return err
	}

	kept, err := e.markCanceled(ctx, id)
	if err != nil {
		e.clearIntent(ctx, intent)
		return err
	}

	if err := e.setRoomStatus(ctx, booking.RoomNumber, e.statusFrom(kept, booking.RoomNumber)); err != nil {
		e.log.Error("booking canceled but room not updated",
			zap.Int64("booking_id", int64(id)),
			zap.Int("room", booking.RoomNumber),
			zap.Error(err))
		return fmt.Errorf("%w: booking %d canceled, room %d status not updated: %v",
			ErrInconsistent, id, booking.RoomNumber, err)
	}
	e.clearIntent(ctx, intent)

	e.log.Info("booking canceled",
		zap.Int64("booking_id", int64(id)),
		zap.String("username", booking.Username),
		zap.Int("room", booking.RoomNumber))
	return nil
}

func (e *Engine) markCanceled(ctx context.Context, id BookingID) ([]Booking, error) {
	return e.Bookings.Rewrite(ctx, func(b Booking) (Booking, bool) {
		if b.ID == id {
			b.Status = BookingCanceled
		}
		return b, true
	})
}

// =============================================================================
// AVAILABILITY AND READS
// =============================================================================

// IsRoomAvailable is false iff an active booking on the room overlaps
// [checkIn, checkOut). A missing bookings table means available.
func (e *Engine) IsRoomAvailable(ctx context.Context, roomNumber int, checkIn, checkOut generic.Date) (bool, error) {
	taken, err := e.Bookings.Any(ctx, func(b Booking) bool {
		return b.RoomNumber == roomNumber && b.IsActive() && b.Overlaps(checkIn, checkOut)
	})
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (e *Engine) GetBooking(ctx context.Context, id BookingID) (Booking, bool, error) {
	return e.Bookings.Find(ctx, func(b Booking) bool { return b.ID == id })
}

// UserBookings returns the user's bookings in table order.
func (e *Engine) UserBookings(ctx context.Context, username string) ([]Booking, error) {
	return e.Bookings.All(ctx, func(b Booking) bool { return b.Username == username })
}

// ListBookings returns every booking matching f, in table order.
func (e *Engine) ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error) {
	return e.Bookings.All(ctx, f.Matches)
}

// =============================================================================
// ROOM STATUS
// =============================================================================

func (e *Engine) statusFrom(bookings []Booking, roomNumber int) RoomStatus {
	today := e.today()
	for _, b := range bookings {
		if b.RoomNumber == roomNumber && b.Outstanding(today) {
			return RoomBooked
		}
	}
	return RoomAvailable
}

func (e *Engine) setRoomStatus(ctx context.Context, roomNumber int, status RoomStatus) error {
	_, err := e.Rooms.Rewrite(ctx, func(r Room) (Room, bool) {
		if r.Number == roomNumber {
			r.Status = status
		}
		return r, true
	})
	return err
}

// recomputeRoom sets the room's status from the bookings table.
func (e *Engine) recomputeRoom(ctx context.Context, roomNumber int) error {
	bookings, err := e.RoomBookings(ctx, roomNumber)
	if err != nil {
		return err
	}
	return e.setRoomStatus(ctx, roomNumber, e.statusFrom(bookings, roomNumber))
}

// RoomBookings returns every booking, of any user, on the room.
func (e *Engine) RoomBookings(ctx context.Context, roomNumber int) ([]Booking, error) {
	return e.Bookings.All(ctx, func(b Booking) bool { return b.RoomNumber == roomNumber })
}

// RefreshRoomStatuses recomputes the status of every room and returns how
// many changed.
func (e *Engine) RefreshRoomStatuses(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	today := e.today()
	booked := make(map[int]bool)
	for b, err := range e.Bookings.Scan(ctx, func(b Booking) bool { return b.Outstanding(today) }) {
		if err != nil {
			return 0, err
		}
		booked[b.RoomNumber] = true
	}

	changed := 0
	_, err := e.Rooms.Rewrite(ctx, func(r Room) (Room, bool) {
		want := RoomAvailable
		if booked[r.Number] {
			want = RoomBooked
		}
		if r.Status != want {
			r.Status = want
			changed++
		}
		return r, true
	})
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		e.log.Info("room statuses refreshed", zap.Int("changed", changed))
	}
	return changed, nil
}
