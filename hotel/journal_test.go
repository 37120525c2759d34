package hotel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hotel-engine/generic"
	"github.com/warp/hotel-engine/hotel"
)

// =============================================================================
// INTERRUPTED WRITES
// =============================================================================

func TestCreateBooking_RoomWriteFails(t *testing.T) {
	// GIVEN: The rooms table refuses writes
	// WHEN: alice books room 101
	// THEN: The booking is recorded, the receipt comes back with ErrInconsistent
	//       and the intent stays for Recover

	e, mem := newTestEngine(t)
	ctx := context.Background()
	mem.FailWrites[hotel.TableRooms] = true

	receipt, err := e.CreateBooking(ctx, alice, 101, "2024-06-01", "2024-06-03")

	require.ErrorIs(t, err, hotel.ErrInconsistent)
	assert.Equal(t, hotel.BookingID(1), receipt.ID)
	assert.Len(t, mem.Raw(hotel.TableBookings), 1)
	assert.Len(t, mem.Raw(hotel.TableIntents), 1)
	assert.Equal(t, hotel.RoomAvailable, room(t, e, 101).Status)
	assert.False(t, available(t, e, 101, "2024-06-01", "2024-06-03"), "the booking holds the dates anyway")

	// WHEN: The disk recovers and Recover runs
	delete(mem.FailWrites, hotel.TableRooms)
	n, err := e.Recover(ctx)

	// THEN: The room is marked and the journal is empty
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, hotel.RoomBooked, room(t, e, 101).Status)
	assert.Empty(t, mem.Raw(hotel.TableIntents))
}

func TestCancelBooking_RoomWriteFails(t *testing.T) {
	e, mem := newTestEngine(t)
	ctx := context.Background()
	receipt := book(t, e, alice, 101, "2024-06-01", "2024-06-03")
	mem.FailWrites[hotel.TableRooms] = true

	err := e.CancelBooking(ctx, receipt.ID)

	require.ErrorIs(t, err, hotel.ErrInconsistent)
	b, _, err := e.GetBooking(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, hotel.BookingCanceled, b.Status)
	assert.Equal(t, hotel.RoomBooked, room(t, e, 101).Status, "stale until recovered")

	delete(mem.FailWrites, hotel.TableRooms)
	n, err := e.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, hotel.RoomAvailable, room(t, e, 101).Status)
	assert.Empty(t, mem.Raw(hotel.TableIntents))
}

func TestCreateBooking_BookingWriteFails(t *testing.T) {
	e, mem := newTestEngine(t)
	mem.FailWrites[hotel.TableBookings] = true

	_, err := e.CreateBooking(context.Background(), alice, 101, "2024-06-01", "2024-06-03")

	assert.True(t, generic.IsIO(err))
	assert.False(t, hotel.IsClientError(err))
	assert.Empty(t, mem.Raw(hotel.TableBookings))
	assert.Empty(t, mem.Raw(hotel.TableIntents), "intent withdrawn")
	assert.Equal(t, hotel.RoomAvailable, room(t, e, 101).Status)
}

func TestCancelBooking_BookingWriteFails(t *testing.T) {
	e, mem := newTestEngine(t)
	ctx := context.Background()
	receipt := book(t, e, alice, 101, "2024-06-01", "2024-06-03")
	mem.FailWrites[hotel.TableBookings] = true

	err := e.CancelBooking(ctx, receipt.ID)

	assert.True(t, generic.IsIO(err))
	assert.NotErrorIs(t, err, hotel.ErrInconsistent)
	b, _, err := e.GetBooking(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, hotel.BookingActive, b.Status)
	assert.Empty(t, mem.Raw(hotel.TableIntents))
}

// =============================================================================
// RECOVER
// =============================================================================

func TestRecover_NothingPending(t *testing.T) {
	e, mem := newTestEngine(t)

	n, err := e.Recover(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	exists, err := mem.Exists(context.Background(), hotel.TableIntents)
	require.NoError(t, err)
	assert.False(t, exists, "no journal is created when there is nothing to replay")
}

func TestRecover_DiscardsCreateWithoutBooking(t *testing.T) {
	// GIVEN: A create intent whose booking was never appended
	// WHEN: Recovering
	// THEN: No booking appears and the room stays Available

	e, mem := newTestEngine(t)
	mem.Seed(hotel.TableIntents,
		"create:alice:101:2024-05-20 10:00:00:2024-06-01:2024-06-03:200.00:active:7")

	n, err := e.Recover(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, mem.Raw(hotel.TableBookings))
	assert.Equal(t, hotel.RoomAvailable, room(t, e, 101).Status)
	assert.Empty(t, mem.Raw(hotel.TableIntents))
}

func TestRecover_ReappliesCancel(t *testing.T) {
	// GIVEN: A cancel intent whose bookings rewrite never happened
	// WHEN: Recovering
	// THEN: The booking is canceled and the room is recomputed

	e, mem := newTestEngine(t)
	line := "alice:101:2024-05-20 10:00:00:2024-06-01:2024-06-03:200.00:active:1"
	mem.Seed(hotel.TableBookings, line)
	mem.Seed(hotel.TableRooms, "101:Single:100.00:Booked:WiFi,TV,AC")
	mem.Seed(hotel.TableIntents, "cancel:"+line)

	n, err := e.Recover(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t,
		[]string{"alice:101:2024-05-20 10:00:00:2024-06-01:2024-06-03:200.00:canceled:1"},
		mem.Raw(hotel.TableBookings))
	assert.Equal(t, hotel.RoomAvailable, room(t, e, 101).Status)
}

func TestRecover_IsIdempotent(t *testing.T) {
	e, mem := newTestEngine(t)
	ctx := context.Background()
	mem.FailWrites[hotel.TableRooms] = true
	_, err := e.CreateBooking(ctx, alice, 102, "2024-06-01", "2024-06-03")
	require.ErrorIs(t, err, hotel.ErrInconsistent)
	delete(mem.FailWrites, hotel.TableRooms)

	// The journal outlives a failed replay.
	intents := mem.Raw(hotel.TableIntents)
	_, err = e.Recover(ctx)
	require.NoError(t, err)
	mem.Seed(hotel.TableIntents, intents...)

	n, err := e.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, mem.Raw(hotel.TableBookings), 1)
	assert.Equal(t, hotel.RoomBooked, room(t, e, 102).Status)
}

func TestRecover_SkipsUnknownOp(t *testing.T) {
	e, mem := newTestEngine(t)
	mem.Seed(hotel.TableIntents,
		"rebook:alice:101:2024-05-20 10:00:00:2024-06-01:2024-06-03:200.00:active:1")

	n, err := e.Recover(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, mem.Raw(hotel.TableIntents))
	assert.Equal(t, hotel.RoomAvailable, room(t, e, 101).Status)
}
