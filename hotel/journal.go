package hotel

import (
	"context"

	"go.uber.org/zap"
)

// =============================================================================
// INTENT JOURNAL - Pending two-table writes
// =============================================================================

type IntentOp string

const (
	IntentCreate IntentOp = "create"
	IntentCancel IntentOp = "cancel"
)

// Intent is written before a create or cancel touches bookings and rooms, and
// removed once both writes succeed. A row that survives a restart marks an
// operation whose second write may be missing.
type Intent struct {
	Op      IntentOp
	Booking Booking
}

// clearIntent drops the intent. A failure leaves the row for Recover, which
// is idempotent, so it is only logged.
func (e *Engine) clearIntent(ctx context.Context, in Intent) {
	_, err := e.intents.Rewrite(ctx, func(other Intent) (Intent, bool) {
		return other, !(other.Op == in.Op && other.Booking.ID == in.Booking.ID)
	})
	if err != nil {
		e.log.Warn("intent not cleared",
			zap.String("op", string(in.Op)),
			zap.Int64("booking_id", int64(in.Booking.ID)),
			zap.Error(err))
	}
}

// Recover completes the intents left by an interrupted create or cancel and
// returns how many it replayed.
//
// The booking append is the commit point of a create: if the booking row is
// present the room is marked from the bookings table, and if it is absent the
// create never happened and only the intent is discarded. A cancel is applied
// again before its room is recomputed.
func (e *Engine) Recover(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending, err := e.intents.All(ctx, nil)
	if err != nil {
		return 0, err
	}

	for _, in := range pending {
		log := e.log.With(
			zap.String("op", string(in.Op)),
			zap.Int64("booking_id", int64(in.Booking.ID)),
			zap.Int("room", in.Booking.RoomNumber))

		switch in.Op {
		case IntentCreate:
			_, found, err := e.GetBooking(ctx, in.Booking.ID)
			if err != nil {
				return 0, err
			}
			if !found {
				log.Warn("discarding create intent without booking")
				break
			}
		case IntentCancel:
			if _, err := e.markCanceled(ctx, in.Booking.ID); err != nil {
				return 0, err
			}
		default:
			log.Warn("discarding intent with unknown op")
			continue
		}

		if err := e.recomputeRoom(ctx, in.Booking.RoomNumber); err != nil {
			return 0, err
		}
		log.Info("intent recovered")
	}

	if len(pending) > 0 {
		if err := e.intents.Replace(ctx, nil); err != nil {
			return 0, err
		}
	}
	return len(pending), nil
}
