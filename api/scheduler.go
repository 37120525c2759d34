/*
scheduler.go - Periodic room status maintenance

PURPOSE:
  Room.Status is only rewritten when a booking is created or canceled, so a
  room stays Booked after its last guest checks out until something
  recomputes it. The scheduler does that on a timer, and also replays intents
  left by a create or cancel whose room write failed.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Runs once immediately on start
  - Each run: Engine.Recover, then Engine.RefreshRoomStatuses
  - Failures are logged; the next tick tries again

CONFIGURATION:
  - Interval: How often to run (HOTEL_STATUS_REFRESH_INTERVAL, default 1h)
  - Enabled: Whether the scheduler is active (interval > 0)

USAGE:
  scheduler := NewStatusScheduler(engine, time.Hour, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - hotel/engine.go: RefreshRoomStatuses
  - hotel/journal.go: Recover
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/hotel-engine/hotel"
	"go.uber.org/zap"
)

// StatusScheduler keeps room statuses in line with the bookings table.
type StatusScheduler struct {
	Engine   *hotel.Engine
	Interval time.Duration
	Enabled  bool

	log    *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewStatusScheduler creates a scheduler. A non-positive interval disables it.
func NewStatusScheduler(engine *hotel.Engine, interval time.Duration, log *zap.Logger) *StatusScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatusScheduler{
		Engine:   engine,
		Interval: interval,
		Enabled:  interval > 0,
		log:      log.Named("scheduler"),
	}
}

// Start begins the scheduler.
func (s *StatusScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.log.Info("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker.C, s.stop)

	s.log.Info("started", zap.Duration("interval", s.Interval))
}

// Stop stops the scheduler and waits for a run in progress.
func (s *StatusScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.log.Info("stopped")
}

func (s *StatusScheduler) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer s.wg.Done()

	s.RunNow(context.Background())
	for {
		select {
		case <-tick:
			s.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow performs one recover-and-refresh pass and returns the number of
// intents replayed and room statuses changed.
func (s *StatusScheduler) RunNow(ctx context.Context) (recovered, changed int) {
	recovered, err := s.Engine.Recover(ctx)
	if err != nil {
		s.log.Error("recover failed", zap.Error(err))
	}
	changed, err = s.Engine.RefreshRoomStatuses(ctx)
	if err != nil {
		s.log.Error("room status refresh failed", zap.Error(err))
	}
	if recovered > 0 || changed > 0 {
		s.log.Info("room statuses maintained",
			zap.Int("intents_recovered", recovered),
			zap.Int("statuses_changed", changed))
	}
	return recovered, changed
}
