package ledger

import (
	"context"
	"log"
	"sync"
	"time"
)

type schedulerState int

const (
	stateIdle schedulerState = iota
	stateArmed
	stateRecurring
)

// Scheduler drives the midnight rollover. Lifecycle: Idle until Start, then
// Armed with a one-shot timer for the next day boundary, then Recurring on a
// 24-hour ticker after the first fire. The timers are owned solely by this
// lifecycle — journal mutations never arm, re-arm or cancel anything; only
// the wall clock does.
type Scheduler struct {
	engine *Engine
	clock  Clock
	loc    *time.Location
	buffer time.Duration
	period time.Duration

	mu       sync.Mutex
	state    schedulerState
	timer    *time.Timer
	ticker   *time.Ticker
	done     chan struct{}
	inFlight sync.WaitGroup
}

// NewScheduler builds a scheduler over the engine's clock and timezone.
// buffer is added past exact midnight so a marginally fast clock cannot roll
// a day over early.
func NewScheduler(engine *Engine, buffer time.Duration) *Scheduler {
	if buffer < 0 {
		buffer = 0
	}
	return &Scheduler{
		engine: engine,
		clock:  engine.clock,
		loc:    engine.loc,
		buffer: buffer,
		period: 24 * time.Hour,
	}
}

// Start arms the one-shot boundary timer. Callers run CatchUp first; the
// scheduler must never observe a journal still holding prior-day entries.
// Start is a no-op if the scheduler is already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateIdle {
		return
	}
	s.armLocked(s.boundaryDelay(s.clock.Now().In(s.loc)))
}

func (s *Scheduler) armLocked(delay time.Duration) {
	s.timer = time.NewTimer(delay)
	s.done = make(chan struct{})
	s.state = stateArmed
	log.Printf("[scheduler] armed, next rollover in %s", delay.Round(time.Second))
	go s.run(s.timer, s.done)
}

// boundaryDelay computes the wait until the next day boundary plus the
// buffer, in the scheduler's timezone.
func (s *Scheduler) boundaryDelay(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, 1).
		Add(s.buffer)
	return next.Sub(now)
}

// beginFire decides under the lock whether an elapsed timer may still roll
// over: the scheduler must be in the expected state and done must be the
// current generation, so a Stop (or Stop/Start pair) that won the race
// suppresses the fire. On true the in-flight count is raised; the caller
// must balance it with endFire once the rollover finishes.
func (s *Scheduler) beginFire(done chan struct{}, want schedulerState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != want || s.done != done {
		return false
	}
	s.inFlight.Add(1)
	return true
}

func (s *Scheduler) endFire() {
	s.inFlight.Done()
}

func (s *Scheduler) run(timer *time.Timer, done chan struct{}) {
	select {
	case <-timer.C:
	case <-done:
		return
	}

	if !s.beginFire(done, stateArmed) {
		return
	}
	s.engine.Rollover(context.Background())
	s.endFire()

	s.mu.Lock()
	if s.state != stateArmed || s.done != done {
		// Stopped while the rollover ran.
		s.mu.Unlock()
		return
	}
	s.ticker = time.NewTicker(s.period)
	s.state = stateRecurring
	ticker := s.ticker
	s.mu.Unlock()

	for {
		select {
		case <-ticker.C:
			if !s.beginFire(done, stateRecurring) {
				return
			}
			s.engine.Rollover(context.Background())
			s.endFire()
		case <-done:
			return
		}
	}
}

// Stop cancels whichever timer is live. A partially elapsed wait is simply
// discarded; that boundary's rollover is recovered by CatchUp on the next
// startup. A fire that has not passed beginFire when the state flips is
// suppressed; one already past it is waited for, so after Stop returns no
// rollover runs or starts.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == stateIdle {
		s.mu.Unlock()
		return
	}

	close(s.done)
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.state = stateIdle
	s.mu.Unlock()

	s.inFlight.Wait()
	log.Printf("[scheduler] stopped")
}

// State reports the current lifecycle phase.
func (s *Scheduler) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateArmed:
		return "armed"
	case stateRecurring:
		return "recurring"
	default:
		return "idle"
	}
}
