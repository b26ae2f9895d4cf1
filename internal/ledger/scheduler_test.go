package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/mrxohit/Collection-Site/internal/store/memory"
)

func newTestScheduler(t *testing.T, buffer time.Duration) (*Scheduler, *Engine) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 3, 23, 59, 0, 0, time.UTC)}
	engine := New(context.Background(), memory.New(), Options{Clock: clock, Seed: true})
	return NewScheduler(engine, buffer), engine
}

func TestBoundaryDelay(t *testing.T) {
	sched, _ := newTestScheduler(t, 5*time.Second)

	now := time.Date(2024, 1, 3, 23, 59, 0, 0, time.UTC)
	if got := sched.boundaryDelay(now); got != time.Minute+5*time.Second {
		t.Fatalf("expected 1m5s, got %s", got)
	}

	// Just after midnight the next boundary is almost a full day away.
	now = time.Date(2024, 1, 4, 0, 0, 1, 0, time.UTC)
	if got := sched.boundaryDelay(now); got != 24*time.Hour-time.Second+5*time.Second {
		t.Fatalf("expected 23h59m59s+buffer, got %s", got)
	}
}

func TestSchedulerLifecycle(t *testing.T) {
	sched, _ := newTestScheduler(t, 0)

	if sched.State() != "idle" {
		t.Fatalf("expected idle before Start, got %s", sched.State())
	}
	sched.Start()
	if sched.State() != "armed" {
		t.Fatalf("expected armed after Start, got %s", sched.State())
	}
	sched.Start() // no-op while running
	sched.Stop()
	if sched.State() != "idle" {
		t.Fatalf("expected idle after Stop, got %s", sched.State())
	}
}

func TestSchedulerFiresRolloverAndGoesRecurring(t *testing.T) {
	sched, engine := newTestScheduler(t, 0)
	defer sched.Stop()

	if _, err := engine.RecordSale(context.Background(), 1, 2); err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	sched.period = time.Hour
	sched.mu.Lock()
	sched.armLocked(10 * time.Millisecond)
	sched.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sched.State() == "recurring" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if sched.State() != "recurring" {
		t.Fatalf("expected recurring after first fire, got %s", sched.State())
	}
	if got := len(engine.HistoryRecords()); got != 1 {
		t.Fatalf("expected one archived record after fire, got %d", got)
	}
	if got := len(engine.JournalEntries()); got != 0 {
		t.Fatalf("expected empty journal after fire, got %d entries", got)
	}
}

func TestStopBeforeFirePreventsRollover(t *testing.T) {
	sched, engine := newTestScheduler(t, 0)

	sched.mu.Lock()
	sched.armLocked(50 * time.Millisecond)
	sched.mu.Unlock()
	sched.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := len(engine.HistoryRecords()); got != 0 {
		t.Fatalf("no rollover must fire after Stop, got %d records", got)
	}
}

func TestNoRolloverAfterStopReturns(t *testing.T) {
	// Race a zero-delay fire against an immediate Stop. Whatever the
	// interleaving, the archive must not grow once Stop has returned.
	for i := 0; i < 200; i++ {
		sched, engine := newTestScheduler(t, 0)

		sched.mu.Lock()
		sched.armLocked(0)
		sched.mu.Unlock()
		sched.Stop()

		settled := len(engine.HistoryRecords())
		time.Sleep(time.Millisecond)
		if got := len(engine.HistoryRecords()); got != settled {
			t.Fatalf("iteration %d: rollover executed after Stop returned (%d -> %d records)", i, settled, got)
		}
	}
}

func TestJournalWritesDoNotRearmScheduler(t *testing.T) {
	sched, engine := newTestScheduler(t, 0)
	defer sched.Stop()

	sched.Start()
	before := sched.State()
	for i := 0; i < 3; i++ {
		if _, err := engine.RecordSale(context.Background(), 2, 1); err != nil {
			t.Fatalf("sale failed: %v", err)
		}
	}
	if sched.State() != before {
		t.Fatalf("recording sales must not change scheduler state")
	}
	if got := len(engine.HistoryRecords()); got != 0 {
		t.Fatalf("recording sales must not trigger rollover")
	}
}
