package ledger

import (
	"sync/atomic"
	"time"
)

// sequence issues monotonically increasing ids for products and sales.
// Ids track the engine clock's milliseconds so they stay compatible with
// records written by earlier versions of the app, but never repeat or go
// backwards within a process even under rapid calls.
type sequence struct {
	last atomic.Int64
}

func (s *sequence) next(now time.Time) int64 {
	for {
		candidate := now.UnixMilli()
		last := s.last.Load()
		if candidate <= last {
			candidate = last + 1
		}
		if s.last.CompareAndSwap(last, candidate) {
			return candidate
		}
	}
}

// observe advances the sequence past id so ids loaded from persistence
// never collide with freshly issued ones.
func (s *sequence) observe(id int64) {
	for {
		last := s.last.Load()
		if id <= last || s.last.CompareAndSwap(last, id) {
			return
		}
	}
}
