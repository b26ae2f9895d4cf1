package ledger

import "time"

// Clock supplies the current time. The engine and scheduler never call
// time.Now directly so tests can pin the observation day.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
