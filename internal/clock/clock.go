package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock allows injecting time in domain/services and background workers.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

type systemClock struct {
	clockwork.Clock
}

// NewSystem returns a clock backed by the real time, reporting UTC.
func NewSystem() Clock {
	return systemClock{Clock: clockwork.NewRealClock()}
}

func (c systemClock) Now() time.Time {
	return c.Clock.Now().UTC()
}

// NewFixed returns a clock that always returns the same instant (useful for tests).
// Its tickers never fire.
func NewFixed(t time.Time) Clock {
	return clockwork.NewFakeClockAt(t.UTC())
}

// NewFake returns a clock whose time only moves when advanced, for tests that
// drive tickers.
func NewFake(t time.Time) *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(t.UTC())
}
