package clock

import "time"

// Clock supplies the current time to services so tests can pin "now"
// for age and online-window assertions.
type Clock interface {
	Now() time.Time
}

// System is the production clock. All timestamps are UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always reports the same instant.
type Fixed struct {
	t time.Time
}

// NewFixed creates a clock frozen at t.
func NewFixed(t time.Time) Fixed { return Fixed{t: t.UTC()} }

func (f Fixed) Now() time.Time { return f.t }
