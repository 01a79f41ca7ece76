package booking

import "time"

// Clock abstracts "now" so the cancellation cutoff is testable.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
