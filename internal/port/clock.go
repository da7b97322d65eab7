package port

import "time"

// Clock abstracts "now" so expiration logic is testable without real timers.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
