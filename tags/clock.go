package tags

import (
	"time"
)

// Clock tells the time for settling of changes, staleness and expiry of choices
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the clock backed by time.Now
func SystemClock() Clock {
	return systemClock{}
}
