package engine

import "time"

// Clock supplies the current time. Tests inject a deterministic
// implementation; production uses the system clock in UTC.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
