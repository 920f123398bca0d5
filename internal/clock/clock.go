package clock

import "time"

// Clock supplies the current instant. The seeder and worker take a Clock so
// tests can freeze or advance time without waiting on real timers.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }
