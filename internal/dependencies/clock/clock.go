package clock

import "time"

// Clock provides the current time. Ledger timestamps and session expiry both
// read it, so tests can pin it with a mock.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// UnixSeconds reads c as unsigned unix seconds. Times before the epoch read as 0.
func UnixSeconds(c Clock) uint64 {
	unix := c.Now().Unix()
	if unix < 0 {
		return 0
	}
	return uint64(unix)
}
