package domain

import "time"

// DefaultTimeoutDuration is the compile-time default used by the empty constructor.
const DefaultTimeoutDuration = 5 * time.Second

// Timeout is a monotonic deadline: a start instant plus a duration. It is
// never compared against wall-clock time, only against time.Now(), whose
// monotonic reading survives arithmetic as long as the value is never
// round-tripped through serialization.
type Timeout struct {
	start    time.Time
	duration time.Duration
}

// NewTimeout starts a deadline of the given duration, snapshotting now().
func NewTimeout(d time.Duration) Timeout {
	return Timeout{start: time.Now(), duration: d}
}

// NewDefaultTimeout starts a deadline using the compile-time default duration.
func NewDefaultTimeout() Timeout {
	return NewTimeout(DefaultTimeoutDuration)
}

// Expired reports whether the deadline has passed: start+duration < now().
func (t Timeout) Expired() bool {
	return t.start.Add(t.duration).Before(time.Now())
}

// Reset restarts the deadline from now, keeping the same duration.
func (t *Timeout) Reset() {
	t.start = time.Now()
}

// TimeLeft returns start+duration-now(), which may be negative; callers
// formatting this for display must clamp negative values to zero.
func (t Timeout) TimeLeft() time.Duration {
	return t.start.Add(t.duration).Sub(time.Now())
}

// Duration returns the configured duration of this deadline.
func (t Timeout) Duration() time.Duration {
	return t.duration
}
