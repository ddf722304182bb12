package loopfsm

import "time"

// Timer is an elapsed-time check a state keeps in its own fields.
// It never fires on its own: the state starts it in Enter and asks
// Expired from Update, so resolution is bounded by the loop interval.
type Timer struct {
	Duration time.Duration
	start    time.Time
	started  bool
}

// NewTimer returns a timer of duration d started at now
func NewTimer(d time.Duration, now time.Time) Timer {
	return Timer{Duration: d, start: now, started: true}
}

// Start records now as the start time
func (t *Timer) Start(now time.Time) {
	t.start = now
	t.started = true
}

// Started reports whether Start has been called
func (t *Timer) Started() bool {
	return t.started
}

// Elapsed returns the time since start
func (t *Timer) Elapsed(now time.Time) time.Duration {
	return now.Sub(t.start)
}

// Expired reports whether at least Duration has passed since start
func (t *Timer) Expired(now time.Time) bool {
	return t.Started() && t.Elapsed(now) >= t.Duration
}

// Restart starts the timer again at now if it expired and reports whether it did.
// Used for periodic work such as blinking an output.
func (t *Timer) Restart(now time.Time) bool {
	if !t.Expired(now) {
		return false
	}
	t.start = now
	return true
}
