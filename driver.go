package loopfsm

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultTickInterval is the pause between driver iterations
const DefaultTickInterval = 10 * time.Millisecond

// EventSource yields at most one pending event per poll. Poll must not block.
type EventSource interface {
	Poll() (Event, bool)
}

// ChanSource is an EventSource backed by a buffered channel.
// Producers on other goroutines call Push; the driver polls.
type ChanSource struct {
	events chan Event
	logger *slog.Logger
}

// NewChanSource creates a source holding up to size undelivered events
func NewChanSource(size int) *ChanSource {
	if size <= 0 {
		size = 1
	}
	return &ChanSource{
		events: make(chan Event, size),
		logger: Logger,
	}
}

// Push queues an event for the driver. It reports false and drops the
// event when the buffer is full.
func (s *ChanSource) Push(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
		s.logger.Warn("event source full, dropping event", "event", ev)
		return false
	}
}

// Poll returns the oldest queued event, if any
func (s *ChanSource) Poll() (Event, bool) {
	select {
	case ev := <-s.events:
		return ev, true
	default:
		return nil, false
	}
}

// Len returns the number of queued events
func (s *ChanSource) Len() int {
	return len(s.events)
}

// Driver is the polling loop that keeps a machine running: each iteration
// delivers at most one pending event and then calls Update.
type Driver struct {
	machine *Machine
	source  EventSource
	tick    time.Duration
	logger  *slog.Logger
}

// DriverOption is a functional option for configuring a Driver
type DriverOption func(*Driver)

// WithTickInterval sets the pause between iterations
func WithTickInterval(d time.Duration) DriverOption {
	return func(dr *Driver) {
		if d > 0 {
			dr.tick = d
		}
	}
}

// WithDriverLogger sets the logger for the driver
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(dr *Driver) {
		dr.logger = logger
	}
}

// NewDriver creates a driver for m. source may be nil when the machine takes no events.
func NewDriver(m *Machine, source EventSource, opts ...DriverOption) *Driver {
	d := &Driver{
		machine: m,
		source:  source,
		tick:    DefaultTickInterval,
		logger:  Logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Step runs one iteration: poll, HandleEvent if an event was pending, Update.
// Update runs even when event handling failed.
func (d *Driver) Step() error {
	var evErr error
	if d.source != nil {
		if ev, ok := d.source.Poll(); ok {
			evErr = d.machine.HandleEvent(ev)
		}
	}
	return errors.Join(evErr, d.machine.Update())
}

// Run steps the machine every tick until ctx is cancelled. It never returns
// on its own; errors from Step are logged and the loop continues.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	d.logger.Debug("driver started", "machine", d.machine.ID(), "tick", d.tick)

	for {
		if err := d.Step(); err != nil {
			d.logger.Error("driver step failed", "machine", d.machine.ID(), "state", d.machine.CurrentStateName(), "error", err)
		}

		select {
		case <-ctx.Done():
			d.logger.Debug("driver stopped", "machine", d.machine.ID(), "state", d.machine.CurrentStateName())
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
