package loopfsm

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Machine holds at most one current State and mediates transitions between states.
//
// TransitionTo, Update and HandleEvent must be called from a single goroutine,
// normally a Driver. CurrentState and Transitions may be read from anywhere.
type Machine struct {
	id      string
	current State
	mu      sync.RWMutex

	clock     Clock
	data      any
	logger    *slog.Logger
	observers []Observer
	maxChain  int

	// Dispatch bookkeeping, owned by the dispatching goroutine
	inHook  bool
	pending State

	seq atomic.Uint64
}

// MachineOption is a functional option for configuring a Machine
type MachineOption func(*Machine)

// WithLogger sets the logger for the machine
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithData sets the application data accessible via Context
func WithData(data any) MachineOption {
	return func(m *Machine) {
		m.data = data
	}
}

// WithClock sets the time source used for Context.Now
func WithClock(clock Clock) MachineOption {
	return func(m *Machine) {
		m.clock = clock
	}
}

// WithID sets the machine identifier used in logs and transition records.
// A random UUID is used when unset.
func WithID(id string) MachineOption {
	return func(m *Machine) {
		m.id = id
	}
}

// WithObserver registers an observer for completed transitions.
// Observers run synchronously inside the dispatch call; wrap observers that
// do I/O in NewAsyncObserver so they do not delay the next loop iteration.
func WithObserver(o Observer) MachineOption {
	return func(m *Machine) {
		m.observers = append(m.observers, o)
	}
}

// WithStateChangeCallback sets a callback invoked after each state change
func WithStateChangeCallback(fn func(from, to string)) MachineOption {
	return WithObserver(ObserverFunc(func(rec TransitionRecord) {
		fn(rec.From, rec.To)
	}))
}

// WithMaxChainedTransitions limits the number of transitions one call may apply
func WithMaxChainedTransitions(n int) MachineOption {
	return func(m *Machine) {
		if n > 0 {
			m.maxChain = n
		}
	}
}

// New creates an uninitialized machine. Call TransitionTo to enter the first state.
func New(opts ...MachineOption) *Machine {
	m := &Machine{
		clock:    SystemClock{},
		logger:   Logger,
		maxChain: DefaultMaxChainedTransitions,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.id == "" {
		m.id = uuid.NewString()
	}
	m.logger = m.logger.With("machine", m.id)

	return m
}

// ID returns the machine identifier
func (m *Machine) ID() string {
	return m.id
}

// Observe registers an observer. Not safe while the machine is dispatching.
func (m *Machine) Observe(o Observer) {
	m.observers = append(m.observers, o)
}

// OnStateChange registers a callback invoked after each state change.
func (m *Machine) OnStateChange(fn func(from, to string)) {
	WithStateChangeCallback(fn)(m)
}

// CurrentState returns the current state, or nil before the first transition
func (m *Machine) CurrentState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CurrentStateName returns the name of the current state, or "" before the first transition
func (m *Machine) CurrentStateName() string {
	return StateName(m.CurrentState())
}

// Transitions returns the number of completed transitions
func (m *Machine) Transitions() uint64 {
	return m.seq.Load()
}

// TransitionTo exits the current state, if any, and enters next.
//
// Called from inside a hook, the request is recorded and applied once the
// hook returns; a later request from the same hook replaces an earlier one.
func (m *Machine) TransitionTo(next State) error {
	if next == nil {
		return ErrNilState
	}

	if m.inHook {
		if m.pending != nil {
			m.logger.Debug("pending transition replaced", "dropped", StateName(m.pending), "to", StateName(next))
		}
		m.pending = next
		m.logger.Debug("transition deferred", "to", StateName(next))
		return nil
	}

	now := m.clock.Now()
	m.swap(next, now)
	return m.applyPending(now, 1)
}

// Update runs the current state's Update hook. No-op before the first transition.
func (m *Machine) Update() error {
	state := m.CurrentState()
	if state == nil {
		return nil
	}

	now := m.clock.Now()
	ctx := m.makeContext(now, nil)
	nested := m.inHook
	m.callHook(func() { state.Update(ctx) })

	// Called from a hook: the outermost dispatch applies pending requests
	if nested {
		return nil
	}
	return m.applyPending(now, 0)
}

// HandleEvent passes ev to the current state. Before the first transition
// the event is dropped.
func (m *Machine) HandleEvent(ev Event) error {
	state := m.CurrentState()
	if state == nil {
		m.logger.Debug("event dropped, no current state")
		return nil
	}

	now := m.clock.Now()
	ctx := m.makeContext(now, ev)
	nested := m.inHook
	m.callHook(func() { state.HandleEvent(ctx, ev) })

	if nested {
		return nil
	}
	return m.applyPending(now, 0)
}

// applyPending performs transitions requested by hooks until none is left.
// done is the number of transitions this call already applied.
func (m *Machine) applyPending(now time.Time, done int) error {
	for m.pending != nil {
		if done >= m.maxChain {
			dropped := StateName(m.pending)
			m.pending = nil
			current := m.CurrentStateName()
			m.logger.Warn("transition chain limit reached", "limit", m.maxChain, "state", current, "dropped", dropped)
			return fmt.Errorf("%w: %d transitions, stopped in %q", ErrTransitionLoop, done, current)
		}

		next := m.pending
		m.pending = nil
		m.swap(next, now)
		done++
	}
	return nil
}

// swap is the only place Exit and Enter are called
func (m *Machine) swap(next State, now time.Time) {
	prev := m.CurrentState()
	from, to := StateName(prev), StateName(next)

	if prev != nil {
		m.logger.Debug("exiting state", "state", from, "to", to)
		ctx := m.makeContext(now, nil)
		ctx.FromState = from
		ctx.ToState = to
		m.callHook(func() { prev.Exit(ctx) })
	}

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()

	m.logger.Debug("entering state", "state", to, "from", from)
	ctx := m.makeContext(now, nil)
	ctx.FromState = from
	ctx.ToState = to
	m.callHook(func() { next.Enter(ctx) })

	rec := TransitionRecord{
		MachineID: m.id,
		Seq:       m.seq.Add(1),
		From:      from,
		To:        to,
		At:        now,
	}
	m.callHook(func() { m.notify(rec) })
}

// callHook runs fn with transition requests deferred. Calls nest: the
// deferral stays on until the outermost hook returns. A panic in fn is not
// recovered, but any transition it requested is discarded.
func (m *Machine) callHook(fn func()) {
	outer := m.inHook
	m.inHook = true
	completed := false
	defer func() {
		m.inHook = outer
		if !completed {
			m.pending = nil
		}
	}()

	fn()
	completed = true
}

func (m *Machine) notify(rec TransitionRecord) {
	for _, o := range m.observers {
		o.OnTransition(rec)
	}
}

// makeContext creates a context for hooks
func (m *Machine) makeContext(now time.Time, ev Event) *Context {
	return &Context{
		FSM:    m,
		Now:    now,
		Event:  ev,
		Data:   m.data,
		Logger: m.logger,
	}
}
