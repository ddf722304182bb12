package loopfsm

import (
	"log/slog"
	"time"
)

// Context is passed to every state hook. It is the state's only handle on
// the machine; states must not keep it after the hook returns.
type Context struct {
	FSM       *Machine
	Now       time.Time // Clock reading taken when the dispatch started
	Event     Event     // Event being handled (nil outside HandleEvent)
	FromState string    // Outgoing state name during a transition
	ToState   string    // Incoming state name during a transition
	Data      any       // User-provided application data
	Logger    *slog.Logger
}

// TransitionTo asks the machine to switch to next once the current hook returns.
func (c *Context) TransitionTo(next State) error {
	return c.FSM.TransitionTo(next)
}

// CurrentState returns the machine's current state
func (c *Context) CurrentState() State {
	return c.FSM.CurrentState()
}

// Since returns the time elapsed between t and the dispatch time
func (c *Context) Since(t time.Time) time.Duration {
	return c.Now.Sub(t)
}
