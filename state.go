package loopfsm

import (
	"fmt"
	"strings"
)

// State is one mode of operation. The machine calls Enter once when the
// state becomes current, Update once per loop iteration and HandleEvent once
// per external event while it stays current, and Exit once when it is replaced.
//
// Hooks must not block. A hook requests a transition by calling
// ctx.TransitionTo; the request takes effect after the hook returns.
type State interface {
	Enter(ctx *Context)
	Exit(ctx *Context)
	Update(ctx *Context)
	HandleEvent(ctx *Context, ev Event)
}

// Namer is implemented by states that want a stable name in logs and traces.
type Namer interface {
	Name() string
}

// BaseState implements every State hook as a no-op.
// Embed it and override only the hooks a state needs.
type BaseState struct{}

func (BaseState) Enter(*Context)              {}
func (BaseState) Exit(*Context)               {}
func (BaseState) Update(*Context)             {}
func (BaseState) HandleEvent(*Context, Event) {}

// StateName returns the name of s: Name() when s implements Namer,
// otherwise its type name without package qualifier or pointer marker.
func StateName(s State) string {
	if s == nil {
		return ""
	}
	if n, ok := s.(Namer); ok {
		return n.Name()
	}
	name := strings.TrimPrefix(fmt.Sprintf("%T", s), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// FuncState is a State assembled from closures. Unset hooks are no-ops.
type FuncState struct {
	name string

	OnEnter  func(ctx *Context)
	OnExit   func(ctx *Context)
	OnUpdate func(ctx *Context)
	OnEvent  func(ctx *Context, ev Event)
}

// StateOption is a functional option for configuring a FuncState
type StateOption func(*FuncState)

// NewState builds a FuncState with the given name
func NewState(name string, opts ...StateOption) *FuncState {
	s := &FuncState{name: name}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithOnEnter sets the entry hook
func WithOnEnter(fn func(*Context)) StateOption {
	return func(s *FuncState) {
		s.OnEnter = fn
	}
}

// WithOnExit sets the exit hook
func WithOnExit(fn func(*Context)) StateOption {
	return func(s *FuncState) {
		s.OnExit = fn
	}
}

// WithOnUpdate sets the per-iteration hook
func WithOnUpdate(fn func(*Context)) StateOption {
	return func(s *FuncState) {
		s.OnUpdate = fn
	}
}

// WithOnEvent sets the event hook
func WithOnEvent(fn func(*Context, Event)) StateOption {
	return func(s *FuncState) {
		s.OnEvent = fn
	}
}

func (s *FuncState) Name() string { return s.name }

func (s *FuncState) Enter(ctx *Context) {
	if s.OnEnter != nil {
		s.OnEnter(ctx)
	}
}

func (s *FuncState) Exit(ctx *Context) {
	if s.OnExit != nil {
		s.OnExit(ctx)
	}
}

func (s *FuncState) Update(ctx *Context) {
	if s.OnUpdate != nil {
		s.OnUpdate(ctx)
	}
}

func (s *FuncState) HandleEvent(ctx *Context, ev Event) {
	if s.OnEvent != nil {
		s.OnEvent(ctx, ev)
	}
}
