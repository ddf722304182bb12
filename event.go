package loopfsm

// Event is an opaque notification delivered to the current state.
// The machine never inspects it; states type-switch on what they care about.
type Event any
