package loopfsm

import "errors"

var (
	// ErrNilState is returned when TransitionTo is called without a target state
	ErrNilState = errors.New("transition target state is nil")
	// ErrTransitionLoop is returned when hooks keep requesting transitions
	// past the configured chain limit
	ErrTransitionLoop = errors.New("too many chained transitions")
)

// IsNilStateError reports whether err is, or wraps, ErrNilState.
func IsNilStateError(err error) bool {
	return errors.Is(err, ErrNilState)
}

// IsTransitionLoopError reports whether err is, or wraps, ErrTransitionLoop.
func IsTransitionLoopError(err error) bool {
	return errors.Is(err, ErrTransitionLoop)
}
