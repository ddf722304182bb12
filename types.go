package loopfsm

import "log/slog"

// DefaultMaxChainedTransitions bounds how many transitions requested from
// Enter/Exit hooks are applied back to back before the machine gives up.
const DefaultMaxChainedTransitions = 32

// Logger is the default logger used when none is provided
var Logger = slog.Default()
