package timers

import "errors"

// ErrTimerNotFound is returned when an operation references a timer id
// that does not exist.
var ErrTimerNotFound = errors.New("timer not found")
