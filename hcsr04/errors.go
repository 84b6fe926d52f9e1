package hcsr04

import "errors"

var (
	// ErrEchoAsserted is returned when the echo line reads high before the
	// trigger pulse.  No pulse is sent.
	ErrEchoAsserted = errors.New("hcsr04: echo already asserted")
	// ErrRiseTimeout is returned when the echo line doesn't go high within
	// the rise timeout.
	ErrRiseTimeout = errors.New("hcsr04: timeout waiting for echo to go high")
	// ErrFallTimeout is returned when the echo line doesn't go low within
	// the fall timeout.
	ErrFallTimeout = errors.New("hcsr04: timeout waiting for echo to go low")
	// ErrEchoRead wraps a failure reading the echo line level.
	ErrEchoRead = errors.New("hcsr04: echo read failed")
)
