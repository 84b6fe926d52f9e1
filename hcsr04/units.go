package hcsr04

import "time"

// DistanceUnit selects the unit Measure reports distances in.
type DistanceUnit uint8

const (
	Centimeters DistanceUnit = iota
	Inches
)

func (u DistanceUnit) String() string {
	switch u {
	case Centimeters:
		return "cm"
	case Inches:
		return "in"
	}
	return "unknown"
}

// TemperatureUnit selects the unit the caller supplies ambient temperature in.
type TemperatureUnit uint8

const (
	Celsius TemperatureUnit = iota
	Fahrenheit
)

func (u TemperatureUnit) String() string {
	switch u {
	case Celsius:
		return "C"
	case Fahrenheit:
		return "F"
	}
	return "unknown"
}

// SpeedModel selects the speed-of-sound temperature model.
type SpeedModel uint8

const (
	// SquareRoot is 331.5 * sqrt(1 + Tc/273.15).
	SquareRoot SpeedModel = iota
	// Linear is 331.5 + 0.6*Tc for Celsius input and 331.4 + 0.049*Tf for
	// Fahrenheit input.  The two linear variants don't agree with each other
	// or with SquareRoot.
	Linear
)

// DefaultEdgeTimeout bounds each of the two echo edge waits when the Config
// leaves the timeout unset.
const DefaultEdgeTimeout = 2 * time.Second

// Config is fixed for the lifetime of a Device.  The zero value measures in
// centimeters, takes Celsius, uses the SquareRoot model and 2s edge timeouts.
type Config struct {
	DistanceUnit    DistanceUnit
	TemperatureUnit TemperatureUnit
	SpeedModel      SpeedModel
	// RiseTimeout bounds the wait for the echo rising edge.
	RiseTimeout time.Duration
	// FallTimeout bounds the wait for the echo falling edge.  It is
	// independent of RiseTimeout: a slow rise doesn't shorten it.
	FallTimeout time.Duration
}

func (c Config) riseTimeout() time.Duration {
	if c.RiseTimeout <= 0 {
		return DefaultEdgeTimeout
	}
	return c.RiseTimeout
}

func (c Config) fallTimeout() time.Duration {
	if c.FallTimeout <= 0 {
		return DefaultEdgeTimeout
	}
	return c.FallTimeout
}
