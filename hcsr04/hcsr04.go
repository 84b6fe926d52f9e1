// Package hcsr04 drives an HC-SR04 ultrasonic ranging module.
//
// A ranging cycle is a 10us pulse on the Trig line followed by a pulse on
// the Echo line whose width is the round-trip time of flight of the
// ultrasonic burst.
//
// Datasheet: https://cdn.sparkfun.com/datasheets/Sensors/Proximity/HCSR04.pdf
package hcsr04

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TriggerPulse is the width of the pulse that starts a ranging cycle.
const TriggerPulse = 10 * time.Microsecond

// Device is an HC-SR04 wired to a trigger output and an echo input.  The
// Device owns both lines.  It is not safe for concurrent use; overlapping
// measurements interleave trigger pulses and echo reads.
type Device struct {
	trigger Trigger
	echo    Echo
	config  Config
	clock   Clock
}

// Option configures a Device at construction.
type Option func(*Device)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(d *Device) { d.clock = c }
}

// New returns a Device using trigger and echo, configured by config.
func New(trigger Trigger, echo Echo, config Config, opts ...Option) *Device {
	d := &Device{
		trigger: trigger,
		echo:    echo,
		config:  config,
		clock:   systemClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the Device configuration.
func (d *Device) Config() Config {
	return d.config
}

// Measure runs one ranging cycle and returns the distance to the target in
// the configured DistanceUnit.  temperature is the ambient temperature in
// the configured TemperatureUnit.
//
// Measure returns ErrEchoAsserted, ErrRiseTimeout or ErrFallTimeout when the
// cycle fails; none are retried.  If ctx is cancelled mid-cycle the sensor
// may be left with a pulse in flight; the next call's echo check catches a
// sensor that hasn't settled.
func (d *Device) Measure(ctx context.Context, temperature float64) (float64, error) {
	pulse, err := d.Ping(ctx)
	if err != nil {
		return 0, err
	}
	speed := SpeedOfSound(temperature, d.config.TemperatureUnit, d.config.SpeedModel)
	return Distance(speed, pulse, d.config.DistanceUnit), nil
}

// Ping runs one ranging cycle and returns the echo pulse width.
func (d *Device) Ping(ctx context.Context) (time.Duration, error) {
	level, err := d.echo.Read()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEchoRead, err)
	}
	if level == High {
		return 0, ErrEchoAsserted
	}

	d.pulse()

	start, err := d.await(ctx, d.echo.WaitForRisingEdge, d.config.riseTimeout(), ErrRiseTimeout)
	if err != nil {
		return 0, err
	}
	end, err := d.await(ctx, d.echo.WaitForFallingEdge, d.config.fallTimeout(), ErrFallTimeout)
	if err != nil {
		return 0, err
	}
	return end.Sub(start), nil
}

// pulse starts a ranging cycle.  Drive errors are ignored: a pulse that
// didn't go out shows up as ErrRiseTimeout.
func (d *Device) pulse() {
	d.trigger.High()
	d.clock.Sleep(TriggerPulse)
	d.trigger.Low()
}

// await runs one edge wait under its own deadline and timestamps the edge.
func (d *Device) await(ctx context.Context, wait func(context.Context) error,
	timeout time.Duration, errTimeout error) (time.Time, error) {

	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := wait(wctx)
	if err == nil {
		return d.clock.Now(), nil
	}
	// caller gave up; that's not a sensor timeout
	if ctx.Err() != nil {
		return time.Time{}, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return time.Time{}, errTimeout
	}
	return time.Time{}, err
}
