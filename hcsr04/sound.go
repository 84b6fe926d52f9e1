package hcsr04

import (
	"math"
	"time"
)

const (
	// speed of sound at 0C, m/s
	speedAtZero        = 331.5
	zeroCelsiusK       = 273.15
	centimetersPerInch = 2.54
)

// ToCelsius normalizes temperature t, given in unit, to degrees Celsius.
func ToCelsius(t float64, unit TemperatureUnit) float64 {
	if unit == Fahrenheit {
		return (t - 32) * 5 / 9
	}
	return t
}

// SpeedOfSound returns the speed of sound in air, in meters/second, at
// ambient temperature t given in unit.  Under SquareRoot a temperature below
// absolute zero yields NaN, and so does any Distance computed from it.
func SpeedOfSound(t float64, unit TemperatureUnit, model SpeedModel) float64 {
	if model == Linear {
		if unit == Fahrenheit {
			return 331.4 + 0.049*t
		}
		return speedAtZero + 0.6*t
	}
	return speedAtZero * math.Sqrt(1+ToCelsius(t, unit)/zeroCelsiusK)
}

// Distance converts an echo pulse width into the one-way distance to the
// reflecting surface.  The pulse covers the round trip, so it's halved.
func Distance(speed float64, pulse time.Duration, unit DistanceUnit) float64 {
	cm := speed * 100 * pulse.Seconds() / 2
	if unit == Inches {
		return cm / centimetersPerInch
	}
	return cm
}
