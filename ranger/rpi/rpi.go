// Package rpi builds a Ranger on Raspberry Pi header pins using periph.io.
package rpi

import (
	"github.com/merliot/sonar/hcsr04"
	"github.com/merliot/sonar/hcsr04/periphpin"
	"github.com/merliot/sonar/ranger"
)

const (
	DefaultTrigger = "GPIO23"
	DefaultEcho    = "GPIO24"
)

// New returns a Ranger whose sensor is wired to the named trigger and echo
// pins.  Empty names select DefaultTrigger and DefaultEcho.
func New(id, model, name, trigger, echo string, cfg hcsr04.Config) (*ranger.Ranger, error) {
	if trigger == "" {
		trigger = DefaultTrigger
	}
	if echo == "" {
		echo = DefaultEcho
	}
	t, e, err := periphpin.Open(trigger, echo)
	if err != nil {
		return nil, err
	}
	return ranger.New(id, model, name, hcsr04.New(t, e, cfg)), nil
}
