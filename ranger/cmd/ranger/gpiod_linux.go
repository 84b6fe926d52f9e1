package main

import (
	"github.com/merliot/sonar/hcsr04"
	"github.com/merliot/sonar/hcsr04/gpiodpin"
)

func openGpiod(chip string, trigger, echo int) (hcsr04.Trigger, hcsr04.Echo, error) {
	t, err := gpiodpin.NewTrigger(chip, trigger)
	if err != nil {
		return nil, nil, err
	}
	e, err := gpiodpin.NewEcho(chip, echo)
	if err != nil {
		t.Close()
		return nil, nil, err
	}
	return t, e, nil
}
