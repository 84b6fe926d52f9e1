//go:build !linux

package main

import (
	"errors"

	"github.com/merliot/sonar/hcsr04"
)

func openGpiod(chip string, trigger, echo int) (hcsr04.Trigger, hcsr04.Echo, error) {
	return nil, nil, errors.New("gpiod backend needs linux")
}
