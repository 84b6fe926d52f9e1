//go:build tinygo

// ranger-tinygo runs a Ranger headless on a microcontroller, printing each
// reading on the serial console.  Trig is on D10, Echo on D9.
package main

import (
	"machine"
	"time"

	"github.com/merliot/sonar"
	"github.com/merliot/sonar/hcsr04"
	"github.com/merliot/sonar/hcsr04/machinepin"
	"github.com/merliot/sonar/ranger"
)

type console struct {
	*ranger.Ranger
}

func (c console) Subscribers() sonar.Subscribers {
	subs := c.Ranger.Subscribers()
	subs["update"] = c.update
	return subs
}

func (c console) update(pkt *sonar.Packet) {
	println(pkt.String())
}

func main() {
	echo, err := machinepin.NewEcho(machine.D9)
	if err != nil {
		println("echo pin:", err.Error())
		return
	}
	sensor := hcsr04.New(machinepin.NewTrigger(machine.D10), echo, hcsr04.Config{})

	r := ranger.New("ranger01", "ranger", "ranger", sensor)
	r.Period = 100 * time.Millisecond

	println("Ultrasonic starts")
	sonar.NewRunner(console{r}).Run()
}
