//go:build tinygo

// Package machinepin adapts TinyGo machine pins to the hcsr04 Trigger and
// Echo interfaces.  Echo edges are counted by a pin change interrupt.
package machinepin

import (
	"context"
	"machine"
	"sync/atomic"
	"time"

	"github.com/merliot/sonar/hcsr04"
)

// Trigger drives the Trig line.
type Trigger struct {
	pin machine.Pin
}

// NewTrigger configures pin as an output, driven low.
func NewTrigger(pin machine.Pin) *Trigger {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &Trigger{pin: pin}
}

func (t *Trigger) High() error {
	t.pin.High()
	return nil
}

func (t *Trigger) Low() error {
	t.pin.Low()
	return nil
}

// Echo reads the Echo line.
type Echo struct {
	pin   machine.Pin
	rises uint32
	falls uint32
}

// NewEcho configures pin as an input and installs the edge interrupt.
func NewEcho(pin machine.Pin) (*Echo, error) {
	e := &Echo{pin: pin}
	pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	if err := pin.SetInterrupt(machine.PinToggle, e.isr); err != nil {
		return nil, err
	}
	return e, nil
}

// isr runs in interrupt context: no allocation, no blocking.
func (e *Echo) isr(p machine.Pin) {
	if p.Get() {
		atomic.AddUint32(&e.rises, 1)
	} else {
		atomic.AddUint32(&e.falls, 1)
	}
}

func (e *Echo) Read() (hcsr04.Level, error) {
	return hcsr04.Level(e.pin.Get()), nil
}

func (e *Echo) WaitForRisingEdge(ctx context.Context) error {
	return e.wait(ctx, &e.rises, true)
}

func (e *Echo) WaitForFallingEdge(ctx context.Context) error {
	return e.wait(ctx, &e.falls, false)
}

func (e *Echo) wait(ctx context.Context, count *uint32, want bool) error {
	start := atomic.LoadUint32(count)
	for {
		if e.pin.Get() == want || atomic.LoadUint32(count) != start {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// yield to the scheduler; the echo is at least 150us wide
		time.Sleep(10 * time.Microsecond)
	}
}
