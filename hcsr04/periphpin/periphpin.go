// Package periphpin adapts periph.io GPIO pins to the hcsr04 Trigger and
// Echo interfaces.
package periphpin

import (
	"context"
	"fmt"
	"time"

	"github.com/merliot/sonar/hcsr04"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// DefaultPoll is how long a single WaitForEdge call may block before the
// wait rechecks its context.  Edge detection is armed once, in NewEcho:
// re-arming through In costs hundreds of microseconds on sysfs pins, and an
// edge inside that window would be timestamped late.
const DefaultPoll = 10 * time.Millisecond

// Trigger drives the Trig line.
type Trigger struct {
	pin gpio.PinOut
}

// NewTrigger configures pin as an output, driven low.
func NewTrigger(pin gpio.PinOut) (*Trigger, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("periphpin: trigger %s: %w", pin, err)
	}
	return &Trigger{pin: pin}, nil
}

func (t *Trigger) High() error { return t.pin.Out(gpio.High) }
func (t *Trigger) Low() error  { return t.pin.Out(gpio.Low) }

// Echo reads the Echo line using the pin's edge detection.
type Echo struct {
	pin  gpio.PinIn
	poll time.Duration
}

// NewEcho configures pin as an input reporting both edges.  The HC-SR04
// drives Echo, so pull is normally gpio.PullNoChange or gpio.Float.
func NewEcho(pin gpio.PinIn, pull gpio.Pull) (*Echo, error) {
	if err := pin.In(pull, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("periphpin: echo %s: %w", pin, err)
	}
	return &Echo{pin: pin, poll: DefaultPoll}, nil
}

func (e *Echo) Read() (hcsr04.Level, error) {
	return hcsr04.Level(e.pin.Read()), nil
}

func (e *Echo) WaitForRisingEdge(ctx context.Context) error {
	return e.wait(ctx, gpio.High)
}

func (e *Echo) WaitForFallingEdge(ctx context.Context) error {
	return e.wait(ctx, gpio.Low)
}

// wait returns as soon as the line reads want.  Every edge, including a
// stale one queued by an earlier cycle, just prompts another read.
func (e *Echo) wait(ctx context.Context, want gpio.Level) error {
	for {
		if e.pin.Read() == want {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e.pin.WaitForEdge(e.slice(ctx))
	}
}

// slice is the poll interval, cut short by the context deadline.
func (e *Echo) slice(ctx context.Context) time.Duration {
	d := e.poll
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = left
		}
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Open initializes the periph host drivers and returns the Trigger and Echo
// for the named pins, eg. "GPIO23" and "GPIO24" on a Raspberry Pi.
func Open(trigger, echo string) (*Trigger, *Echo, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periphpin: host init: %w", err)
	}
	tp := gpioreg.ByName(trigger)
	if tp == nil {
		return nil, nil, fmt.Errorf("periphpin: no GPIO trigger pin named: %s", trigger)
	}
	ep := gpioreg.ByName(echo)
	if ep == nil {
		return nil, nil, fmt.Errorf("periphpin: no GPIO echo pin named: %s", echo)
	}
	t, err := NewTrigger(tp)
	if err != nil {
		return nil, nil, err
	}
	e, err := NewEcho(ep, gpio.PullNoChange)
	if err != nil {
		return nil, nil, err
	}
	return t, e, nil
}
