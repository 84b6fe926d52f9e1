// Package rpiopin adapts github.com/stianeikeland/go-rpio pins, which poke
// the BCM283x GPIO registers directly, to the hcsr04 Trigger and Echo
// interfaces.  Call rpio.Open before use.
package rpiopin

import (
	"context"
	"time"

	"github.com/merliot/sonar/hcsr04"
	"github.com/stianeikeland/go-rpio/v4"
)

// DefaultPoll is the edge-detect register poll interval.  An HC-SR04 echo
// is 150us to 25ms wide, so the resolution is coarse next to the kernel
// based adapters.
const DefaultPoll = 20 * time.Microsecond

// Trigger drives the Trig line.
type Trigger struct {
	pin rpio.Pin
}

// NewTrigger configures BCM pin n as an output, driven low.
func NewTrigger(n int) *Trigger {
	pin := rpio.Pin(n)
	pin.Output()
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

// Echo reads the Echo line, polling the edge-detect status register.
type Echo struct {
	pin  rpio.Pin
	poll time.Duration
}

// NewEcho configures BCM pin n as an input.
func NewEcho(n int) *Echo {
	pin := rpio.Pin(n)
	pin.Input()
	pin.PullOff()
	return &Echo{pin: pin, poll: DefaultPoll}
}

func (e *Echo) Read() (hcsr04.Level, error) {
	return e.pin.Read() == rpio.High, nil
}

func (e *Echo) WaitForRisingEdge(ctx context.Context) error {
	return e.wait(ctx, rpio.RiseEdge, rpio.High)
}

func (e *Echo) WaitForFallingEdge(ctx context.Context) error {
	return e.wait(ctx, rpio.FallEdge, rpio.Low)
}

func (e *Echo) wait(ctx context.Context, edge rpio.Edge, want rpio.State) error {
	e.pin.Detect(edge)
	defer e.pin.Detect(rpio.NoEdge)
	return poll(ctx, e.poll, func() bool {
		return e.pin.EdgeDetected() || e.pin.Read() == want
	})
}

// poll calls done every interval until it reports true or ctx is done.
func poll(ctx context.Context, interval time.Duration, done func() bool) error {
	if done() {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if done() {
				return nil
			}
		}
	}
}
