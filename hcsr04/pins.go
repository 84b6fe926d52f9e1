package hcsr04

import (
	"context"
	"time"
)

// Level is a digital line level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "High"
	}
	return "Low"
}

// Trigger drives the module's Trig line.
type Trigger interface {
	High() error
	Low() error
}

// Echo reads the module's Echo line.
//
// The wait methods block until the named transition is observed or ctx is
// done, in which case they return ctx.Err().  Device bounds every wait with
// a deadline on ctx, so an Echo must not block past it.
type Echo interface {
	Read() (Level, error)
	WaitForRisingEdge(ctx context.Context) error
	WaitForFallingEdge(ctx context.Context) error
}

// Clock is the time source used to hold the trigger pulse and timestamp the
// echo edges.  Now must carry a monotonic reading.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }
