//go:build linux

// Package gpiodpin adapts Linux GPIO character device lines, via
// github.com/warthog618/gpiod, to the hcsr04 Trigger and Echo interfaces.
// Echo edges come from kernel line events.
package gpiodpin

import (
	"context"
	"fmt"

	"github.com/merliot/sonar/hcsr04"
	"github.com/warthog618/gpiod"
)

const consumer = "sonar"

// Trigger drives the Trig line.
type Trigger struct {
	line *gpiod.Line
}

// NewTrigger requests offset on chip (eg. "gpiochip0") as an output, driven
// low.
func NewTrigger(chip string, offset int) (*Trigger, error) {
	l, err := gpiod.RequestLine(chip, offset, gpiod.AsOutput(0), gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("gpiodpin: trigger %s:%d: %w", chip, offset, err)
	}
	return &Trigger{line: l}, nil
}

func (t *Trigger) High() error  { return t.line.SetValue(1) }
func (t *Trigger) Low() error   { return t.line.SetValue(0) }
func (t *Trigger) Close() error { return t.line.Close() }

type valuer interface {
	Value() (int, error)
}

// Echo reads the Echo line, waiting on kernel edge events.
type Echo struct {
	line   valuer
	closer func() error
	events chan gpiod.LineEventType
}

// NewEcho requests offset on chip as an input with both edges reported.
func NewEcho(chip string, offset int) (*Echo, error) {
	e := newEcho(nil)
	l, err := gpiod.RequestLine(chip, offset,
		gpiod.AsInput,
		gpiod.WithBothEdges,
		gpiod.WithEventHandler(e.handle),
		gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("gpiodpin: echo %s:%d: %w", chip, offset, err)
	}
	e.line, e.closer = l, l.Close
	return e, nil
}

func newEcho(line valuer) *Echo {
	return &Echo{
		line:   line,
		closer: func() error { return nil },
		events: make(chan gpiod.LineEventType, 16),
	}
}

// handle runs on the gpiod watcher goroutine.  Events are dropped rather
// than stall the watcher; a wait that misses its edge still sees the level.
func (e *Echo) handle(evt gpiod.LineEvent) {
	select {
	case e.events <- evt.Type:
	default:
	}
}

func (e *Echo) Close() error { return e.closer() }

func (e *Echo) Read() (hcsr04.Level, error) {
	v, err := e.line.Value()
	if err != nil {
		return hcsr04.Low, err
	}
	return v != 0, nil
}

func (e *Echo) WaitForRisingEdge(ctx context.Context) error {
	return e.wait(ctx, gpiod.LineEventRisingEdge, hcsr04.High)
}

func (e *Echo) WaitForFallingEdge(ctx context.Context) error {
	return e.wait(ctx, gpiod.LineEventFallingEdge, hcsr04.Low)
}

func (e *Echo) wait(ctx context.Context, want gpiod.LineEventType, level hcsr04.Level) error {
	// events from earlier cycles are stale
	e.drain()

	got, err := e.Read()
	if err != nil {
		return err
	}
	if got == level {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case typ := <-e.events:
			if typ == want {
				return nil
			}
		}
	}
}

func (e *Echo) drain() {
	for {
		select {
		case <-e.events:
		default:
			return
		}
	}
}
