package sonar

import "context"

// Runner runs a Thinger without a network: the Run loop's packets are
// dispatched to the Thinger's own Subscribers and go no further.
type Runner struct {
	thinger  Thinger
	bus      *Bus
	injector *Injector
}

func NewRunner(thinger Thinger) *Runner {
	var r Runner

	r.thinger = thinger

	r.bus = NewBus("runner bus", nil, nil)
	r.bus.Handle(dispatch(thinger))
	r.injector = NewInjector("runner injector", r.bus)

	return &r
}

func (r *Runner) Run() {
	r.thinger.Run(r.injector)
}

// RunContext runs the Thinger until ctx is done
func (r *Runner) RunContext(ctx context.Context) {
	runContext(ctx, r.thinger, r.injector)
}
