// internal/engine/step.go
package engine

import "context"

// Step is one stage of the workflow pipeline. Execute receives the previous
// step's output (or the run input for the first step) and returns its own
// output, which is fed to the next step.
type Step interface {
	ID() string
	Execute(ctx context.Context, input any) (any, error)
}

// ResumableStep is a Step that may pause mid-run by returning a *Suspension
// from Execute. Resume re-enters the step with the caller's payload; the
// step's original input is replayed unchanged.
type ResumableStep interface {
	Step
	ValidateResume(resume any) error
	Resume(ctx context.Context, input, resume any) (any, error)
}

// Suspension is the sentinel error a resumable step returns to pause the
// run. It carries the payload surfaced to the caller while suspended.
type Suspension struct {
	Payload any
}

func (s *Suspension) Error() string {
	return "step suspended awaiting external input"
}

// Suspend wraps a payload in a Suspension for return from Step.Execute.
func Suspend(payload any) error {
	return &Suspension{Payload: payload}
}
