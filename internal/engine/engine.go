// internal/engine/engine.go
package engine

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// Engine drives a fixed pipeline of steps and tracks the state of each run.
// Runs execute sequentially within their own lock; a suspended run holds no
// lock and can be resumed from any goroutine. Engine instances are
// self-contained; callers own their handles.
type Engine struct {
	logger *zap.Logger
	steps  []Step

	mu   sync.RWMutex
	runs map[string]*run
}

// run is the mutable state of one workflow execution. Its mutex serializes
// execution and resumption; reads snapshot under the same lock.
type run struct {
	mu sync.Mutex

	id      string
	status  schemas.RunStatus
	stepIdx int
	stepID  string

	// input is the payload owed to the step at stepIdx; preserved across a
	// suspension so Resume can replay it.
	input any

	outputs        map[string]any
	suspendPayload any
	finalOutput    any
	errDesc        *schemas.ErrorDescriptor
}

// New creates an engine over an ordered step pipeline.
func New(logger *zap.Logger, steps ...Step) *Engine {
	return &Engine{
		logger: logger.Named("engine"),
		steps:  steps,
		runs:   make(map[string]*run),
	}
}

// Start validates the input, creates a new run, and executes steps until
// the pipeline completes, suspends, or fails.
func (e *Engine) Start(ctx context.Context, input schemas.NavigationInput) (*schemas.RunResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	r := &run{
		id:      uuid.NewString(),
		status:  schemas.RunRunning,
		outputs: make(map[string]any),
	}

	e.mu.Lock()
	e.runs[r.id] = r
	e.mu.Unlock()

	e.logger.Info("Workflow run started",
		zap.String("run_id", r.id),
		zap.String("url", input.URL),
		zap.String("objective", input.Objective),
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	e.advance(ctx, r, 0, input)
	return e.snapshot(r), nil
}

// Resume re-enters a suspended run with the caller's payload and continues
// the pipeline from where it paused. stepID must match the step the run
// suspended at. A run that is not suspended, or a mismatched stepID, leaves
// the run untouched and returns an InvalidStateError.
func (e *Engine) Resume(ctx context.Context, runID, stepID string, resume any) (*schemas.RunResult, error) {
	e.mu.RLock()
	r, ok := e.runs[runID]
	e.mu.RUnlock()
	if !ok {
		return nil, &schemas.NotFoundError{Kind: "run", ID: runID}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != schemas.RunSuspended {
		return nil, &schemas.InvalidStateError{
			RunID:  runID,
			Reason: "run is not suspended (status: " + string(r.status) + ")",
		}
	}
	if stepID != r.stepID {
		return nil, &schemas.InvalidStateError{
			RunID:  runID,
			Reason: "run is suspended at step " + r.stepID + ", not " + stepID,
		}
	}

	step := e.steps[r.stepIdx]
	resumable, ok := step.(ResumableStep)
	if !ok {
		return nil, &schemas.InvalidStateError{
			RunID:  runID,
			Reason: "suspended step does not accept resume input",
		}
	}

	// Validation happens before any state changes so a bad payload leaves
	// the run resumable.
	if err := resumable.ValidateResume(resume); err != nil {
		return nil, err
	}

	e.logger.Info("Resuming workflow run",
		zap.String("run_id", runID),
		zap.String("step", step.ID()),
	)

	output, err := resumable.Resume(ctx, r.input, resume)
	if err != nil {
		var susp *Suspension
		if errors.As(err, &susp) {
			r.status = schemas.RunSuspended
			r.suspendPayload = susp.Payload
			return e.snapshot(r), nil
		}
		e.fail(r, step.ID(), err)
		return e.snapshot(r), nil
	}

	r.status = schemas.RunRunning
	r.suspendPayload = nil
	r.outputs[step.ID()] = output
	e.advance(ctx, r, r.stepIdx+1, output)
	return e.snapshot(r), nil
}

// Get returns a snapshot of the run's current state.
func (e *Engine) Get(runID string) (*schemas.RunResult, error) {
	e.mu.RLock()
	r, ok := e.runs[runID]
	e.mu.RUnlock()
	if !ok {
		return nil, &schemas.NotFoundError{Kind: "run", ID: runID}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return e.snapshot(r), nil
}

// StepOutput returns the recorded output of a completed step in a run.
func (e *Engine) StepOutput(runID, stepID string) (any, error) {
	e.mu.RLock()
	r, ok := e.runs[runID]
	e.mu.RUnlock()
	if !ok {
		return nil, &schemas.NotFoundError{Kind: "run", ID: runID}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.outputs[stepID]
	if !ok {
		return nil, &schemas.NotFoundError{Kind: "step output", ID: stepID}
	}
	return out, nil
}

// advance executes steps from idx onward until the pipeline completes,
// suspends, or fails. Caller holds r.mu.
func (e *Engine) advance(ctx context.Context, r *run, idx int, input any) {
	for i := idx; i < len(e.steps); i++ {
		step := e.steps[i]
		r.stepIdx = i
		r.stepID = step.ID()
		r.input = input

		e.logger.Debug("Executing step", zap.String("run_id", r.id), zap.String("step", step.ID()))

		output, err := step.Execute(ctx, input)
		if err != nil {
			var susp *Suspension
			if errors.As(err, &susp) {
				r.status = schemas.RunSuspended
				r.suspendPayload = susp.Payload
				e.logger.Info("Workflow run suspended",
					zap.String("run_id", r.id),
					zap.String("step", step.ID()),
				)
				return
			}
			e.fail(r, step.ID(), err)
			return
		}

		r.outputs[step.ID()] = output
		input = output
	}

	r.status = schemas.RunCompleted
	r.finalOutput = input
	e.logger.Info("Workflow run completed", zap.String("run_id", r.id))
}

// fail marks the run failed with a caller-facing error descriptor.
func (e *Engine) fail(r *run, stepID string, err error) {
	r.status = schemas.RunFailed
	r.errDesc = schemas.Describe(err)
	e.logger.Error("Workflow run failed",
		zap.String("run_id", r.id),
		zap.String("step", stepID),
		zap.Error(err),
	)
}

// snapshot renders the run's state as a RunResult. Caller holds r.mu.
func (e *Engine) snapshot(r *run) *schemas.RunResult {
	res := &schemas.RunResult{
		RunID:  r.id,
		Status: r.status,
		StepID: r.stepID,
	}
	switch r.status {
	case schemas.RunSuspended:
		res.SuspendPayload = r.suspendPayload
	case schemas.RunCompleted:
		res.Output = r.finalOutput
	case schemas.RunFailed:
		res.Err = r.errDesc
	}
	return res
}

func validateInput(input schemas.NavigationInput) error {
	if input.Objective == "" {
		return &schemas.ValidationError{Field: "objective", Reason: "must not be empty"}
	}
	if input.URL == "" {
		return &schemas.ValidationError{Field: "url", Reason: "must not be empty"}
	}
	u, err := url.Parse(input.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &schemas.ValidationError{Field: "url", Reason: "must be an absolute http or https URL"}
	}
	return nil
}
