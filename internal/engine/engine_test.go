package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// fakeStep is a scripted pipeline stage for engine tests.
type fakeStep struct {
	id      string
	execute func(ctx context.Context, input any) (any, error)
}

func (f *fakeStep) ID() string { return f.id }

func (f *fakeStep) Execute(ctx context.Context, input any) (any, error) {
	return f.execute(ctx, input)
}

// fakeResumableStep suspends on first execution and records resume payloads.
type fakeResumableStep struct {
	fakeStep
	validate func(resume any) error
	resume   func(ctx context.Context, input, resume any) (any, error)
}

func (f *fakeResumableStep) ValidateResume(resume any) error {
	if f.validate == nil {
		return nil
	}
	return f.validate(resume)
}

func (f *fakeResumableStep) Resume(ctx context.Context, input, resume any) (any, error) {
	return f.resume(ctx, input, resume)
}

func passthrough(id string) *fakeStep {
	return &fakeStep{id: id, execute: func(_ context.Context, input any) (any, error) {
		return fmt.Sprintf("%s(%v)", id, input), nil
	}}
}

func validInput() schemas.NavigationInput {
	return schemas.NavigationInput{URL: "https://example.com", Objective: "find the pricing page"}
}

func TestStartValidation(t *testing.T) {
	e := New(zap.NewNop(), passthrough("only"))

	cases := []struct {
		name  string
		input schemas.NavigationInput
		field string
	}{
		{"empty objective", schemas.NavigationInput{URL: "https://example.com"}, "objective"},
		{"empty url", schemas.NavigationInput{Objective: "x"}, "url"},
		{"relative url", schemas.NavigationInput{URL: "/pricing", Objective: "x"}, "url"},
		{"unsupported scheme", schemas.NavigationInput{URL: "ftp://example.com", Objective: "x"}, "url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Start(context.Background(), tc.input)
			var verr *schemas.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestStartRunsAllStepsToCompletion(t *testing.T) {
	var order []string
	step := func(id string) *fakeStep {
		return &fakeStep{id: id, execute: func(_ context.Context, input any) (any, error) {
			order = append(order, id)
			return id + "-out", nil
		}}
	}
	e := New(zap.NewNop(), step("navigation"), step("action-planning"), step("action-execution"), step("completion"))

	res, err := e.Start(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, schemas.RunCompleted, res.Status)
	assert.Equal(t, "completion-out", res.Output)
	assert.Equal(t, []string{"navigation", "action-planning", "action-execution", "completion"}, order)
	assert.NotEmpty(t, res.RunID)
}

func TestStartNeverReturnsRunning(t *testing.T) {
	e := New(zap.NewNop(), passthrough("a"), passthrough("b"))
	res, err := e.Start(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEqual(t, schemas.RunRunning, res.Status)
}

func TestStepFailureMarksRunFailed(t *testing.T) {
	boom := &schemas.AgentError{StepID: "navigation", Err: errors.New("browser crashed")}
	failing := &fakeStep{id: "navigation", execute: func(_ context.Context, _ any) (any, error) {
		return nil, boom
	}}
	e := New(zap.NewNop(), failing, passthrough("completion"))

	res, err := e.Start(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, schemas.RunFailed, res.Status)
	require.NotNil(t, res.Err)
	assert.Equal(t, schemas.ErrCodeAgent, res.Err.Code)

	// The pipeline must not continue past a failed step.
	_, outErr := e.StepOutput(res.RunID, "completion")
	assert.Error(t, outErr)
}

func newSuspendingEngine(t *testing.T) (*Engine, *fakeResumableStep) {
	t.Helper()
	planning := &fakeResumableStep{
		fakeStep: fakeStep{id: "action-planning", execute: func(_ context.Context, _ any) (any, error) {
			return nil, Suspend(schemas.PlanningSuspend{
				PageAnalysis:     "login page",
				AvailableActions: []string{"Sign in", "Register"},
			})
		}},
		validate: func(resume any) error {
			r, ok := resume.(schemas.PlanningResume)
			if !ok || r.SelectedAction == "" {
				return &schemas.ValidationError{Field: "selectedAction", Reason: "must not be empty"}
			}
			return nil
		},
		resume: func(_ context.Context, _, resume any) (any, error) {
			r := resume.(schemas.PlanningResume)
			return schemas.PlanningOutput{SelectedAction: r.SelectedAction, ActionDetails: r.ActionDetails}, nil
		},
	}
	e := New(zap.NewNop(), passthrough("navigation"), planning, passthrough("action-execution"), passthrough("completion"))
	return e, planning
}

func TestSuspendAndResume(t *testing.T) {
	e, _ := newSuspendingEngine(t)

	res, err := e.Start(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, schemas.RunSuspended, res.Status)
	assert.Equal(t, "action-planning", res.StepID)

	payload, ok := res.SuspendPayload.(schemas.PlanningSuspend)
	require.True(t, ok)
	assert.Equal(t, []string{"Sign in", "Register"}, payload.AvailableActions)

	resumed, err := e.Resume(context.Background(), res.RunID, "action-planning",
		schemas.PlanningResume{SelectedAction: "Sign in", ActionDetails: "use the test account"})
	require.NoError(t, err)
	assert.Equal(t, schemas.RunCompleted, resumed.Status)

	out, err := e.StepOutput(res.RunID, "action-planning")
	require.NoError(t, err)
	assert.Equal(t, "Sign in", out.(schemas.PlanningOutput).SelectedAction)
}

func TestResumeErrors(t *testing.T) {
	t.Run("unknown run id", func(t *testing.T) {
		e, _ := newSuspendingEngine(t)
		_, err := e.Resume(context.Background(), "no-such-run", "action-planning", schemas.PlanningResume{SelectedAction: "x"})
		var nf *schemas.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "run", nf.Kind)
	})

	t.Run("run not suspended", func(t *testing.T) {
		e := New(zap.NewNop(), passthrough("navigation"))
		res, err := e.Start(context.Background(), validInput())
		require.NoError(t, err)
		require.Equal(t, schemas.RunCompleted, res.Status)

		_, err = e.Resume(context.Background(), res.RunID, "action-planning", schemas.PlanningResume{SelectedAction: "x"})
		var ise *schemas.InvalidStateError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, res.RunID, ise.RunID)
	})

	t.Run("step id mismatch", func(t *testing.T) {
		e, _ := newSuspendingEngine(t)
		res, err := e.Start(context.Background(), validInput())
		require.NoError(t, err)
		require.Equal(t, schemas.RunSuspended, res.Status)

		_, err = e.Resume(context.Background(), res.RunID, "navigation", schemas.PlanningResume{SelectedAction: "x"})
		var ise *schemas.InvalidStateError
		require.ErrorAs(t, err, &ise)
		assert.Contains(t, ise.Reason, "action-planning")

		// The run stays suspended and resumable at the right step.
		resumed, err := e.Resume(context.Background(), res.RunID, "action-planning", schemas.PlanningResume{SelectedAction: "Sign in"})
		require.NoError(t, err)
		assert.Equal(t, schemas.RunCompleted, resumed.Status)
	})

	t.Run("invalid resume payload leaves the run suspended and unchanged", func(t *testing.T) {
		e, _ := newSuspendingEngine(t)
		res, err := e.Start(context.Background(), validInput())
		require.NoError(t, err)
		before, err := e.Get(res.RunID)
		require.NoError(t, err)

		_, err = e.Resume(context.Background(), res.RunID, "action-planning", schemas.PlanningResume{})
		var verr *schemas.ValidationError
		require.ErrorAs(t, err, &verr)

		after, err := e.Get(res.RunID)
		require.NoError(t, err)
		if diff := cmp.Diff(before, after); diff != "" {
			t.Fatalf("run state changed by rejected resume (-before +after):\n%s", diff)
		}

		// The run is still resumable with a valid payload.
		resumed, err := e.Resume(context.Background(), res.RunID, "action-planning", schemas.PlanningResume{SelectedAction: "Sign in"})
		require.NoError(t, err)
		assert.Equal(t, schemas.RunCompleted, resumed.Status)
	})

	t.Run("second resume of a completed run is rejected", func(t *testing.T) {
		e, _ := newSuspendingEngine(t)
		res, err := e.Start(context.Background(), validInput())
		require.NoError(t, err)

		_, err = e.Resume(context.Background(), res.RunID, "action-planning", schemas.PlanningResume{SelectedAction: "Sign in"})
		require.NoError(t, err)

		_, err = e.Resume(context.Background(), res.RunID, "action-planning", schemas.PlanningResume{SelectedAction: "Register"})
		var ise *schemas.InvalidStateError
		require.ErrorAs(t, err, &ise)
	})
}

func TestGet(t *testing.T) {
	e, _ := newSuspendingEngine(t)

	_, err := e.Get("missing")
	var nf *schemas.NotFoundError
	require.ErrorAs(t, err, &nf)

	res, err := e.Start(context.Background(), validInput())
	require.NoError(t, err)

	got, err := e.Get(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, schemas.RunSuspended, got.Status)
	assert.Equal(t, "action-planning", got.StepID)
}
