// File: internal/agent/planning.go
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/engine"
)

// PlanningStep decides the next action. If the model commits to an
// unambiguous next step it proceeds autonomously; otherwise the run is
// suspended and the caller supplies the action on resume.
type PlanningStep struct {
	agent  schemas.Agent
	logger *zap.Logger
}

var _ engine.ResumableStep = (*PlanningStep)(nil)

func NewPlanningStep(logger *zap.Logger, ag schemas.Agent) *PlanningStep {
	return &PlanningStep{agent: ag, logger: logger.Named("planning_step")}
}

func (s *PlanningStep) ID() string { return schemas.StepActionPlanning }

func (s *PlanningStep) Execute(ctx context.Context, input any) (any, error) {
	in, ok := input.(schemas.NavigationOutput)
	if !ok {
		return nil, fmt.Errorf("planning step received unexpected input type %T", input)
	}

	prompt := fmt.Sprintf(
		`Page analysis:
%s

Available actions: %s
Objective: %s

If exactly one next action is the obvious way forward, reply with:
DECISION: PROCEED_AUTO
ACTION: <what to do>
DETAILS: <how to do it>

If the choice is ambiguous or needs a preference only the user has, reply with:
DECISION: NEED_USER_INPUT
REASON: <why>`,
		in.PageAnalysis, strings.Join(in.AvailableActions, ", "), in.Objective)

	reply, err := s.agent.Invoke(ctx, []schemas.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, &schemas.AgentError{StepID: s.ID(), Err: err}
	}

	decision := ParseDecision(reply)
	if !decision.Proceed {
		s.logger.Info("Planning needs user input", zap.String("reason", decision.Reason))
		return nil, engine.Suspend(schemas.PlanningSuspend{
			PageAnalysis:     in.PageAnalysis,
			AvailableActions: in.AvailableActions,
		})
	}

	s.logger.Info("Planning proceeding autonomously", zap.String("action", decision.Action))
	return schemas.PlanningOutput{
		URL:            in.URL,
		Objective:      in.Objective,
		SelectedAction: decision.Action,
		ActionDetails:  decision.Details,
	}, nil
}

// ValidateResume rejects payloads that cannot re-enter the step, leaving
// the run suspended.
func (s *PlanningStep) ValidateResume(resume any) error {
	r, ok := resume.(schemas.PlanningResume)
	if !ok {
		return &schemas.ValidationError{Field: "resume", Reason: fmt.Sprintf("unexpected payload type %T", resume)}
	}
	if strings.TrimSpace(r.SelectedAction) == "" {
		return &schemas.ValidationError{Field: "selectedAction", Reason: "must not be empty"}
	}
	return nil
}

// Resume completes the step with the caller's chosen action. The original
// navigation output is replayed so URL and objective carry through.
func (s *PlanningStep) Resume(ctx context.Context, input, resume any) (any, error) {
	in, ok := input.(schemas.NavigationOutput)
	if !ok {
		return nil, fmt.Errorf("planning step received unexpected input type %T", input)
	}
	r := resume.(schemas.PlanningResume)

	details := r.ActionDetails
	if details == "" {
		details = "User-selected action"
	}

	s.logger.Info("Planning resumed with user action", zap.String("action", r.SelectedAction))
	return schemas.PlanningOutput{
		URL:            in.URL,
		Objective:      in.Objective,
		SelectedAction: r.SelectedAction,
		ActionDetails:  details,
	}, nil
}
