// File: internal/agent/execution.go
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/browser"
)

// CompletionPredicate decides from the agent's report whether the
// objective has been met and no further cycle is needed.
type CompletionPredicate func(actionResult string) bool

// DefaultCompletionPredicate matches any of the given phrases,
// case-insensitively, anywhere in the report.
func DefaultCompletionPredicate(phrases []string) CompletionPredicate {
	if len(phrases) == 0 {
		phrases = []string{"objective completed", "task finished"}
	}
	lowered := make([]string, len(phrases))
	for i, p := range phrases {
		lowered[i] = strings.ToLower(p)
	}
	return func(actionResult string) bool {
		result := strings.ToLower(actionResult)
		for _, p := range lowered {
			if strings.Contains(result, p) {
				return true
			}
		}
		return false
	}
}

// ExecutionStep performs the selected action through the agent and
// assesses whether the objective still needs another cycle.
type ExecutionStep struct {
	agent    schemas.Agent
	browser  schemas.BrowserSession
	complete CompletionPredicate
	logger   *zap.Logger
}

func NewExecutionStep(logger *zap.Logger, ag schemas.Agent, bs schemas.BrowserSession, complete CompletionPredicate) *ExecutionStep {
	if complete == nil {
		complete = DefaultCompletionPredicate(nil)
	}
	return &ExecutionStep{agent: ag, browser: bs, complete: complete, logger: logger.Named("execution_step")}
}

func (s *ExecutionStep) ID() string { return schemas.StepActionExecution }

func (s *ExecutionStep) Execute(ctx context.Context, input any) (any, error) {
	in, ok := input.(schemas.PlanningOutput)
	if !ok {
		return nil, fmt.Errorf("execution step received unexpected input type %T", input)
	}

	prompt := fmt.Sprintf(
		"Perform this action in the browser: %s\nDetails: %s\nOverall objective: %s\n"+
			"Afterwards report what happened and whether the objective is now met. "+
			"If it is, include the phrase \"objective completed\" in your report.",
		in.SelectedAction, in.ActionDetails, in.Objective)

	result, err := s.agent.Invoke(ctx, []schemas.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, &schemas.AgentError{StepID: s.ID(), Err: err}
	}

	// The page title is enough to identify where the action landed; the
	// full DOM stays out of the run state.
	pageState := "unknown"
	if html, htmlErr := s.browser.PageHTML(ctx); htmlErr != nil {
		s.logger.Warn("Could not capture page state after action", zap.Error(htmlErr))
	} else if title := browser.Title(html); title != "" {
		pageState = title
	}

	done := s.complete(result)
	s.logger.Info("Action executed",
		zap.String("action", in.SelectedAction),
		zap.Bool("objective_met", done),
	)

	return schemas.ExecutionOutput{
		ActionResult:   result,
		PageState:      pageState,
		NextStepNeeded: !done,
	}, nil
}
