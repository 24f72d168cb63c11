// File: internal/agent/completion.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// CompletionStep folds the execution report into the workflow's final
// output. Purely deterministic; no model call.
type CompletionStep struct {
	logger *zap.Logger
}

func NewCompletionStep(logger *zap.Logger) *CompletionStep {
	return &CompletionStep{logger: logger.Named("completion_step")}
}

func (s *CompletionStep) ID() string { return schemas.StepCompletion }

func (s *CompletionStep) Execute(ctx context.Context, input any) (any, error) {
	in, ok := input.(schemas.ExecutionOutput)
	if !ok {
		return nil, fmt.Errorf("completion step received unexpected input type %T", input)
	}

	out := schemas.CompletionOutput{
		IsComplete: !in.NextStepNeeded,
		Summary:    in.ActionResult,
	}
	if in.NextStepNeeded {
		out.NextActions = []string{
			"Start a new run to continue from the current page",
			"Refine the objective and try again",
		}
	}

	s.logger.Info("Workflow finished", zap.Bool("is_complete", out.IsComplete))
	return out, nil
}
