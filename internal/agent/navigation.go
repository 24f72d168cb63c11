// File: internal/agent/navigation.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/browser"
)

// NavigationStep opens the target URL and has the agent analyze the page
// in light of the objective. Available actions are extracted structurally
// from the DOM rather than trusted to the model.
type NavigationStep struct {
	agent   schemas.Agent
	browser schemas.BrowserSession
	logger  *zap.Logger
}

func NewNavigationStep(logger *zap.Logger, ag schemas.Agent, bs schemas.BrowserSession) *NavigationStep {
	return &NavigationStep{agent: ag, browser: bs, logger: logger.Named("navigation_step")}
}

func (s *NavigationStep) ID() string { return schemas.StepNavigation }

func (s *NavigationStep) Execute(ctx context.Context, input any) (any, error) {
	in, ok := input.(schemas.NavigationInput)
	if !ok {
		return nil, fmt.Errorf("navigation step received unexpected input type %T", input)
	}

	prompt := fmt.Sprintf(
		"Navigate to %s and analyze the page with this objective in mind: %s\n"+
			"Describe what the page offers, its main interactive elements, and which parts look relevant to the objective.",
		in.URL, in.Objective)

	analysis, err := s.agent.Invoke(ctx, []schemas.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, &schemas.AgentError{StepID: s.ID(), Err: err}
	}

	// Action labels come from the live DOM; an unreadable page degrades to
	// an empty list rather than failing the step.
	var actions []string
	if html, htmlErr := s.browser.PageHTML(ctx); htmlErr != nil {
		s.logger.Warn("Could not extract available actions", zap.Error(htmlErr))
	} else {
		actions = browser.ExtractActions(html)
	}

	s.logger.Info("Navigation complete",
		zap.String("url", in.URL),
		zap.Int("available_actions", len(actions)),
	)

	return schemas.NavigationOutput{
		URL:              in.URL,
		Objective:        in.Objective,
		PageAnalysis:     analysis,
		AvailableActions: actions,
	}, nil
}
