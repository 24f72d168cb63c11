// cmd/run.go
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/artifacts"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
	"github.com/xkilldash9x/webpilot-cli/internal/service"
)

// newRunCmd creates the `run` command: one workflow execution, with an
// interactive prompt when the planner suspends.
func newRunCmd() *cobra.Command {
	var (
		auto    bool
		noWatch bool
	)

	runCmd := &cobra.Command{
		Use:   "run <url> <objective...>",
		Short: "Run a web automation workflow against a URL",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			app, err := service.New(ctx, appCfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			// The watcher shadows the artifact directory for the whole run
			// so screenshots and transcripts land in the store.
			if app.Store != nil && !noWatch {
				watcher := artifacts.NewWatcher(logger, app.Store,
					appCfg.Watcher.Directory,
					"session_"+app.Agent.SessionID(),
					artifacts.WithSettleDelay(appCfg.Watcher.SettleDelay),
					artifacts.WithMaxConcurrent(int64(appCfg.Watcher.MaxConcurrent)),
				)
				if err := watcher.Start(ctx); err != nil {
					return fmt.Errorf("failed to start artifact watcher: %w", err)
				}
				defer func() {
					// Give the last written files time to settle before the
					// watcher drains.
					time.Sleep(appCfg.Watcher.SettleDelay + 100*time.Millisecond)
					watcher.Stop()
				}()
			}

			// Tail the session transcript for live progress. Losing the
			// tail never fails the run.
			var follower *artifacts.Follower
			if path := app.Agent.TranscriptPath(); path != "" {
				follower = artifacts.NewFollower(logger, path, false)
				if err := follower.Start(); err != nil {
					logger.Warn("Transcript follower unavailable", zap.Error(err))
					follower = nil
				} else {
					defer follower.Stop()
				}
			}

			input := schemas.NavigationInput{
				URL:       args[0],
				Objective: strings.Join(args[1:], " "),
			}

			res, err := app.Engine.Start(ctx, input)
			if err != nil {
				return err
			}

			for res.Status == schemas.RunSuspended {
				printProgress(cmd, follower)
				resume, err := promptForAction(cmd, res, auto)
				if err != nil {
					return err
				}
				res, err = app.Engine.Resume(ctx, res.RunID, res.StepID, resume)
				if err != nil {
					return err
				}
			}
			printProgress(cmd, follower)

			switch res.Status {
			case schemas.RunCompleted:
				printJSON(cmd, res.Output)
				return nil
			case schemas.RunFailed:
				printJSON(cmd, res.Err)
				return fmt.Errorf("run %s failed: %s", res.RunID, res.Err.Message)
			default:
				logger.Error("Run ended in unexpected status", zap.String("status", string(res.Status)))
				return fmt.Errorf("run %s ended in unexpected status %s", res.RunID, res.Status)
			}
		},
	}

	runCmd.Flags().BoolVar(&auto, "auto", false, "pick the first available action instead of prompting when the planner pauses")
	runCmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not capture artifacts during the run")
	return runCmd
}

// promptForAction turns a suspension payload into a resume payload, either
// interactively or, with --auto, by taking the first available action.
func promptForAction(cmd *cobra.Command, res *schemas.RunResult, auto bool) (schemas.PlanningResume, error) {
	payload, ok := res.SuspendPayload.(schemas.PlanningSuspend)
	if !ok {
		return schemas.PlanningResume{}, fmt.Errorf("run %s suspended with an unexpected payload", res.RunID)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nThe planner needs input.")
	fmt.Fprintln(cmd.OutOrStdout(), "Page analysis:", payload.PageAnalysis)
	for i, action := range payload.AvailableActions {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d) %s\n", i+1, action)
	}

	if auto {
		if len(payload.AvailableActions) == 0 {
			return schemas.PlanningResume{}, fmt.Errorf("cannot auto-resume: no available actions")
		}
		action := payload.AvailableActions[0]
		fmt.Fprintf(cmd.OutOrStdout(), "Auto-selecting: %s\n", action)
		return schemas.PlanningResume{SelectedAction: action, ActionDetails: "Auto-selected first available action"}, nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprint(cmd.OutOrStdout(), "Action to take: ")
	action, err := reader.ReadString('\n')
	if err != nil {
		return schemas.PlanningResume{}, fmt.Errorf("failed to read action: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), "Details (optional): ")
	details, err := reader.ReadString('\n')
	// Details are optional, so piped input may end here without a trailing
	// newline. Only EOF is tolerated.
	if err != nil && !errors.Is(err, io.EOF) {
		return schemas.PlanningResume{}, fmt.Errorf("failed to read details: %w", err)
	}

	return schemas.PlanningResume{
		SelectedAction: strings.TrimSpace(action),
		ActionDetails:  strings.TrimSpace(details),
	}, nil
}

// printProgress reports what the transcript follower has seen so far.
func printProgress(cmd *cobra.Command, f *artifacts.Follower) {
	if f == nil {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Transcript: %d entries\n", f.Lines())
	if ids := f.TraceIDs(); len(ids) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Traces referenced: %s\n", strings.Join(ids, ", "))
	}
}

func printJSON(cmd *cobra.Command, v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to render output:", err)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
}
