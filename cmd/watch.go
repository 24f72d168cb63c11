// cmd/watch.go
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/internal/artifacts"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
	"github.com/xkilldash9x/webpilot-cli/internal/service"
)

// newWatchCmd creates the `watch` command: a standalone artifact watcher
// that captures files dropped into a directory until interrupted.
func newWatchCmd() *cobra.Command {
	var sessionID string

	watchCmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Watch a directory and persist new files as artifacts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			dir := appCfg.Watcher.Directory
			if len(args) == 1 {
				dir = args[0]
			}

			pool, st, err := service.NewStore(ctx, appCfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			watcher := artifacts.NewWatcher(logger, st, dir, sessionID,
				artifacts.WithSettleDelay(appCfg.Watcher.SettleDelay),
				artifacts.WithMaxConcurrent(int64(appCfg.Watcher.MaxConcurrent)),
			)
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			logger.Info("Watching for artifacts",
				zap.String("directory", dir),
				zap.String("session_id", watcher.SessionID()),
			)

			<-ctx.Done()
			logger.Info("Shutting down watcher")
			return nil
		},
	}

	watchCmd.Flags().StringVar(&sessionID, "session", "", "session id to tag captured artifacts with (default: generated)")
	return watchCmd
}
