// cmd/artifacts.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
	"github.com/xkilldash9x/webpilot-cli/internal/service"
)

// newArtifactsCmd groups the artifact store subcommands.
func newArtifactsCmd() *cobra.Command {
	artifactsCmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Inspect and manage captured artifacts",
	}
	artifactsCmd.AddCommand(newArtifactsListCmd(), newArtifactsShowCmd(), newArtifactsDeleteCmd())
	return artifactsCmd
}

func newArtifactsListCmd() *cobra.Command {
	var (
		sessionID string
		fileType  string
		limit     int
		offset    int
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, st, err := service.NewStore(ctx, appCfg, observability.GetLogger())
			if err != nil {
				return err
			}
			defer pool.Close()

			list, total, err := st.List(ctx, schemas.ArtifactFilter{
				SessionID: sessionID,
				FileType:  schemas.FileType(fileType),
				Limit:     limit,
				Offset:    offset,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSESSION\tFILE\tTYPE\tSIZE\tTRACE\tCREATED")
			for _, a := range list {
				trace := ""
				if a.TraceID != nil {
					trace = *a.TraceID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					a.ID, a.SessionID, a.FileName, a.FileType, a.Size, trace,
					a.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d artifacts\n", len(list), total)
			return nil
		},
	}

	listCmd.Flags().StringVar(&sessionID, "session", "", "filter by session id")
	listCmd.Flags().StringVar(&fileType, "type", "", "filter by file type (screenshot, trace, session, other)")
	listCmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to return")
	listCmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return listCmd
}

func newArtifactsShowCmd() *cobra.Command {
	var outFile string

	showCmd := &cobra.Command{
		Use:   "show <artifact-id>",
		Short: "Show an artifact, optionally writing its content to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, st, err := service.NewStore(ctx, appCfg, observability.GetLogger())
			if err != nil {
				return err
			}
			defer pool.Close()

			artifact, err := st.GetByID(ctx, args[0])
			if err != nil {
				return err
			}

			if outFile != "" {
				if err := os.WriteFile(outFile, artifact.Content, 0o644); err != nil {
					return fmt.Errorf("failed to write content: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(artifact.Content), outFile)
			}

			// The summary view never dumps raw bytes to the terminal.
			summary := *artifact
			summary.Content = nil
			printJSON(cmd, summary)
			return nil
		},
	}

	showCmd.Flags().StringVarP(&outFile, "output", "o", "", "write artifact content to this file")
	return showCmd
}

func newArtifactsDeleteCmd() *cobra.Command {
	var sessionID string

	deleteCmd := &cobra.Command{
		Use:   "delete [artifact-id]",
		Short: "Delete one artifact by id, or all artifacts of a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 && sessionID == "" {
				return fmt.Errorf("provide an artifact id or --session")
			}

			pool, st, err := service.NewStore(ctx, appCfg, observability.GetLogger())
			if err != nil {
				return err
			}
			defer pool.Close()

			if sessionID != "" {
				n, err := st.DeleteBySessionID(ctx, sessionID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d artifacts for session %s\n", n, sessionID)
				return nil
			}

			ok, err := st.DeleteByID(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return &schemas.NotFoundError{Kind: "artifact", ID: args[0]}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted artifact %s\n", args[0])
			return nil
		},
	}

	deleteCmd.Flags().StringVar(&sessionID, "session", "", "delete every artifact of this session")
	return deleteCmd
}
