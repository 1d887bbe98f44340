package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/resumeranker/resume-uploader/internal/constants"
	"github.com/resumeranker/resume-uploader/internal/history"
)

// newHistoryCmd creates the 'history' command.
func newHistoryCmd() *cobra.Command {
	var opts history.RenderOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent upload batches",
		Long: `List the most recent upload batches known to the ingestion API,
newest first, with their file count and processing status.

Examples:
  resume-upload history
  resume-upload history --limit 3 --files
  resume-upload history --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := getAPIClient(cfg)
			if err != nil {
				return err
			}

			r := history.NewRefresher(client, GetLogger())
			if err := r.Refresh(GetContext()); err != nil {
				return err
			}
			if err := history.Render(cmd.OutOrStdout(), r.Latest(), opts); err != nil {
				return fmt.Errorf("failed to render history: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", constants.DefaultHistoryLimit, "Maximum number of batches to show")
	cmd.Flags().BoolVar(&opts.ShowFiles, "files", false, "List the files of each batch")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")

	return cmd
}
