package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/resumeranker/resume-uploader/internal/config"
	"github.com/resumeranker/resume-uploader/internal/constants"
	"github.com/resumeranker/resume-uploader/internal/events"
	"github.com/resumeranker/resume-uploader/internal/history"
	"github.com/resumeranker/resume-uploader/internal/intake"
	"github.com/resumeranker/resume-uploader/internal/progress"
	"github.com/resumeranker/resume-uploader/internal/session"
)

// ErrFilesFailed is returned when at least one file ended in error.
// It gives the process a non-zero exit code.
var ErrFilesFailed = errors.New("some files failed to upload")

// ErrNothingToUpload is returned when intake accepted no files.
var ErrNothingToUpload = errors.New("no resume files to upload")

type uploadOptions struct {
	batch       bool
	name        string
	notes       string
	recursive   bool
	showHistory bool
}

// newUploadCmd creates the 'upload' command.
func newUploadCmd() *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload <file|dir|pattern>...",
		Short: "Upload resumes as one batch",
		Long: `Upload resume files to the ingestion API as one batch.

Arguments may be files, glob patterns (quoted or not) or directories.
Directories are scanned for accepted files; use --recursive to descend into
sub-directories. Files are filtered by the configured extensions
(default ` + constants.DefaultAllowedExtensions + `).

By default each file is sent in its own request, in order. With --batch all
files go in one combined request.

Examples:
  resume-upload upload alice.pdf bob.docx
  resume-upload upload "./incoming/*.pdf" --name "Spring hiring"
  resume-upload upload ./incoming --recursive --batch --history`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("batch") {
				cfg.BatchMode = opts.batch
			}
			if cmd.Flags().Changed("recursive") {
				cfg.Recursive = opts.recursive
			}
			return runUpload(GetContext(), cfg, opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&opts.batch, "batch", false, "Send all files in one combined request")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Batch label (default: \"Batch <timestamp>\")")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "Free-text notes kept with the session")
	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "Descend into sub-directories")
	cmd.Flags().BoolVar(&opts.showHistory, "history", false, "Show recent uploads after the batch completes")

	return cmd
}

// runUpload collects args, uploads them as one session and prints the result.
func runUpload(ctx context.Context, cfg *config.Config, opts uploadOptions, args []string, out, errOut io.Writer) error {
	logger := GetLogger()

	sources, err := buildSources(args, cfg.Recursive)
	if err != nil {
		return err
	}

	filter := intake.Filter{
		Extensions: intake.ParseExtensions(cfg.AllowedExtensions),
		MaxSize:    cfg.MaxFileSize(),
	}
	result, err := intake.New(intake.HostFS(), filter).Collect(sources...)
	if err != nil {
		return err
	}
	for _, r := range result.Rejected {
		fmt.Fprintf(errOut, "Skipped %s\n", r)
	}
	if len(result.Payloads) == 0 {
		return ErrNothingToUpload
	}

	client, err := getAPIClient(cfg)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	defer bus.Close()

	managerOpts := []session.Option{
		session.WithEventBus(bus),
		session.WithLogger(logger),
		session.WithBatchMode(cfg.BatchMode),
	}
	var refresher *history.Refresher
	if opts.showHistory {
		refresher = history.NewRefresher(client, logger)
		managerOpts = append(managerOpts, session.WithOnComplete(refresher.Hook(ctx)))
	}

	m := session.NewManager(client, managerOpts...)
	m.AddFiles(result.Payloads...)
	if opts.name != "" {
		if err := m.SetBatchLabel(opts.name); err != nil {
			return err
		}
	}
	m.SetNotes(opts.notes)

	ui := progress.NewSessionUI(errOut)
	ui.Attach(bus)
	err = m.Upload(ctx)
	ui.Close()
	if err != nil {
		return err
	}

	if dropped := bus.GetDroppedEventCount(); dropped > 0 {
		logger.Debug().Int64("dropped", dropped).Msg("Progress events dropped")
	}

	snap := m.Snapshot()
	printBanner(out, snap)

	if refresher != nil {
		fmt.Fprintln(out)
		if err := refresher.Err(); err != nil {
			fmt.Fprintf(errOut, "Warning: %v\n", err)
		} else if err := history.Render(out, refresher.Latest(), history.RenderOptions{Limit: constants.DefaultHistoryLimit}); err != nil {
			return err
		}
	}

	if snap.Summary.ErrorCount > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFilesFailed, snap.Summary.ErrorCount, snap.Summary.Total)
	}
	return nil
}

// buildSources turns directories into a Drop and everything else (files,
// globs) into a Selection. Paths are made absolute for the host filesystem.
func buildSources(args []string, recursive bool) ([]intake.Source, error) {
	sel := intake.Selection{}
	drop := intake.Drop{Recursive: recursive}

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", arg, err)
		}
		abs = filepath.ToSlash(abs)
		if !strings.ContainsAny(arg, "*?[") {
			if info, err := os.Stat(abs); err == nil && info.IsDir() {
				drop.Roots = append(drop.Roots, abs)
				continue
			}
		}
		sel.Paths = append(sel.Paths, abs)
	}

	var sources []intake.Source
	if len(sel.Paths) > 0 {
		sources = append(sources, sel)
	}
	if len(drop.Roots) > 0 {
		sources = append(sources, drop)
	}
	return sources, nil
}

// printBanner prints the completion banner and the batch identity.
func printBanner(out io.Writer, snap session.Snapshot) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, snap.Summary.Headline())
	fmt.Fprintln(out, snap.Summary.Detail())
	fmt.Fprintf(out, "Batch: %s (%s)\n", snap.Batch.BatchLabel, snap.Batch.BatchID)
	if snap.Notes != "" {
		fmt.Fprintf(out, "Notes: %s\n", snap.Notes)
	}
}
