// Package history fetches and renders the ingestion API's recent-upload list.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/resumeranker/resume-uploader/internal/logging"
	"github.com/resumeranker/resume-uploader/internal/models"
)

// ErrFetchFailed wraps every history fetch failure.
var ErrFetchFailed = errors.New("failed to fetch recent uploads")

// Fetcher is implemented by api.Client.
type Fetcher interface {
	RecentUploads(ctx context.Context) (*models.RecentUploadsResponse, error)
}

// Refresher keeps the latest history listing and re-fetches it whenever a
// session signals completion.
type Refresher struct {
	fetcher Fetcher
	logger  *logging.Logger

	mu      sync.Mutex
	uploads []models.RecentUpload
	lastErr error
	fetches int
}

// NewRefresher creates a Refresher. A nil logger discards output.
func NewRefresher(f Fetcher, logger *logging.Logger) *Refresher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Refresher{fetcher: f, logger: logger}
}

// Refresh fetches the listing and replaces the cached copy on success.
// On failure the previous listing is kept.
func (r *Refresher) Refresh(ctx context.Context) error {
	resp, err := r.fetcher.RecentUploads(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++

	if err != nil {
		r.lastErr = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		return r.lastErr
	}
	r.uploads = append([]models.RecentUpload(nil), resp.Uploads...)
	r.lastErr = nil
	return nil
}

// Hook returns a completion callback for session.WithOnComplete.
// Fetch failures are logged, never propagated into the session.
func (r *Refresher) Hook(ctx context.Context) func() {
	return func() {
		if err := r.Refresh(ctx); err != nil {
			r.logger.Warn().Err(err).Msg("History refresh failed")
			return
		}
		r.logger.Debug().Int("batches", len(r.Latest())).Msg("History refreshed")
	}
}

// Latest returns a copy of the last successful listing.
func (r *Refresher) Latest() []models.RecentUpload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.RecentUpload(nil), r.uploads...)
}

// Err returns the error of the most recent fetch, if it failed.
func (r *Refresher) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Fetches returns how many fetches have been attempted.
func (r *Refresher) Fetches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches
}

// RenderOptions controls Render output.
type RenderOptions struct {
	Limit     int  // <= 0 shows everything returned
	ShowFiles bool // list each batch's files below it
	JSON      bool
}

const (
	nameWidth = 36
	dateWidth = 24
	dateShown = "1/2/2006, 3:04:05 PM"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Render writes uploads (already newest first) to w.
func Render(w io.Writer, uploads []models.RecentUpload, opts RenderOptions) error {
	if opts.Limit > 0 && len(uploads) > opts.Limit {
		uploads = uploads[:opts.Limit]
	}

	if opts.JSON {
		data, err := json.MarshalIndent(uploads, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if len(uploads) == 0 {
		_, err := fmt.Fprintln(w, "No recent uploads")
		return err
	}

	fmt.Fprintf(w, "Found %d upload(s):\n\n", len(uploads))
	fmt.Fprintf(w, "%-*s %-*s %-9s %s\n", nameWidth, "NAME", dateWidth, "DATE", "FILES", "STATUS")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, up := range uploads {
		fmt.Fprintf(w, "%-*s %-*s %-9s %s\n",
			nameWidth, truncate(up.Name, nameWidth),
			dateWidth, FormatDate(up.Date),
			FileCount(up.FileCount),
			StatusText(up))

		if opts.ShowFiles {
			for _, f := range up.Files {
				fmt.Fprintf(w, "    %s\n", f.DisplayName())
			}
		}
	}
	return nil
}

// FormatDate renders a server batch_time in local time, or returns it as-is
// when it cannot be parsed.
func FormatDate(raw string) string {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Local().Format(dateShown)
		}
	}
	return raw
}

// FileCount renders "1 file" / "N files".
func FileCount(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}

// StatusText renders the batch status, with counts for partial batches.
func StatusText(up models.RecentUpload) string {
	var label string
	switch up.Status {
	case models.BatchProcessing:
		label = "Processing"
	case models.BatchCompleted:
		label = "Completed"
	case models.BatchFailed:
		label = "Failed"
	case models.BatchPartial:
		label = "Partial"
	default:
		label = string(up.Status)
	}
	if up.Status == models.BatchPartial && up.SuccessCount != nil && up.FailedCount != nil {
		label += fmt.Sprintf(" (%d processed, %d failed)", *up.SuccessCount, *up.FailedCount)
	}
	return label
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
