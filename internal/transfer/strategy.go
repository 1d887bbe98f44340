// Package transfer sends a session's pending files to the ingestion API and
// reports per-file outcomes. Files are never sent concurrently.
package transfer

import (
	"context"

	"github.com/resumeranker/resume-uploader/internal/logging"
	"github.com/resumeranker/resume-uploader/internal/models"
)

// ProgressFunc receives the bytes of a request body consumed so far and the
// total body length.
type ProgressFunc func(sent, total int64)

// Uploader performs the network requests. Implemented by api.Client.
type Uploader interface {
	UploadResume(ctx context.Context, payload models.Payload, batch models.BatchSession, onProgress ProgressFunc) error
	ParseResumesBatch(ctx context.Context, payloads []models.Payload, batch models.BatchSession, onProgress ProgressFunc) (*models.BatchUploadResponse, error)
}

// Item is one file dispatched for transfer.
type Item struct {
	FileID  string
	Payload models.Payload
}

// Outcome is the terminal result for one file.
type Outcome struct {
	FileID      string
	Status      models.FileStatus // StatusSuccess or StatusError
	Progress    int
	ErrorDetail string
	ErrorKind   models.ErrorKind
}

// Reporter receives updates from a running strategy. Calls are synchronous;
// a strategy does not continue until the call returns.
type Reporter interface {
	// FileProgress reports upload progress (0-99) for one file.
	FileProgress(fileID string, percent int)

	// RequestProgress reports bytes sent for a combined request.
	RequestProgress(sent, total int64)

	// Finished reports a file's terminal outcome.
	Finished(o Outcome)
}

// Strategy executes one upload pass over items.
// Execute returns only after every item has been reported Finished.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, items []Item, batch models.BatchSession, r Reporter)
}

// Select returns the strategy for the session's batch option.
func Select(batchMode bool, u Uploader, logger *logging.Logger) Strategy {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if batchMode {
		return &Batched{uploader: u, logger: logger}
	}
	return &Sequential{uploader: u, logger: logger}
}
