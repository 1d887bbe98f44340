package transfer

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"github.com/resumeranker/resume-uploader/internal/logging"
	"github.com/resumeranker/resume-uploader/internal/models"
)

// Batched sends every item in one combined request and reconciles the
// per-file records of the response by filename.
type Batched struct {
	uploader Uploader
	logger   *logging.Logger
}

// NewBatched creates a batched strategy.
func NewBatched(u Uploader, logger *logging.Logger) *Batched {
	return Select(true, u, logger).(*Batched)
}

// Name implements Strategy.
func (b *Batched) Name() string { return "batched" }

// Execute implements Strategy.
func (b *Batched) Execute(ctx context.Context, items []Item, batch models.BatchSession, r Reporter) {
	if len(items) == 0 {
		return
	}

	payloads := make([]models.Payload, len(items))
	for i, item := range items {
		payloads[i] = item.Payload
	}

	b.logger.Debug().Int("files", len(items)).Msg("Sending batch request")

	resp, err := b.uploader.ParseResumesBatch(ctx, payloads, batch, r.RequestProgress)
	if err != nil {
		// No per-file isolation from a failed request
		msg := Message(err, MsgBatchUploadFailed)
		b.logger.Warn().Int("files", len(items)).Msg(msg)
		for _, item := range items {
			r.Finished(Outcome{
				FileID:      item.FileID,
				Status:      models.StatusError,
				ErrorDetail: msg,
				ErrorKind:   models.ErrorBatchTransfer,
			})
		}
		return
	}

	results := indexResults(resp)
	for _, item := range items {
		r.Finished(reconcile(item, results))
	}
}

// indexResults maps normalized filename to its record. The first record for
// a filename wins.
func indexResults(resp *models.BatchUploadResponse) map[string]models.BatchFileResult {
	if resp == nil {
		return map[string]models.BatchFileResult{}
	}
	m := make(map[string]models.BatchFileResult, len(resp.Results))
	for _, res := range resp.Results {
		key := filenameKey(res.Filename)
		if _, ok := m[key]; ok {
			continue
		}
		m[key] = res
	}
	return m
}

func reconcile(item Item, results map[string]models.BatchFileResult) Outcome {
	res, ok := results[filenameKey(item.Payload.Name())]
	switch {
	case !ok:
		return Outcome{
			FileID:      item.FileID,
			Status:      models.StatusError,
			ErrorDetail: MsgNoResponse,
			ErrorKind:   models.ErrorMissingResponse,
		}
	case res.HasError():
		return Outcome{
			FileID:      item.FileID,
			Status:      models.StatusError,
			ErrorDetail: res.Error,
			ErrorKind:   models.ErrorRejected,
		}
	default:
		return Outcome{
			FileID:   item.FileID,
			Status:   models.StatusSuccess,
			Progress: 100,
		}
	}
}

// filenameKey normalizes to NFC so a decomposed name echoed by the server
// matches the one the client sent.
func filenameKey(name string) string {
	return norm.NFC.String(name)
}
