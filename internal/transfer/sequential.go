package transfer

import (
	"context"

	"github.com/resumeranker/resume-uploader/internal/logging"
	"github.com/resumeranker/resume-uploader/internal/models"
)

// Sequential sends one request per file in list order. Request i+1 is issued
// only after the outcome of request i has been reported. A failed file never
// stops the remaining files.
type Sequential struct {
	uploader Uploader
	logger   *logging.Logger
}

// NewSequential creates a sequential strategy.
func NewSequential(u Uploader, logger *logging.Logger) *Sequential {
	return Select(false, u, logger).(*Sequential)
}

// Name implements Strategy.
func (s *Sequential) Name() string { return "sequential" }

// Execute implements Strategy.
func (s *Sequential) Execute(ctx context.Context, items []Item, batch models.BatchSession, r Reporter) {
	for i, item := range items {
		s.logger.Debug().
			Str("file", item.Payload.Name()).
			Int("index", i+1).
			Int("total", len(items)).
			Msg("Uploading resume")

		tracker := &percentTracker{fileID: item.FileID, r: r}
		err := s.uploader.UploadResume(ctx, item.Payload, batch, tracker.update)
		if err != nil {
			msg := Message(err, MsgUploadFailed)
			s.logger.Warn().Str("file", item.Payload.Name()).Msg(msg)
			r.Finished(Outcome{
				FileID:      item.FileID,
				Status:      models.StatusError,
				Progress:    tracker.last,
				ErrorDetail: msg,
				ErrorKind:   models.ErrorTransfer,
			})
			continue
		}

		s.logger.Info().Str("file", item.Payload.Name()).Msg("Uploaded")
		r.Finished(Outcome{
			FileID:   item.FileID,
			Status:   models.StatusSuccess,
			Progress: 100,
		})
	}
}

// percentTracker maps body bytes to 0-99 and forwards increases only.
// 100 is reserved for a confirmed success.
type percentTracker struct {
	fileID string
	r      Reporter
	last   int
}

func (t *percentTracker) update(sent, total int64) {
	if total <= 0 {
		return
	}
	pct := int(sent * 99 / total)
	if pct > 99 {
		pct = 99
	}
	if pct <= t.last {
		return
	}
	t.last = pct
	t.r.FileProgress(t.fileID, pct)
}
