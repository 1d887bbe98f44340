package session

import (
	"time"

	"github.com/resumeranker/resume-uploader/internal/events"
	"github.com/resumeranker/resume-uploader/internal/models"
)

// NewFileEvent creates a FileEvent from a file's current state.
func NewFileEvent(eventType events.EventType, batchID string, f models.PendingFile) *events.FileEvent {
	return &events.FileEvent{
		BaseEvent: events.BaseEvent{
			EventType: eventType,
			Time:      time.Now(),
		},
		BatchID:     batchID,
		FileID:      f.ID,
		Name:        f.Name(),
		Size:        f.Size(),
		Progress:    f.Progress,
		Status:      f.Status,
		ErrorDetail: f.ErrorDetail,
		ErrorKind:   f.ErrorKind,
	}
}

// NewSessionEvent creates a SessionEvent.
func NewSessionEvent(eventType events.EventType, batch models.BatchSession, batchMode bool, fileCount int) *events.SessionEvent {
	return &events.SessionEvent{
		BaseEvent: events.BaseEvent{
			EventType: eventType,
			Time:      time.Now(),
		},
		BatchID:    batch.BatchID,
		BatchLabel: batch.BatchLabel,
		BatchMode:  batchMode,
		FileCount:  fileCount,
	}
}

// NewRequestProgressEvent creates a RequestProgressEvent.
func NewRequestProgressEvent(batchID string, sent, total int64) *events.RequestProgressEvent {
	return &events.RequestProgressEvent{
		BaseEvent: events.BaseEvent{
			EventType: events.EventRequestProgress,
			Time:      time.Now(),
		},
		BatchID:    batchID,
		BytesSent:  sent,
		BytesTotal: total,
	}
}

// NewCompleteEvent creates a CompleteEvent from a summary.
func NewCompleteEvent(eventType events.EventType, batchID string, s Summary, d time.Duration) *events.CompleteEvent {
	return &events.CompleteEvent{
		BaseEvent: events.BaseEvent{
			EventType: eventType,
			Time:      time.Now(),
		},
		BatchID:      batchID,
		Total:        s.Total,
		SuccessCount: s.SuccessCount,
		ErrorCount:   s.ErrorCount,
		Duration:     d,
	}
}
