package session

import (
	"fmt"

	"github.com/resumeranker/resume-uploader/internal/models"
)

// Summary is the derived view of a file list.
type Summary struct {
	SuccessCount int  `json:"successCount"`
	ErrorCount   int  `json:"errorCount"`
	Total        int  `json:"total"`
	IsComplete   bool `json:"isComplete"`
}

// Summarize computes counts and the completion flag. A session is complete
// when no upload is running, the list is non-empty and every file is terminal.
func Summarize(files []models.PendingFile, uploading bool) Summary {
	s := Summary{Total: len(files)}
	for _, f := range files {
		switch f.Status {
		case models.StatusSuccess:
			s.SuccessCount++
		case models.StatusError:
			s.ErrorCount++
		}
	}
	s.IsComplete = !uploading && s.Total > 0 && s.SuccessCount+s.ErrorCount == s.Total
	return s
}

// Headline is the banner shown when a session completes.
func (s Summary) Headline() string {
	if s.ErrorCount == 0 {
		return "All files uploaded successfully"
	}
	return fmt.Sprintf("Completed with %d error(s)", s.ErrorCount)
}

// Detail is the second banner line.
func (s Summary) Detail() string {
	return fmt.Sprintf("%d of %d files were processed successfully.", s.SuccessCount, s.Total)
}

// completionLatch reports the rising edge of IsComplete.
type completionLatch struct {
	complete bool
}

// observe records the current flag and returns true only on a false->true change.
func (l *completionLatch) observe(complete bool) bool {
	rising := complete && !l.complete
	l.complete = complete
	return rising
}
