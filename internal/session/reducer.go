package session

import (
	"github.com/resumeranker/resume-uploader/internal/models"
	"github.com/resumeranker/resume-uploader/internal/transfer"
)

// Apply merges one outcome into files by id and returns the index of the
// updated file, or -1 if no file matched. Progress never decreases.
// Outcomes for distinct files commute, so the final state does not depend
// on the order they are applied in.
func Apply(files []models.PendingFile, o transfer.Outcome) int {
	idx := indexOf(files, o.FileID)
	if idx < 0 {
		return -1
	}

	f := &files[idx]
	f.Status = o.Status
	if o.Progress > f.Progress {
		f.Progress = clampProgress(o.Progress)
	}
	if o.Status == models.StatusError {
		f.ErrorDetail = o.ErrorDetail
		f.ErrorKind = o.ErrorKind
	} else {
		f.ErrorDetail = ""
		f.ErrorKind = models.ErrorNone
	}
	return idx
}

// applyProgress raises an uploading file's progress. Returns the index of the
// file when it changed, or -1.
func applyProgress(files []models.PendingFile, fileID string, percent int) int {
	idx := indexOf(files, fileID)
	if idx < 0 {
		return -1
	}
	f := &files[idx]
	if f.Status != models.StatusUploading || percent <= f.Progress {
		return -1
	}
	f.Progress = clampProgress(percent)
	return idx
}

// markUploading moves every idle file to uploading and returns the
// dispatched items in list order.
func markUploading(files []models.PendingFile) []transfer.Item {
	var items []transfer.Item
	for i := range files {
		if files[i].Status != models.StatusIdle {
			continue
		}
		files[i].Status = models.StatusUploading
		files[i].Progress = 0
		files[i].ErrorDetail = ""
		files[i].ErrorKind = models.ErrorNone
		items = append(items, transfer.Item{FileID: files[i].ID, Payload: files[i].Payload})
	}
	return items
}

func indexOf(files []models.PendingFile, id string) int {
	for i := range files {
		if files[i].ID == id {
			return i
		}
	}
	return -1
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
