package models

import (
	"io"
)

// FileStatus is the per-file upload state.
type FileStatus string

const (
	StatusIdle      FileStatus = "idle"
	StatusUploading FileStatus = "uploading"
	StatusSuccess   FileStatus = "success"
	StatusError     FileStatus = "error"
)

// IsTerminal returns true for success and error.
func (s FileStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// ErrorKind classifies why a file ended in StatusError.
type ErrorKind string

const (
	ErrorNone ErrorKind = ""

	// ErrorTransfer - sequential request failed (transport, non-2xx, or body parse)
	ErrorTransfer ErrorKind = "transfer"

	// ErrorRejected - batched response carried an error for this filename
	ErrorRejected ErrorKind = "rejected"

	// ErrorBatchTransfer - the combined batched request failed as a whole
	ErrorBatchTransfer ErrorKind = "batch-transfer"

	// ErrorMissingResponse - batched response had no record for this filename
	ErrorMissingResponse ErrorKind = "missing-response"
)

// Payload is a read-only handle to a file owned by the host environment.
// The session keeps the handle; bytes are read only while a request is built.
type Payload interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// PendingFile is one file tracked by an upload session.
type PendingFile struct {
	ID          string     `json:"id"`
	Payload     Payload    `json:"-"`
	Progress    int        `json:"progress"` // 0-100
	Status      FileStatus `json:"status"`
	ErrorDetail string     `json:"errorDetail,omitempty"` // only when Status == StatusError
	ErrorKind   ErrorKind  `json:"errorKind,omitempty"`
}

// Name returns the payload's filename, or "" if there is no payload.
func (f PendingFile) Name() string {
	if f.Payload == nil {
		return ""
	}
	return f.Payload.Name()
}

// Size returns the payload's size in bytes.
func (f PendingFile) Size() int64 {
	if f.Payload == nil {
		return 0
	}
	return f.Payload.Size()
}
