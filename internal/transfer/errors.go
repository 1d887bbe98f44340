package transfer

import (
	"errors"
)

// Fallback messages shown when the server gave no usable detail.
const (
	MsgUploadFailed      = "Failed to upload resume"
	MsgBatchUploadFailed = "Failed to upload batch resumes"
	MsgNoResponse        = "No response for file"
)

// detailer is implemented by errors that carry a server-supplied message.
type detailer interface {
	error
	ErrorDetail() string
}

// Message converts a request error into the text stored on a failed file.
// Server errors yield their detail (or fallback when the body had none);
// anything else yields fallback plus the cause.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var d detailer
	if errors.As(err, &d) {
		if detail := d.ErrorDetail(); detail != "" {
			return detail
		}
		return fallback
	}
	return fallback + ": " + err.Error()
}
