package session

import "errors"

// Guard errors returned by Manager commands.
var (
	// ErrUploadInProgress is returned by commands that are locked while an upload runs.
	ErrUploadInProgress = errors.New("upload already in progress")

	// ErrNoPendingFiles is returned by Upload when no file is idle.
	ErrNoPendingFiles = errors.New("no files to upload")

	// ErrFileNotFound is returned by RemoveFile for an unknown id.
	ErrFileNotFound = errors.New("file not found in session")

	// ErrFileInFlight is returned by RemoveFile while that file's request is running.
	ErrFileInFlight = errors.New("file is being uploaded")
)
