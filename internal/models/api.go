package models

import (
	"encoding/json"
)

// ErrorResponse is the JSON body of a non-2xx ingestion API response.
// Detail is a string for handled errors and a list of objects for
// request validation failures, so it is decoded lazily.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// ValidationIssue is one entry of a validation-error detail list.
type ValidationIssue struct {
	Loc  []interface{} `json:"loc"`
	Msg  string        `json:"msg"`
	Type string        `json:"type"`
}

// UploadResumeResponse is the 2xx body of POST /upload_resume.
// Only the status code matters to the session; the body is kept for logging.
type UploadResumeResponse struct {
	Filename   string          `json:"filename"`
	ParsedData json.RawMessage `json:"parsed_data,omitempty"`
}

// BatchFileResult is one per-file record of POST /parse_resumes_batch.
type BatchFileResult struct {
	Filename    string          `json:"filename"`
	Error       string          `json:"error,omitempty"`
	ParsedData  json.RawMessage `json:"parsed_data,omitempty"`
	MetadataKey string          `json:"metadata_key,omitempty"`
}

// HasError reports whether the server rejected this file.
func (r BatchFileResult) HasError() bool {
	return r.Error != ""
}

// BatchUploadResponse is the 2xx body of POST /parse_resumes_batch.
type BatchUploadResponse struct {
	Results []BatchFileResult `json:"results"`
}

// BatchStatus is the server-side status of a historical batch.
type BatchStatus string

const (
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchPartial    BatchStatus = "partial"
)

// RecentUploadFile is a file listed under a historical batch.
type RecentUploadFile struct {
	Filename string          `json:"filename"`
	Name     string          `json:"name"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// DisplayName prefers the parsed candidate name over the storage key.
func (f RecentUploadFile) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Filename
}

// RecentUpload is one batch returned by GET /recent_uploads.
type RecentUpload struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Date         string             `json:"date"`
	FileCount    int                `json:"fileCount"`
	Status       BatchStatus        `json:"status"`
	SuccessCount *int               `json:"successCount,omitempty"`
	FailedCount  *int               `json:"failedCount,omitempty"`
	Files        []RecentUploadFile `json:"files,omitempty"`
}

// RecentUploadsResponse is the body of GET /recent_uploads.
type RecentUploadsResponse struct {
	Uploads []RecentUpload `json:"uploads"`
}
