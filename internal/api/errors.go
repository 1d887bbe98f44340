// Package api provides error types for ingestion API responses.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/resumeranker/resume-uploader/internal/models"
)

// ErrEmptyBaseURL is returned by NewClient when no API base URL is configured.
var ErrEmptyBaseURL = errors.New("API base URL is empty")

// APIError is a non-2xx response from the ingestion API.
// Detail is the server-provided message, empty when the body carried none.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s failed: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s failed: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// ErrorDetail returns the server-provided message, used verbatim as a file's
// error text.
func (e *APIError) ErrorDetail() string {
	return e.Detail
}

// IsStatus reports whether err is an APIError with the given status code.
//
// Usage:
//
//	if api.IsStatus(err, http.StatusUnprocessableEntity) {
//	    // server could not extract text
//	}
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// parseDetail extracts the detail message from an error body.
// A string detail is returned as-is; a validation list is joined with "; ".
// Bodies that are not JSON, or carry no detail, yield "".
func parseDetail(body []byte) string {
	var resp models.ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(resp.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var issues []models.ValidationIssue
	if err := json.Unmarshal(resp.Detail, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			if issue.Msg == "" {
				continue
			}
			msgs = append(msgs, issue.Msg)
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
