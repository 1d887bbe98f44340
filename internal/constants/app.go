package constants

import (
	"time"
)

// Ingestion API
const (
	// DefaultAPIBaseURL - resume-ranker API address used when nothing is configured
	DefaultAPIBaseURL = "http://localhost:8000"

	// UploadResumePath - single-file upload endpoint (sequential strategy)
	UploadResumePath = "/upload_resume"

	// ParseResumesBatchPath - combined multi-part endpoint (batched strategy)
	ParseResumesBatchPath = "/parse_resumes_batch"

	// RecentUploadsPath - upload history endpoint
	RecentUploadsPath = "/recent_uploads"
)

// Retry configuration
const (
	// DefaultRetryMax - transport-level retries for connection failures and 429/502/503/504.
	// Server-reported failures (500, 4xx) are never retried.
	DefaultRetryMax = 2

	// DefaultRetryWaitMin - lower bound of the retry backoff (500ms)
	DefaultRetryWaitMin = 500 * time.Millisecond

	// DefaultRetryWaitMax - upper bound of the retry backoff (10s)
	DefaultRetryWaitMax = 10 * time.Second
)

// File intake
const (
	// DefaultAllowedExtensions - extensions accepted by the resume picker
	DefaultAllowedExtensions = ".pdf,.doc,.docx,.txt,.rtf"

	// BytesPerMB - used to convert max_file_size_mb
	BytesPerMB = 1024 * 1024
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	// 1000 events is generous for one session's worth of progress updates
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios (5000)
	EventBusMaxBuffer = 5000
)

// UI Updates
const (
	// ProgressRefreshRate - how often mpb redraws the per-file bars
	ProgressRefreshRate = 300 * time.Millisecond

	// ProgressBarWidth - width of a single bar in columns
	ProgressBarWidth = 60
)

// History
const (
	// DefaultHistoryLimit - rows shown by `history` (the server returns at most 10)
	DefaultHistoryLimit = 10
)

// HTTP Client Timeouts
// There is no overall request timeout; the remote endpoint bounds request duration.
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// ProxyWarmupTimeout - timeout for the optional proxy warmup request
	ProxyWarmupTimeout = 15 * time.Second
)

// Rate Limiter
const (
	// RateLimitWarningThreshold - delay threshold to show warning (2 seconds)
	RateLimitWarningThreshold = 2 * time.Second

	// RateLimitWarningInterval - minimum interval between warnings (10 seconds)
	RateLimitWarningInterval = 10 * time.Second
)
