package http

import (
	"context"
	"errors"
	"math/rand"
	"net"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrorType represents different classes of errors for retry strategy
type ErrorType int

const (
	// ErrorTypeSuccess indicates the request succeeded
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeNetwork indicates connection-level failures (refused, reset, timeouts)
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates gateway and throttling responses (429, 502, 503, 504)
	ErrorTypeRetryable
	// ErrorTypeFatal indicates anything that must reach the caller unretried:
	// server-reported failures (500, 4xx), cancellation, malformed requests
	ErrorTypeFatal
)

// ClassifyError determines the error type of a transport error.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeFatal
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Redirect loops and unsupported schemes are not transient
		errStr := urlErr.Err.Error()
		if strings.Contains(errStr, "stopped after") || strings.Contains(errStr, "unsupported protocol scheme") {
			return ErrorTypeFatal
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorTypeNetwork
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "tls handshake timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "timeout") {
		return ErrorTypeNetwork
	}

	return ErrorTypeFatal
}

// ClassifyStatus determines the error type of an HTTP status code.
// 500 is fatal: the ingestion API reports a per-file failure with it.
func ClassifyStatus(code int) ErrorType {
	switch {
	case code == 0:
		return ErrorTypeFatal
	case code < 400:
		return ErrorTypeSuccess
	case code == nethttp.StatusTooManyRequests,
		code == nethttp.StatusBadGateway,
		code == nethttp.StatusServiceUnavailable,
		code == nethttp.StatusGatewayTimeout:
		return ErrorTypeRetryable
	default:
		return ErrorTypeFatal
	}
}

// RetryPolicy is a retryablehttp.CheckRetry that retries only connection
// failures and gateway/throttling statuses. A server-reported failure is
// delivered once.
func RetryPolicy(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return ClassifyError(err) == ErrorTypeNetwork, nil
	}
	if resp == nil {
		return false, nil
	}
	return ClassifyStatus(resp.StatusCode) == ErrorTypeRetryable, nil
}

// Backoff is a retryablehttp.Backoff: Retry-After when the server sends one on
// 429/503, otherwise exponential backoff with full jitter.
func Backoff(min, max time.Duration, attemptNum int, resp *nethttp.Response) time.Duration {
	if d, ok := RetryAfter(resp); ok {
		if d > max {
			return max
		}
		return d
	}
	d := CalculateBackoff(attemptNum+1, min, max)
	if d < min {
		return min
	}
	return d
}

// RetryAfter parses a Retry-After header given in seconds on 429/503 responses.
func RetryAfter(resp *nethttp.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode != nethttp.StatusTooManyRequests && resp.StatusCode != nethttp.StatusServiceUnavailable {
		return 0, false
	}
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// CalculateBackoff returns exponential backoff duration with full jitter
//
// Formula: random(0, min(maxDelay, initialDelay * 2^attempt))
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 || initialDelay <= 0 {
		return 0
	}

	base := time.Duration(1<<uint(attempt)) * initialDelay
	if base > maxDelay || base <= 0 {
		base = maxDelay
	}
	if base <= 0 {
		return 0
	}

	return time.Duration(rand.Int63n(int64(base)))
}

// String returns a human-readable name for an ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
