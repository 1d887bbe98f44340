package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/resumeranker/resume-uploader/internal/config"
	"github.com/resumeranker/resume-uploader/internal/constants"
	"github.com/resumeranker/resume-uploader/internal/http"
	"github.com/resumeranker/resume-uploader/internal/logging"
	"github.com/resumeranker/resume-uploader/internal/models"
	"github.com/resumeranker/resume-uploader/internal/ratelimit"
	"github.com/resumeranker/resume-uploader/internal/transfer"
	"github.com/resumeranker/resume-uploader/internal/version"
)

// maxErrorBody bounds how much of a failed response is read for its detail.
const maxErrorBody = 1 << 20

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// Client talks to the resume ingestion API.
// It implements transfer.Uploader.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	limiter *ratelimit.RateLimiter // nil when requests_per_second = 0
	logger  *logging.Logger
}

var _ transfer.Uploader = (*Client)(nil)

// NewClient creates a new API client
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, ErrEmptyBaseURL
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	httpClient, err := http.NewUploadClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimSuffix(cfg.APIBaseURL, "/"),
		limiter: ratelimit.NewRequestLimiter(cfg.RequestsPerSecond, logger),
		logger:  logger,
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = http.RetryPolicy
	retryClient.Backoff = http.Backoff
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &retryLogger{logger: logger}
	retryClient.RequestLogHook = c.beforeAttempt
	retryClient.ResponseLogHook = c.afterAttempt
	c.http = retryClient

	return c, nil
}

// BaseURL returns the normalized API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// beforeAttempt paces every attempt, retries included.
func (c *Client) beforeAttempt(_ retryablehttp.Logger, req *nethttp.Request, attempt int) {
	if attempt > 0 {
		c.logger.Debug().Str("path", req.URL.Path).Int("attempt", attempt+1).Msg("Retrying request")
	}
	_ = c.limiter.Wait(req.Context())
}

// afterAttempt turns a throttled response into a limiter cooldown.
func (c *Client) afterAttempt(_ retryablehttp.Logger, resp *nethttp.Response) {
	if resp.StatusCode != nethttp.StatusTooManyRequests {
		return
	}
	c.logger.Warn().Str("path", resp.Request.URL.Path).Msg("Throttled by ingestion API")
	if d, ok := http.RetryAfter(resp); ok {
		c.limiter.SetCooldown(d)
	}
}

// UploadResume posts one file to /upload_resume.
func (c *Client) UploadResume(ctx context.Context, payload models.Payload, batch models.BatchSession, onProgress transfer.ProgressFunc) error {
	body, err := buildMultipart("file", []models.Payload{payload}, []formField{
		{"batch_time", batch.BatchTime()},
		{"batch_name", batch.BatchLabel},
		{"batch_id", batch.BatchID},
	})
	if err != nil {
		return err
	}

	resp, err := c.post(ctx, constants.UploadResumePath, body, onProgress)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out models.UploadResumeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Only the status code decides success
		c.logger.Debug().Err(err).Str("file", payload.Name()).Msg("Unreadable upload response body")
		return nil
	}
	c.logger.Debug().Str("file", payload.Name()).Str("stored_as", out.Filename).Msg("Upload accepted")
	return nil
}

// ParseResumesBatch posts every file in one request to /parse_resumes_batch.
func (c *Client) ParseResumesBatch(ctx context.Context, payloads []models.Payload, batch models.BatchSession, onProgress transfer.ProgressFunc) (*models.BatchUploadResponse, error) {
	body, err := buildMultipart("files", payloads, []formField{
		{"batch_time", batch.BatchTime()},
		{"batchName", batch.BatchLabel},
		{"batch_id", batch.BatchID},
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, constants.ParseResumesBatchPath, body, onProgress)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out models.BatchUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode batch response: %w", err)
	}
	return &out, nil
}

// RecentUploads fetches the upload history, newest first.
func (c *Client) RecentUploads(ctx context.Context) (*models.RecentUploadsResponse, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodGet, c.baseURL+constants.RecentUploadsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, constants.RecentUploadsPath)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out models.RecentUploadsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode recent uploads: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body *multipartBody, onProgress transfer.ProgressFunc) (*nethttp.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodPost, c.baseURL+path, body.readerFunc(onProgress))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", body.contentType)
	req.Header.Set("Accept", "application/json")

	return c.do(req, path)
}

// do executes req and converts a non-2xx response into an *APIError.
// On success the caller owns resp.Body.
func (c *Client) do(req *retryablehttp.Request, path string) (*nethttp.Response, error) {
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		c.logger.Debug().Err(err).Str("method", req.Method).Str("path", path).Msg("Request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			Method:     req.Method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(data),
		}
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Str("detail", apiErr.Detail).Msg("Request rejected")
		return nil, apiErr
	}

	return resp, nil
}
