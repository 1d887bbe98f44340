package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumeranker/resume-uploader/internal/config"
	"github.com/resumeranker/resume-uploader/internal/models"
	"github.com/resumeranker/resume-uploader/internal/transfer"
)

type memPayload struct {
	name string
	data []byte
}

func (m memPayload) Name() string { return m.name }
func (m memPayload) Size() int64  { return int64(len(m.data)) }
func (m memPayload) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

type failingPayload struct{ memPayload }

func (failingPayload) Open() (io.ReadCloser, error) { return nil, errors.New("permission denied") }

func testBatch() models.BatchSession {
	return models.BatchSession{
		BatchID:        "b-1",
		BatchTimestamp: time.Date(2024, 5, 1, 15, 4, 5, 123e6, time.UTC),
		BatchLabel:     "Spring hiring",
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, mutate ...func(*config.Config)) *Client {
	t.Helper()
	cfg := config.NewConfig()
	cfg.APIBaseURL = srv.URL
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	for _, m := range mutate {
		m(cfg)
	}
	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	return c
}

func TestUploadResume_SendsFormFields(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/upload_resume", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "resume-upload/"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "2024-05-01T15:04:05.123Z", r.FormValue("batch_time"))
		assert.Equal(t, "Spring hiring", r.FormValue("batch_name"))
		assert.Equal(t, "b-1", r.FormValue("batch_id"))

		files := r.MultipartForm.File["file"]
		require.Len(t, files, 1)
		assert.Equal(t, "jane.pdf", files[0].Filename)
		assert.Equal(t, "application/pdf", files[0].Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"filename":"jane.pdf","parsed_data":{"name":"Jane"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	var lastSent, lastTotal atomic.Int64
	err := c.UploadResume(context.Background(), memPayload{name: "jane.pdf", data: []byte("%PDF-1.4 resume")}, testBatch(),
		func(sent, total int64) {
			lastSent.Store(sent)
			lastTotal.Store(total)
		})

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Greater(t, lastTotal.Load(), int64(0))
	assert.Equal(t, lastTotal.Load(), lastSent.Load(), "progress should reach the full body length")
}

func TestUploadResume_ServerErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"corrupt pdf"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	err := c.UploadResume(context.Background(), memPayload{name: "a.pdf", data: []byte("x")}, testBatch(), nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "corrupt pdf", transfer.Message(err, transfer.MsgUploadFailed))
	assert.Equal(t, int32(1), calls.Load(), "500 must be delivered once")
}

func TestUploadResume_NoDetailUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	err := c.UploadResume(context.Background(), memPayload{name: "a.pdf", data: []byte("x")}, testBatch(), nil)

	require.Error(t, err)
	assert.Equal(t, "Failed to upload resume", transfer.Message(err, transfer.MsgUploadFailed))
}

func TestUploadResume_RetriesGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "retry me", "body must be replayed on retry")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"filename":"a.txt"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	err := c.UploadResume(context.Background(), memPayload{name: "a.txt", data: []byte("retry me")}, testBatch(), nil)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUploadResume_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := config.NewConfig()
	cfg.APIBaseURL = url
	cfg.RetryMax = 0
	c, err := NewClient(cfg, nil)
	require.NoError(t, err)

	err = c.UploadResume(context.Background(), memPayload{name: "a.pdf", data: []byte("x")}, testBatch(), nil)
	require.Error(t, err)
	msg := transfer.Message(err, transfer.MsgUploadFailed)
	assert.True(t, strings.HasPrefix(msg, "Failed to upload resume: request failed"), msg)
}

func TestUploadResume_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, srv)
	err := c.UploadResume(ctx, memPayload{name: "a.pdf", data: []byte("x")}, testBatch(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUploadResume_UnreadablePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	err := c.UploadResume(context.Background(), failingPayload{memPayload{name: "locked.pdf"}}, testBatch(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked.pdf")
}

func TestParseResumesBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse_resumes_batch", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Spring hiring", r.FormValue("batchName"))
		assert.Equal(t, "b-1", r.FormValue("batch_id"))
		assert.Equal(t, "2024-05-01T15:04:05.123Z", r.FormValue("batch_time"))

		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.pdf", files[0].Filename)
		assert.Equal(t, "b.docx", files[1].Filename)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", files[1].Header.Get("Content-Type"))

		_, _ = w.Write([]byte(`{"results":[{"filename":"a.pdf","parsed_data":{"name":"A"},"metadata_key":"k1"},{"filename":"b.docx","error":"Could not extract text"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	var progressCalls atomic.Int32
	resp, err := c.ParseResumesBatch(context.Background(), []models.Payload{
		memPayload{name: "a.pdf", data: []byte("%PDF-1.4")},
		memPayload{name: "b.docx", data: []byte("PK\x03\x04")},
	}, testBatch(), func(sent, total int64) { progressCalls.Add(1) })

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.False(t, resp.Results[0].HasError())
	assert.Equal(t, "k1", resp.Results[0].MetadataKey)
	assert.Equal(t, "Could not extract text", resp.Results[1].Error)
	assert.Greater(t, progressCalls.Load(), int32(0))
}

func TestParseResumesBatch_RequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`Internal Server Error`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.ParseResumesBatch(context.Background(), []models.Payload{memPayload{name: "a.pdf"}}, testBatch(), nil)

	require.Error(t, err)
	assert.Equal(t, "Failed to upload batch resumes", transfer.Message(err, transfer.MsgBatchUploadFailed))
}

func TestParseResumesBatch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.ParseResumesBatch(context.Background(), []models.Payload{memPayload{name: "a.pdf"}}, testBatch(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode batch response")
}

func TestRecentUploads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/recent_uploads", r.URL.Path)
		_, _ = w.Write([]byte(`{"uploads":[{"id":"b-1","name":"Spring hiring","date":"2024-05-01T15:04:05","fileCount":3,"status":"partial","successCount":2,"failedCount":1}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.RecentUploads(context.Background())

	require.NoError(t, err)
	require.Len(t, resp.Uploads, 1)
	up := resp.Uploads[0]
	assert.Equal(t, models.BatchPartial, up.Status)
	assert.Equal(t, 3, up.FileCount)
	require.NotNil(t, up.SuccessCount)
	assert.Equal(t, 2, *up.SuccessCount)
}

func TestThrottledResponseSetsCooldown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *config.Config) {
		cfg.RetryMax = 0
		cfg.RequestsPerSecond = 50
	})
	require.NotNil(t, c.limiter)

	_, err := c.RecentUploads(context.Background())
	assert.True(t, IsStatus(err, http.StatusTooManyRequests))
	assert.Greater(t, c.limiter.CooldownRemaining(), 20*time.Second)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", detectContentType("CV.PDF", nil))
	assert.Equal(t, "application/msword", detectContentType("cv.doc", nil))
	assert.Equal(t, "text/plain", detectContentType("cv.txt", []byte("hello")))
	assert.True(t, strings.HasPrefix(detectContentType("scan.png", []byte("\x89PNG\r\n\x1a\n")), "image/png"))
}
