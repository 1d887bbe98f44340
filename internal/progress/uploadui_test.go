package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumeranker/resume-uploader/internal/events"
	"github.com/resumeranker/resume-uploader/internal/models"
)

func base(t events.EventType) events.BaseEvent {
	return events.BaseEvent{EventType: t, Time: time.Now()}
}

func started(n int, batch bool) *events.SessionEvent {
	return &events.SessionEvent{
		BaseEvent:  base(events.EventUploadStarted),
		BatchID:    "b-1",
		BatchLabel: "Spring hiring",
		BatchMode:  batch,
		FileCount:  n,
	}
}

func fileStatus(id, name string, status models.FileStatus, detail string) *events.FileEvent {
	return &events.FileEvent{
		BaseEvent:   base(events.EventFileStatus),
		BatchID:     "b-1",
		FileID:      id,
		Name:        name,
		Size:        2048,
		Status:      status,
		ErrorDetail: detail,
	}
}

func finished(total, ok, failed int) *events.CompleteEvent {
	return &events.CompleteEvent{
		BaseEvent:    base(events.EventUploadFinished),
		BatchID:      "b-1",
		Total:        total,
		SuccessCount: ok,
		ErrorCount:   failed,
	}
}

func TestSessionUI_SequentialPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	ui := newSessionUI(&buf, false)

	ui.Handle(started(2, false))
	ui.Handle(fileStatus("f-1", "alice.pdf", models.StatusUploading, ""))
	ui.Handle(&events.FileEvent{BaseEvent: base(events.EventFileProgress), FileID: "f-1", Progress: 50})
	ui.Handle(fileStatus("f-1", "alice.pdf", models.StatusSuccess, ""))
	ui.Handle(fileStatus("f-2", "bob.docx", models.StatusUploading, ""))
	ui.Handle(fileStatus("f-2", "bob.docx", models.StatusError, "Unsupported file type"))
	ui.Handle(finished(2, 1, 1))
	ui.Close()

	out := buf.String()
	assert.Contains(t, out, `Uploading 2 file(s) to "Spring hiring" (sequential)`)
	assert.Contains(t, out, "Uploading [1/2]: alice.pdf (2.0 KiB)")
	assert.Contains(t, out, "Uploading [2/2]: bob.docx")
	assert.Contains(t, out, "✓ alice.pdf (2.0 KiB)")
	assert.Contains(t, out, "✗ bob.docx: Unsupported file type")

	s, ok, failed := ui.Counts()
	assert.Equal(t, 2, s)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
}

func TestSessionUI_BatchedRequestLines(t *testing.T) {
	var buf bytes.Buffer
	ui := newSessionUI(&buf, false)

	ui.Handle(started(2, true))
	ui.Handle(fileStatus("f-1", "alice.pdf", models.StatusUploading, ""))
	ui.Handle(&events.RequestProgressEvent{BaseEvent: base(events.EventRequestProgress), BytesSent: 1024, BytesTotal: 4096})
	ui.Handle(&events.RequestProgressEvent{BaseEvent: base(events.EventRequestProgress), BytesSent: 4096, BytesTotal: 4096})
	ui.Handle(fileStatus("f-1", "alice.pdf", models.StatusSuccess, ""))
	ui.Handle(fileStatus("f-2", "bob.pdf", models.StatusSuccess, ""))
	ui.Handle(finished(2, 2, 0))
	ui.Close()

	out := buf.String()
	assert.Contains(t, out, "(batched)")
	assert.NotContains(t, out, "Uploading [1/2]", "no per-file start lines in batched mode")
	assert.Contains(t, out, "Batch request: sending 4.0 KiB")
	assert.Contains(t, out, "Batch request: sent 4.0 of 4.0 KiB")
	assert.Equal(t, 1, strings.Count(out, "sending"), "one request bar per execution")

	s, ok, _ := ui.Counts()
	assert.Equal(t, 0, s)
	assert.Equal(t, 2, ok)
}

func TestSessionUI_TerminalBarsSettle(t *testing.T) {
	var buf bytes.Buffer
	ui := newSessionUI(&buf, true)

	ui.Handle(started(2, false))
	_, plain := ui.Writer().(*bytes.Buffer)
	assert.False(t, plain, "mpb writer used while bars are active")

	ui.Handle(fileStatus("f-1", "alice.pdf", models.StatusUploading, ""))
	ui.Handle(&events.FileEvent{BaseEvent: base(events.EventFileProgress), FileID: "f-1", Progress: 40})
	ui.Handle(fileStatus("f-1", "alice.pdf", models.StatusSuccess, ""))
	// f-2's final status never arrives; Close must still return
	ui.Handle(fileStatus("f-2", "bob.pdf", models.StatusUploading, ""))

	done := make(chan struct{})
	go func() {
		ui.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on an unfinished bar")
	}
	assert.True(t, ui.IsTerminal())
	_, plain = ui.Writer().(*bytes.Buffer)
	assert.True(t, plain, "plain output once bars are closed")
}

func TestSessionUI_AttachDrainsOnClose(t *testing.T) {
	bus := events.NewEventBus(100)
	defer bus.Close()

	var buf bytes.Buffer
	ui := newSessionUI(&buf, false)
	ui.Attach(bus)

	bus.Publish(started(1, false))
	bus.Publish(fileStatus("f-1", "alice.pdf", models.StatusUploading, ""))
	bus.Publish(fileStatus("f-1", "alice.pdf", models.StatusError, "Failed to upload resume: timeout"))
	bus.Publish(finished(1, 0, 1))

	ui.Close()

	require.Contains(t, buf.String(), "✗ alice.pdf: Failed to upload resume: timeout")
	_, _, failed := ui.Counts()
	assert.Equal(t, 1, failed)
}

func TestRequestBar_NilSafeAndIdempotent(t *testing.T) {
	var r *RequestBar
	r.Update(10)
	r.Finish()
	assert.Equal(t, int64(0), r.Current())

	var buf bytes.Buffer
	bar := NewRequestBar(&buf, 100, "Batch request", false)
	bar.Update(60)
	bar.Finish()
	bar.Finish()
	bar.Update(100)
	assert.Equal(t, int64(60), bar.Current(), "updates after Finish ignored")
	assert.Equal(t, 1, strings.Count(buf.String(), "sent"))
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "file.pdf", truncatePath("file.pdf", 2))
	assert.Equal(t, "…/d/file.pdf", truncatePath("/a/b/c/d/file.pdf", 2))
}
