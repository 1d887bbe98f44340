// Package session owns one resume upload session: the pending file list, the
// batch identity shared by every request, and the upload state machine.
// All mutation goes through Manager; observers read snapshots or subscribe
// to the event bus.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/resumeranker/resume-uploader/internal/events"
	"github.com/resumeranker/resume-uploader/internal/logging"
	"github.com/resumeranker/resume-uploader/internal/models"
	"github.com/resumeranker/resume-uploader/internal/transfer"
)

// Phase is the session-level state.
type Phase string

const (
	PhaseIdle      Phase = "idle"      // No upload running; files may be pending
	PhaseUploading Phase = "uploading" // An execution is in flight
	PhaseDone      Phase = "done"      // Every file is terminal
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Phase     Phase
	BatchMode bool
	Batch     models.BatchSession
	Notes     string
	Files     []models.PendingFile
	Summary   Summary
}

// Manager is the session controller. Thread-safe.
type Manager struct {
	uploader   transfer.Uploader
	eventBus   *events.EventBus
	logger     *logging.Logger
	onComplete func()

	mu        sync.Mutex
	files     []models.PendingFile
	identity  identity
	notes     string
	batchMode bool
	phase     Phase
	latch     completionLatch
}

// Option configures a Manager.
type Option func(*Manager)

// WithEventBus publishes file and session events to bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(m *Manager) { m.eventBus = bus }
}

// WithOnComplete sets the callback invoked once after each upload execution.
func WithOnComplete(fn func()) Option {
	return func(m *Manager) { m.onComplete = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock overrides the time source used for batch timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.identity.now = now }
}

// WithIDGenerator overrides the generator used for file and batch ids.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.identity.newID = newID }
}

// WithBatchMode sets the initial transfer strategy.
func WithBatchMode(enabled bool) Option {
	return func(m *Manager) { m.batchMode = enabled }
}

// NewManager creates an empty session that uploads through u.
func NewManager(u transfer.Uploader, opts ...Option) *Manager {
	m := &Manager{
		uploader: u,
		phase:    PhaseIdle,
		identity: identity{
			now:   time.Now,
			newID: uuid.NewString,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.NewNopLogger()
	}
	return m
}

// EnsureSession establishes the batch identity if it is unset and returns it.
// Calling it again without a Clear returns the same id and timestamp.
func (m *Manager) EnsureSession() models.BatchSession {
	m.mu.Lock()
	var pending []events.Event
	if m.identity.ensure() {
		pending = append(pending, NewSessionEvent(events.EventSessionStarted, m.identity.batch, m.batchMode, len(m.files)))
	}
	batch := m.identity.batch
	m.mu.Unlock()

	m.publish(pending...)
	return batch
}

// AddFiles appends one idle PendingFile per payload and returns their ids.
// The batch identity is established first if the session has none.
// An empty call is a no-op.
func (m *Manager) AddFiles(payloads ...models.Payload) []string {
	if len(payloads) == 0 {
		return nil
	}

	m.mu.Lock()
	var pending []events.Event
	if m.identity.ensure() {
		pending = append(pending, NewSessionEvent(events.EventSessionStarted, m.identity.batch, m.batchMode, 0))
		m.logger.Debug().
			Str("batch_id", m.identity.batch.BatchID).
			Str("batch_time", m.identity.batch.BatchTime()).
			Msg("Started upload session")
	}

	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		if p == nil {
			continue
		}
		f := models.PendingFile{
			ID:      m.identity.newID(),
			Payload: p,
			Status:  models.StatusIdle,
		}
		m.files = append(m.files, f)
		ids = append(ids, f.ID)
		pending = append(pending, NewFileEvent(events.EventFileAdded, m.identity.batch.BatchID, f))
	}
	pending = append(pending, m.settleLocked()...)
	m.mu.Unlock()

	m.publish(pending...)
	return ids
}

// RemoveFile drops a file from the session. A file whose request is in
// flight cannot be removed.
func (m *Manager) RemoveFile(id string) error {
	m.mu.Lock()
	idx := indexOf(m.files, id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrFileNotFound
	}
	f := m.files[idx]
	if f.Status == models.StatusUploading {
		m.mu.Unlock()
		return ErrFileInFlight
	}
	m.files = append(m.files[:idx], m.files[idx+1:]...)
	pending := []events.Event{NewFileEvent(events.EventFileRemoved, m.identity.batch.BatchID, f)}
	pending = append(pending, m.settleLocked()...)
	m.mu.Unlock()

	m.publish(pending...)
	return nil
}

// SetBatchMode selects the batched (true) or sequential (false) strategy.
func (m *Manager) SetBatchMode(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseUploading {
		return ErrUploadInProgress
	}
	m.batchMode = enabled
	return nil
}

// SetBatchLabel sets the display name sent with every request.
func (m *Manager) SetBatchLabel(label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseUploading {
		return ErrUploadInProgress
	}
	m.identity.setLabel(label)
	return nil
}

// SetNotes stores free-text notes. Notes are session metadata only.
func (m *Manager) SetNotes(notes string) {
	m.mu.Lock()
	m.notes = notes
	m.mu.Unlock()
}

// Upload sends every idle file with the selected strategy and blocks until
// each of them is terminal. Transfer failures are recorded on the files;
// the only errors returned are guard rejections.
func (m *Manager) Upload(ctx context.Context) error {
	m.mu.Lock()
	if m.phase == PhaseUploading {
		m.mu.Unlock()
		return ErrUploadInProgress
	}
	items := markUploading(m.files)
	if len(items) == 0 {
		m.mu.Unlock()
		return ErrNoPendingFiles
	}
	m.identity.ensure()
	m.phase = PhaseUploading
	m.latch.observe(false)
	batch := m.identity.batch
	batchMode := m.batchMode

	pending := []events.Event{NewSessionEvent(events.EventUploadStarted, batch, batchMode, len(items))}
	for _, it := range items {
		f := m.files[indexOf(m.files, it.FileID)]
		pending = append(pending, NewFileEvent(events.EventFileStatus, batch.BatchID, f))
	}
	m.mu.Unlock()
	m.publish(pending...)

	strategy := transfer.Select(batchMode, m.uploader, m.logger)
	m.logger.Info().
		Str("batch", batch.BatchLabel).
		Str("strategy", strategy.Name()).
		Int("files", len(items)).
		Msg("Starting upload")

	start := time.Now()
	strategy.Execute(ctx, items, batch, &execution{m: m, batchID: batch.BatchID})

	m.mu.Lock()
	// Guarantee every dispatched file is terminal even if the strategy missed one
	for _, it := range items {
		if idx := indexOf(m.files, it.FileID); idx >= 0 && m.files[idx].Status == models.StatusUploading {
			Apply(m.files, transfer.Outcome{
				FileID:      it.FileID,
				Status:      models.StatusError,
				ErrorDetail: transfer.MsgNoResponse,
				ErrorKind:   models.ErrorMissingResponse,
			})
		}
	}
	m.phase = PhaseIdle
	pending = m.settleLocked()
	summary := Summarize(m.files, false)
	m.mu.Unlock()

	finished := NewCompleteEvent(events.EventUploadFinished, batch.BatchID, summary, time.Since(start))
	m.publish(append([]events.Event{finished}, pending...)...)

	m.logger.Info().
		Int("success", summary.SuccessCount).
		Int("failed", summary.ErrorCount).
		Dur("elapsed", time.Since(start)).
		Msg("Upload finished")

	if m.onComplete != nil {
		m.onComplete()
	}
	return nil
}

// Clear discards every file and resets the identity, label and notes.
// The next AddFiles starts a new session with a new id.
func (m *Manager) Clear() error {
	m.mu.Lock()
	if m.phase == PhaseUploading {
		m.mu.Unlock()
		return ErrUploadInProgress
	}
	old := m.identity.batch
	m.files = nil
	m.identity.reset()
	m.notes = ""
	m.phase = PhaseIdle
	m.latch.observe(false)
	batchMode := m.batchMode
	m.mu.Unlock()

	m.publish(NewSessionEvent(events.EventSessionCleared, old, batchMode, 0))
	return nil
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	files := make([]models.PendingFile, len(m.files))
	copy(files, m.files)
	return Snapshot{
		Phase:     m.phase,
		BatchMode: m.batchMode,
		Batch:     m.identity.batch,
		Notes:     m.notes,
		Files:     files,
		Summary:   Summarize(files, m.phase == PhaseUploading),
	}
}

// Summary returns the derived counts for the current file list.
func (m *Manager) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Summarize(m.files, m.phase == PhaseUploading)
}

// Phase returns the session-level state.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// settleLocked recomputes the idle/done phase outside of an execution and
// returns the completion event when isComplete has just become true.
func (m *Manager) settleLocked() []events.Event {
	if m.phase == PhaseUploading {
		return nil
	}
	summary := Summarize(m.files, false)
	if summary.IsComplete {
		m.phase = PhaseDone
	} else {
		m.phase = PhaseIdle
	}
	if m.latch.observe(summary.IsComplete) {
		return []events.Event{NewCompleteEvent(events.EventSessionComplete, m.identity.batch.BatchID, summary, 0)}
	}
	return nil
}

func (m *Manager) publish(evs ...events.Event) {
	if m.eventBus == nil {
		return
	}
	for _, ev := range evs {
		m.eventBus.Publish(ev)
	}
}

// execution is the transfer.Reporter for one Upload call. Each report is
// applied under the manager lock before the strategy continues.
type execution struct {
	m       *Manager
	batchID string
}

func (e *execution) FileProgress(fileID string, percent int) {
	e.m.mu.Lock()
	idx := applyProgress(e.m.files, fileID, percent)
	var ev events.Event
	if idx >= 0 {
		ev = NewFileEvent(events.EventFileProgress, e.batchID, e.m.files[idx])
	}
	e.m.mu.Unlock()

	if ev != nil {
		e.m.publish(ev)
	}
}

func (e *execution) RequestProgress(sent, total int64) {
	e.m.publish(NewRequestProgressEvent(e.batchID, sent, total))
}

func (e *execution) Finished(o transfer.Outcome) {
	e.m.mu.Lock()
	idx := Apply(e.m.files, o)
	var ev events.Event
	if idx >= 0 {
		ev = NewFileEvent(events.EventFileStatus, e.batchID, e.m.files[idx])
	}
	e.m.mu.Unlock()

	if ev != nil {
		e.m.publish(ev)
	}
}
