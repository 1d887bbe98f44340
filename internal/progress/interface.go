package progress

import (
	"io"

	"github.com/resumeranker/resume-uploader/internal/events"
)

// UI renders an upload session's progress from its event bus.
type UI interface {
	// Attach starts consuming events from bus
	Attach(bus *events.EventBus)

	// Close stops consuming events and waits for all bars to settle
	Close()

	// Writer returns an io.Writer that safely outputs above the progress bars.
	// Returns mpb's writer if bars are active, otherwise the underlying output.
	Writer() io.Writer

	// IsTerminal returns true if output is to a terminal (progress bars are active)
	IsTerminal() bool
}
