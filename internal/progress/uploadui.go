package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/resumeranker/resume-uploader/internal/constants"
	"github.com/resumeranker/resume-uploader/internal/events"
	"github.com/resumeranker/resume-uploader/internal/models"
)

// SessionUI renders one upload execution from the session's events.
// Sequential uploads get one mpb bar per file; a batched upload gets a single
// byte counter for the combined request.
type SessionUI struct {
	out        io.Writer
	isTerminal bool

	mu        sync.Mutex
	progress  *mpb.Progress
	bars      map[string]*FileBar // file id -> bar
	request   *RequestBar
	batchMode bool
	total     int
	started   int
	succeeded int
	failed    int

	bus  *events.EventBus
	ch   <-chan events.Event
	stop chan struct{}
	done chan struct{}
}

// FileBar is a single file's progress bar (terminal only).
type FileBar struct {
	bar   *mpb.Bar
	index int
	name  string
}

var _ UI = (*SessionUI)(nil)

// NewSessionUI creates a UI writing to out. Bars are drawn only when out is a terminal.
func NewSessionUI(out io.Writer) *SessionUI {
	isTerminal := false
	if f, ok := out.(*os.File); ok {
		isTerminal = term.IsTerminal(int(f.Fd()))
		if isTerminal {
			// Enable ANSI escape sequences on Windows for proper progress bar rendering
			enableANSIOnWindows(f)
		}
	}
	return newSessionUI(out, isTerminal)
}

func newSessionUI(out io.Writer, isTerminal bool) *SessionUI {
	return &SessionUI{
		out:        out,
		isTerminal: isTerminal,
		bars:       make(map[string]*FileBar),
	}
}

// Attach subscribes to bus and renders events until Close.
func (u *SessionUI) Attach(bus *events.EventBus) {
	u.bus = bus
	u.ch = bus.SubscribeAll()
	u.stop = make(chan struct{})
	u.done = make(chan struct{})

	go func() {
		defer close(u.done)
		for {
			select {
			case ev, ok := <-u.ch:
				if !ok {
					return
				}
				u.Handle(ev)
			case <-u.stop:
				// Drain what was published before Close
				for {
					select {
					case ev, ok := <-u.ch:
						if !ok {
							return
						}
						u.Handle(ev)
					default:
						return
					}
				}
			}
		}
	}()
}

// Close stops rendering, settles every open bar and waits for mpb to flush.
func (u *SessionUI) Close() {
	if u.ch != nil {
		u.bus.UnsubscribeAll(u.ch)
		close(u.stop)
		<-u.done
		u.ch = nil
	}

	u.mu.Lock()
	u.settleLocked()
	p := u.progress
	u.progress = nil
	u.mu.Unlock()

	if p != nil {
		p.Wait()
	}
}

// Handle renders one event. Safe for concurrent use.
func (u *SessionUI) Handle(ev events.Event) {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch e := ev.(type) {
	case *events.SessionEvent:
		if e.Type() == events.EventUploadStarted {
			u.startLocked(e)
		}
	case *events.FileEvent:
		switch e.Type() {
		case events.EventFileStatus:
			u.fileStatusLocked(e)
		case events.EventFileProgress:
			if fb, ok := u.bars[e.FileID]; ok {
				fb.bar.SetCurrent(int64(e.Progress))
			}
		}
	case *events.RequestProgressEvent:
		u.requestProgressLocked(e)
	case *events.CompleteEvent:
		if e.Type() == events.EventUploadFinished {
			u.settleLocked()
		}
	}
}

func (u *SessionUI) startLocked(e *events.SessionEvent) {
	u.batchMode = e.BatchMode
	u.total = e.FileCount
	u.started = 0
	u.succeeded = 0
	u.failed = 0

	mode := "sequential"
	if e.BatchMode {
		mode = "batched"
	}
	u.printLocked(fmt.Sprintf("Uploading %d file(s) to %q (%s)\n", e.FileCount, e.BatchLabel, mode))

	if u.isTerminal && !e.BatchMode && u.progress == nil {
		u.progress = mpb.New(
			mpb.WithOutput(u.out),
			mpb.WithRefreshRate(constants.ProgressRefreshRate),
			mpb.WithWidth(constants.ProgressBarWidth),
		)
	}
}

func (u *SessionUI) fileStatusLocked(e *events.FileEvent) {
	switch e.Status {
	case models.StatusUploading:
		if u.batchMode {
			return
		}
		u.started++
		u.addFileBarLocked(e)

	case models.StatusSuccess:
		u.succeeded++
		if fb, ok := u.bars[e.FileID]; ok {
			// ENSURE exact 100% completion
			fb.bar.SetCurrent(100)
			fb.bar.SetTotal(100, true)
			delete(u.bars, e.FileID)
		}
		u.printLocked(fmt.Sprintf("✓ %s (%.1f KiB)\n", e.Name, float64(e.Size)/1024))

	case models.StatusError:
		u.failed++
		if fb, ok := u.bars[e.FileID]; ok {
			fb.bar.Abort(false) // keep the bar visible at its last position
			delete(u.bars, e.FileID)
		}
		u.printLocked(fmt.Sprintf("✗ %s: %s\n", e.Name, e.ErrorDetail))
	}
}

func (u *SessionUI) addFileBarLocked(e *events.FileEvent) {
	if !u.isTerminal || u.progress == nil {
		// Non-TTY: print simple start message
		u.printLocked(fmt.Sprintf("Uploading [%d/%d]: %s (%.1f KiB)\n", u.started, u.total, truncatePath(e.Name, 2), float64(e.Size)/1024))
		return
	}

	fb := &FileBar{index: u.started, name: e.Name}
	label := fmt.Sprintf("[%d/%d] %s", fb.index, u.total, truncatePath(e.Name, 2))
	fb.bar = u.progress.New(100,
		mpb.BarStyle().
			Lbound("[").
			Filler("█").
			Tip("█").
			Padding("░").
			Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(label, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.BarRemoveOnComplete(),
	)
	u.bars[e.FileID] = fb
}

func (u *SessionUI) requestProgressLocked(e *events.RequestProgressEvent) {
	if u.request == nil {
		u.request = NewRequestBar(u.out, e.BytesTotal, "Batch request", u.isTerminal)
	}
	u.request.Update(e.BytesSent)
}

// settleLocked finishes the request bar and aborts bars whose final status
// never arrived, so mpb's Wait cannot block.
func (u *SessionUI) settleLocked() {
	if u.request != nil {
		u.request.Finish()
		u.request = nil
	}
	for id, fb := range u.bars {
		fb.bar.Abort(false)
		delete(u.bars, id)
	}
}

// printLocked writes msg above the bars when they are active.
func (u *SessionUI) printLocked(msg string) {
	// Write through mpb's writer (not out) to avoid breaking redraws
	if u.progress != nil {
		_, _ = u.progress.Write([]byte(msg))
		return
	}
	_, _ = io.WriteString(u.out, msg)
}

// Counts returns how many files were dispatched, succeeded and failed in the
// current execution.
func (u *SessionUI) Counts() (started, succeeded, failed int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.started, u.succeeded, u.failed
}

// Writer returns an io.Writer that safely prints above the progress bars.
func (u *SessionUI) Writer() io.Writer {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.progress != nil {
		return u.progress
	}
	return u.out
}

// IsTerminal returns true if output is to a terminal (progress bars are active).
func (u *SessionUI) IsTerminal() bool {
	return u.isTerminal
}

// truncatePath truncates a file path to show only the last N components
// Example: truncatePath("/a/b/c/d/file.txt", 3) → "…/c/d/file.txt"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	relevant := parts[len(parts)-maxComponents:]
	return "…/" + strings.Join(relevant, "/")
}

// enableANSIOnWindows enables Virtual Terminal processing on Windows for ANSI escape sequences
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
