// Package progress renders upload session events on the terminal.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/resumeranker/resume-uploader/internal/constants"
)

// RequestBar shows body bytes sent for one combined batch request.
// Off a terminal it prints a single line on start and on finish.
type RequestBar struct {
	out         io.Writer
	bar         *progressbar.ProgressBar
	total       int64
	current     int64
	description string
	finished    bool
}

// NewRequestBar creates a bar for a request of total bytes.
func NewRequestBar(out io.Writer, total int64, description string, isTerminal bool) *RequestBar {
	r := &RequestBar{out: out, total: total, description: description}
	if !isTerminal {
		fmt.Fprintf(out, "%s: sending %.1f KiB\n", description, float64(total)/1024)
		return r
	}
	r.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(constants.ProgressBarWidth),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
	return r
}

// Update moves the bar to current bytes sent.
func (r *RequestBar) Update(current int64) {
	if r == nil || r.finished {
		return
	}
	r.current = current
	if r.bar != nil {
		_ = r.bar.Set64(current)
	}
}

// Current returns the last reported byte count.
func (r *RequestBar) Current() int64 {
	if r == nil {
		return 0
	}
	return r.current
}

// Finish completes the bar. Further calls are no-ops.
func (r *RequestBar) Finish() {
	if r == nil || r.finished {
		return
	}
	r.finished = true
	if r.bar != nil {
		_ = r.bar.Finish()
		return
	}
	fmt.Fprintf(r.out, "%s: sent %.1f of %.1f KiB\n", r.description, float64(r.current)/1024, float64(r.total)/1024)
}
