package models

import (
	"time"
)

// BatchTimeLayout matches JavaScript's Date.toISOString (UTC, millisecond precision).
const BatchTimeLayout = "2006-01-02T15:04:05.000Z"

// defaultLabelLayout renders like an en-US toLocaleString.
const defaultLabelLayout = "1/2/2006, 3:04:05 PM"

// BatchSession is the identity shared by every request of one upload session.
// BatchID and BatchTimestamp are set together and reset together.
type BatchSession struct {
	BatchID        string    `json:"batchId"`
	BatchTimestamp time.Time `json:"batchTimestamp"`
	BatchLabel     string    `json:"batchLabel"`
}

// IsSet reports whether the identity has been established.
func (b BatchSession) IsSet() bool {
	return b.BatchID != ""
}

// BatchTime returns the timestamp in the wire format sent as batch_time.
func (b BatchSession) BatchTime() string {
	if b.BatchTimestamp.IsZero() {
		return ""
	}
	return b.BatchTimestamp.UTC().Format(BatchTimeLayout)
}

// DefaultLabel returns the label used when the user supplies none.
func (b BatchSession) DefaultLabel() string {
	return DefaultBatchLabel(b.BatchTimestamp)
}

// DefaultBatchLabel derives a display name from a timestamp.
func DefaultBatchLabel(ts time.Time) string {
	return "Batch " + ts.Local().Format(defaultLabelLayout)
}
