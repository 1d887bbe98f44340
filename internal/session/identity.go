package session

import (
	"strings"
	"time"

	"github.com/resumeranker/resume-uploader/internal/models"
)

// identity owns the batch triple. ID and timestamp are created together on
// first ensure and survive until reset.
type identity struct {
	batch models.BatchSession
	now   func() time.Time
	newID func() string
}

// ensure creates the id and timestamp if unset, and defaults a blank label.
// Returns true when a new identity was created.
func (i *identity) ensure() bool {
	created := false
	if !i.batch.IsSet() {
		i.batch.BatchID = i.newID()
		i.batch.BatchTimestamp = i.now()
		created = true
	}
	i.defaultLabel()
	return created
}

// defaultLabel fills a blank label from the timestamp.
func (i *identity) defaultLabel() {
	if strings.TrimSpace(i.batch.BatchLabel) == "" && i.batch.IsSet() {
		i.batch.BatchLabel = i.batch.DefaultLabel()
	}
}

func (i *identity) setLabel(label string) {
	i.batch.BatchLabel = label
}

func (i *identity) reset() {
	i.batch = models.BatchSession{}
}
