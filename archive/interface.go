package archive

import (
	"context"
	"time"
)

// Record is one captured command kept for review: the audio clip plus what
// was heard and when.
type Record struct {
	ID         string
	Keyword    string
	Transcript string
	Audio      []byte
	CreatedAt  time.Time
}

// Interface persists captured commands and prunes old ones. Save writes the
// clip and a JSON sidecar; Cleanup applies the retention policy once; Run
// applies it periodically until the context ends.
type Interface interface {
	Save(rec Record) error
	Cleanup() (int, error)
	Run(ctx context.Context)
}
