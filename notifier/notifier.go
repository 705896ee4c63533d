package notifier

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Two distinct tones so the user can tell "listening" from "done" without
// looking at a screen.
const (
	wakeFreq     = 880.0
	wakeMillis   = 150
	finishFreq   = 440.0
	finishMillis = 200
)

type beepImpl struct {
	log *slog.Logger
}

// New returns a notifier that plays audible cues through the system beeper.
func New(log *slog.Logger) Interface {
	if log == nil {
		log = slog.Default()
	}

	return &beepImpl{log: log}
}

func (b *beepImpl) WakeAcknowledged() {
	if err := beeep.Beep(wakeFreq, wakeMillis); err != nil {
		b.log.Debug("error playing wake cue", "error", err)
	}
}

func (b *beepImpl) CommandFinished() {
	if err := beeep.Beep(finishFreq, finishMillis); err != nil {
		b.log.Debug("error playing finish cue", "error", err)
	}
}

type noopImpl struct{}

// NewNoop returns a notifier that plays nothing, for configurations with
// sounds disabled.
func NewNoop() Interface {
	return &noopImpl{}
}

func (n *noopImpl) WakeAcknowledged() {}

func (n *noopImpl) CommandFinished() {}
