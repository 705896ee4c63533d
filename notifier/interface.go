package notifier

// Interface plays short attention cues at capture transitions. Playback is
// best-effort: failures are logged and never propagate to the caller.
type Interface interface {
	// WakeAcknowledged signals that the wake word was heard and command
	// capture has begun.
	WakeAcknowledged()
	// CommandFinished signals that a command was captured and handed off.
	CommandFinished()
}
