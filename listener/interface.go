package listener

// Interface is the capture/endpointing engine: the sole consumer of the
// live audio stream, feeding chunks to the keyword spotter while idle and
// accumulating a command while recording. Lifecycle events are delivered on
// Events.
//
// Initialize prepares the keyword spotter; when the spotter is unavailable
// it returns ErrWakeWordDisabled and the engine runs degraded, never
// leaving Idle. Start and Stop are idempotent. Stop discards any partially
// recorded command. Close releases the spotter session and closes the
// event channel; the engine cannot be restarted afterwards.
type Interface interface {
	Initialize() error
	Start() error
	Stop() error
	Close() error
	Events() <-chan Event
	State() State
	WakeWordEnabled() bool
	Stats() Stats
}
