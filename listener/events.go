package listener

import "time"

// EventType identifies a lifecycle event emitted by the engine.
type EventType int

const (
	EventStarted EventType = iota
	EventWakewordDetected
	EventListening
	EventCommandReady
	EventError
	EventStopped
)

func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventWakewordDetected:
		return "wakeword-detected"
	case EventCommandReady:
		return "command-ready"
	case EventListening:
		return "listening"
	case EventError:
		return "error"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event is one observable engine output. CommandReady events carry the
// finalized audio bytes; Error events carry the failure; WakewordDetected
// events carry the keyword that fired.
type Event struct {
	Type    EventType
	Keyword string
	Audio   []byte
	Err     error
	Time    time.Time
}

// State is the engine's listening mode. Exactly one is active at a time.
type State int32

const (
	// StateIdle feeds audio to the keyword spotter.
	StateIdle State = iota
	// StateRecording accumulates a command until silence or the duration
	// cap ends it.
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time snapshot of engine counters, safe to read while
// the engine is running.
type Stats struct {
	State            State
	ChunksProcessed  uint64
	WakeDetections   uint64
	CommandsCaptured uint64
	ForcedFinalizes  uint64
	ChunkErrors      uint64
	SourceErrors     uint64
	DroppedEvents    uint64
}
