package listener

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"voice-typist/microphone"
	"voice-typist/notifier"
	"voice-typist/pcm"
	"voice-typist/silence"
	"voice-typist/spotter"
	"voice-typist/wavenc"
)

const eventQueueSize = 16

// ErrWakeWordDisabled reports that the keyword spotter could not be
// prepared. The engine still runs, but never transitions out of Idle;
// callers may treat this as a warning rather than a fatal error.
var ErrWakeWordDisabled = errors.New("wake word detection disabled")

type Config struct {
	SampleRate        int
	SilenceThreshold  float64
	SilenceHold       time.Duration
	MaxRecordDuration time.Duration
	// Spotter may be nil, in which case the engine runs degraded.
	Spotter  spotter.Interface
	Source   microphone.Interface
	Notifier notifier.Interface
	Logger   *slog.Logger
}

type engineImpl struct {
	cfg      Config
	log      *slog.Logger
	spotter  spotter.Interface
	source   microphone.Interface
	notifier notifier.Interface

	mu          sync.Mutex
	initialized bool
	degraded    bool
	session     spotter.Session
	started     bool
	closed      bool
	stop        chan struct{}
	done        chan struct{}

	events chan Event

	state            atomic.Int32
	chunksProcessed  atomic.Uint64
	wakeDetections   atomic.Uint64
	commandsCaptured atomic.Uint64
	forcedFinalizes  atomic.Uint64
	chunkErrors      atomic.Uint64
	sourceErrors     atomic.Uint64
	droppedEvents    atomic.Uint64

	// Owned by the run goroutine. The command buffer is reset at episode
	// boundaries, never shared.
	buf     bytes.Buffer
	silence silence.State

	now func() time.Time
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Source == nil {
		return nil, fmt.Errorf("source is nil")
	}

	if cfg.Notifier == nil {
		return nil, fmt.Errorf("notifier is nil")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate is required")
	}

	if cfg.SilenceThreshold <= 0 {
		return nil, fmt.Errorf("silence threshold is required")
	}

	if cfg.SilenceHold <= 0 {
		return nil, fmt.Errorf("silence hold is required")
	}

	if cfg.MaxRecordDuration <= 0 {
		return nil, fmt.Errorf("max record duration is required")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &engineImpl{
		cfg:      *cfg,
		log:      log,
		spotter:  cfg.Spotter,
		source:   cfg.Source,
		notifier: cfg.Notifier,
		events:   make(chan Event, eventQueueSize),
		now:      time.Now,
	}, nil
}

// Initialize prepares a keyword session. A missing or failing spotter
// degrades wake word detection instead of failing the engine.
func (e *engineImpl) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("engine is closed")
	}

	if e.initialized {
		if e.degraded {
			return ErrWakeWordDisabled
		}

		return nil
	}

	e.initialized = true

	if e.spotter == nil {
		e.degraded = true
		e.log.Warn("no keyword spotter configured")

		return ErrWakeWordDisabled
	}

	session, err := e.spotter.NewSession()
	if err != nil {
		e.degraded = true
		e.log.Warn("error preparing keyword session", "error", err)

		return fmt.Errorf("%w: %v", ErrWakeWordDisabled, err)
	}

	e.session = session

	return nil
}

func (e *engineImpl) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("engine is closed")
	}

	if !e.initialized {
		return fmt.Errorf("engine is not initialized")
	}

	if e.started {
		return nil
	}

	if err := e.source.Start(); err != nil {
		return fmt.Errorf("error starting audio source: %w", err)
	}

	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	e.started = true

	go e.run(e.stop, e.done)

	e.emit(Event{Type: EventStarted})

	e.log.Info("listening", "wake_word_enabled", !e.degraded)

	return nil
}

// Stop halts chunk processing by the next chunk boundary, discarding any
// partially recorded command. The engine may be started again.
func (e *engineImpl) Stop() error {
	e.mu.Lock()

	if !e.started {
		e.mu.Unlock()
		return nil
	}

	e.started = false
	close(e.stop)
	done := e.done

	e.mu.Unlock()

	sourceErr := e.source.Stop()

	<-done

	e.emit(Event{Type: EventStopped})

	e.log.Info("stopped listening")

	if sourceErr != nil {
		return fmt.Errorf("error stopping audio source: %w", sourceErr)
	}

	return nil
}

// Close stops the engine, releases the keyword session, and closes the
// event channel. Safe to call more than once.
func (e *engineImpl) Close() error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return nil
	}

	// Refuse new Starts before stopping so nothing can emit after the
	// event channel closes.
	e.closed = true

	e.mu.Unlock()

	stopErr := e.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		if err := e.session.Close(); err != nil {
			e.log.Warn("error releasing keyword session", "error", err)
		}

		e.session = nil
	}

	close(e.events)

	return stopErr
}

func (e *engineImpl) Events() <-chan Event {
	return e.events
}

func (e *engineImpl) State() State {
	return State(e.state.Load())
}

func (e *engineImpl) WakeWordEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.initialized && !e.degraded
}

func (e *engineImpl) Stats() Stats {
	return Stats{
		State:            State(e.state.Load()),
		ChunksProcessed:  e.chunksProcessed.Load(),
		WakeDetections:   e.wakeDetections.Load(),
		CommandsCaptured: e.commandsCaptured.Load(),
		ForcedFinalizes:  e.forcedFinalizes.Load(),
		ChunkErrors:      e.chunkErrors.Load(),
		SourceErrors:     e.sourceErrors.Load(),
		DroppedEvents:    e.droppedEvents.Load(),
	}
}

// run processes chunks strictly in arrival order, one at a time. Source
// errors are surfaced as events without stopping the loop.
func (e *engineImpl) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	e.buf.Reset()
	e.silence = silence.State{}
	e.state.Store(int32(StateIdle))

	defer func() {
		e.buf.Reset()
		e.state.Store(int32(StateIdle))
	}()

	for {
		select {
		case <-stop:
			return
		case chunk, ok := <-e.source.Chunks():
			if !ok {
				e.log.Warn("audio source closed")

				return
			}

			e.processChunk(chunk)
		case err := <-e.source.Errors():
			e.sourceErrors.Add(1)
			e.emit(Event{Type: EventError, Err: err})
			e.log.Error("audio source error", "error", err)
		}
	}
}

func (e *engineImpl) processChunk(chunk []byte) {
	e.chunksProcessed.Add(1)

	if State(e.state.Load()) == StateRecording {
		e.recordChunk(chunk)

		return
	}

	e.spotChunk(chunk)
}

// spotChunk runs one streaming decode pass over the keyword session and
// transitions to Recording when a keyword fires.
func (e *engineImpl) spotChunk(chunk []byte) {
	if e.degraded {
		return
	}

	keyword, err := e.detectKeyword(chunk)
	if err != nil {
		e.chunkErrors.Add(1)
		e.emit(Event{Type: EventError, Err: err})
		e.log.Error("error spotting keyword", "error", err)

		return
	}

	if strings.TrimSpace(keyword) == "" {
		return
	}

	e.wakeDetections.Add(1)

	if err := e.session.Reset(); err != nil {
		e.log.Warn("error resetting keyword session", "error", err)
	}

	e.silence = silence.State{}
	e.buf.Reset()
	e.state.Store(int32(StateRecording))

	e.emit(Event{Type: EventWakewordDetected, Keyword: keyword})
	e.emit(Event{Type: EventListening})

	go e.notifier.WakeAcknowledged()

	e.log.Info("wake word detected", "keyword", keyword)
}

func (e *engineImpl) detectKeyword(chunk []byte) (string, error) {
	if err := e.session.Feed(pcm.Float32Samples(chunk)); err != nil {
		return "", fmt.Errorf("error feeding keyword session: %w", err)
	}

	// Drain every ready decode step before reading the result; the spotter
	// may buffer multiple decodable frames per chunk.
	for e.session.Ready() {
		if err := e.session.Decode(); err != nil {
			return "", fmt.Errorf("error decoding keyword session: %w", err)
		}
	}

	keyword, err := e.session.Result()
	if err != nil {
		return "", fmt.Errorf("error reading keyword result: %w", err)
	}

	return keyword, nil
}

// recordChunk accumulates command audio and finalizes on sustained silence
// or when the buffered duration reaches the cap.
func (e *engineImpl) recordChunk(chunk []byte) {
	e.buf.Write(chunk)

	next, shouldEnd := silence.Update(
		e.silence, chunk, e.cfg.SilenceThreshold, e.cfg.SilenceHold, e.now())
	e.silence = next

	if !shouldEnd {
		if wavenc.Duration(e.buf.Len(), e.cfg.SampleRate, 1) < e.cfg.MaxRecordDuration {
			return
		}

		e.forcedFinalizes.Add(1)
		e.log.Info("max recording duration reached")
	}

	e.finalize()
}

// finalize emits the completed command and resets for the next episode.
func (e *engineImpl) finalize() {
	audio := make([]byte, e.buf.Len())
	copy(audio, e.buf.Bytes())

	e.commandsCaptured.Add(1)

	e.emit(Event{Type: EventCommandReady, Audio: audio})

	e.buf.Reset()
	e.silence = silence.State{}
	e.state.Store(int32(StateIdle))

	go e.notifier.CommandFinished()

	e.log.Info("command captured",
		"bytes", len(audio),
		"duration", wavenc.Duration(len(audio), e.cfg.SampleRate, 1).String(),
	)
}

// emit never blocks chunk processing; a full queue drops the event.
func (e *engineImpl) emit(ev Event) {
	ev.Time = e.now()

	select {
	case e.events <- ev:
	default:
		e.droppedEvents.Add(1)
		e.log.Warn("event queue full, dropping event", "type", ev.Type.String())
	}
}
