package microphone

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"voice-typist/pcm"
)

const (
	chunkQueueSize = 8
	errorQueueSize = 4
)

// Config holds the values needed to open a capture stream.
type Config struct {
	SampleRate  int
	Channels    int
	ChunkFrames int
	// Device is an index into the portaudio device list, or -1 for the
	// system default input.
	Device int
	Logger *slog.Logger
}

type micImpl struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool

	chunks  chan []byte
	errs    chan error
	dropped atomic.Int64
}

// Init readies the audio backend. Call once before New, and pair with
// Terminate at shutdown.
func Init() error {
	return portaudio.Initialize()
}

// Terminate releases the audio backend.
func Terminate() error {
	return portaudio.Terminate()
}

// New creates a capture source for the given configuration. The stream is
// not opened until Start.
func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate is required")
	}

	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("channels is required")
	}

	if cfg.ChunkFrames <= 0 {
		return nil, fmt.Errorf("chunk frames is required")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &micImpl{
		cfg:    *cfg,
		log:    log,
		chunks: make(chan []byte, chunkQueueSize),
		errs:   make(chan error, errorQueueSize),
	}, nil
}

func (m *micImpl) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}

	in := make([]int16, m.cfg.ChunkFrames*m.cfg.Channels)

	stream, err := m.openStream(in)
	if err != nil {
		return fmt.Errorf("error opening capture stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("error starting capture stream: %w", err)
	}

	m.stream = stream
	m.stop = make(chan struct{})
	m.started = true

	m.wg.Add(1)
	go m.readLoop(stream, in, m.stop)

	m.log.Info("capture started",
		"sample_rate", m.cfg.SampleRate,
		"chunk_frames", m.cfg.ChunkFrames,
		"device", m.cfg.Device,
	)

	return nil
}

func (m *micImpl) openStream(in []int16) (*portaudio.Stream, error) {
	if m.cfg.Device < 0 {
		return portaudio.OpenDefaultStream(
			m.cfg.Channels, 0, float64(m.cfg.SampleRate), m.cfg.ChunkFrames, in)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("error listing devices: %w", err)
	}

	if m.cfg.Device >= len(devices) {
		return nil, fmt.Errorf("no device at index %d", m.cfg.Device)
	}

	device := devices[m.cfg.Device]
	if device.MaxInputChannels < m.cfg.Channels {
		return nil, fmt.Errorf("device %q has no input channels", device.Name)
	}

	params := portaudio.HighLatencyParameters(device, nil)
	params.Input.Channels = m.cfg.Channels
	params.SampleRate = float64(m.cfg.SampleRate)
	params.FramesPerBuffer = m.cfg.ChunkFrames

	return portaudio.OpenStream(params, in)
}

// readLoop pulls frames off the device and pushes copies downstream. A full
// queue drops the chunk rather than stalling capture.
func (m *micImpl) readLoop(stream *portaudio.Stream, in []int16, stop chan struct{}) {
	defer m.wg.Done()

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			if err == portaudio.InputOverflowed {
				m.log.Debug("input overflowed")
				continue
			}

			select {
			case m.errs <- fmt.Errorf("error reading capture stream: %w", err):
			default:
			}

			return
		}

		select {
		case m.chunks <- pcm.Bytes(in):
		default:
			m.dropped.Add(1)
		}
	}
}

func (m *micImpl) Stop() error {
	m.mu.Lock()

	if !m.started {
		m.mu.Unlock()
		return nil
	}

	m.started = false
	close(m.stop)
	stream := m.stream
	m.stream = nil

	m.mu.Unlock()

	m.wg.Wait()

	if dropped := m.dropped.Swap(0); dropped > 0 {
		m.log.Warn("dropped capture chunks", "count", dropped)
	}

	if err := stream.Stop(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("error stopping capture stream: %w", err)
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("error closing capture stream: %w", err)
	}

	m.log.Info("capture stopped")

	return nil
}

func (m *micImpl) Chunks() <-chan []byte {
	return m.chunks
}

func (m *micImpl) Errors() <-chan error {
	return m.errs
}

// Devices lists every input-capable device, with indexes usable as the
// Device config value.
func Devices() ([]Device, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("error listing devices: %w", err)
	}

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		defaultInput = nil
	}

	var devices []Device

	for i, info := range all {
		if info.MaxInputChannels <= 0 {
			continue
		}

		devices = append(devices, Device{
			Index:             i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			Default:           defaultInput != nil && info == defaultInput,
		})
	}

	return devices, nil
}
