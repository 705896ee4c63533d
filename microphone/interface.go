package microphone

// Interface is the push-based capture source the engine subscribes to.
// Chunks delivers even-length byte chunks of interleaved little-endian
// int16 mono samples at the configured rate; Errors reports capture
// failures. Delivery may stop at any time; the consumer owns the restart
// policy. Start and Stop are idempotent.
type Interface interface {
	Start() error
	Stop() error
	Chunks() <-chan []byte
	Errors() <-chan error
}

// Device describes one capture device for the device-listing mode.
type Device struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}
