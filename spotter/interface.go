package spotter

// Interface is the keyword-spotting capability consumed by the capture
// engine. Implementations load a streaming model once and hand out decode
// sessions; the engine owns exactly one session at a time.
type Interface interface {
	// NewSession opens a decode stream against the loaded model.
	NewSession() (Session, error)
	// Close releases the model. Repeated calls are no-ops.
	Close() error
}

// Session is one streaming decode stream. Feed accepts normalized float
// samples in [-1, 1] at the sample rate fixed when the spotter was built.
// Callers drain Ready/Decode fully before reading Result, Reset the
// session after each detection, and Close it when done; Close is
// idempotent.
type Session interface {
	Feed(samples []float32) error
	Ready() bool
	Decode() error
	Result() (string, error)
	Reset() error
	Close() error
}
