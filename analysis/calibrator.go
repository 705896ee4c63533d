package analysis

import (
	"math"
	"sort"

	"voice-typist/pcm"
	"voice-typist/ring_buffer"
)

// headroomFactor scales the observed ambient level up to a threshold that
// ordinary room noise stays under.
const headroomFactor = 1.75

// minThreshold is the floor below which a recommendation is never useful:
// amplitudes this small are indistinguishable from capture noise.
const minThreshold = 100

// Calibrator watches ambient capture audio and recommends a silence
// amplitude threshold for the endpointing configuration.
type Calibrator struct {
	window   *ring_buffer.Window
	flux     *FluxAnalyzer
	peakFlux float64
}

// Recommendation summarizes an observation run. Threshold is the suggested
// silence amplitude; PeakFlux above roughly 1.0 suggests the run was not
// actually quiet (speech or transient noise happened during calibration).
type Recommendation struct {
	Mean      float64
	P95       float64
	Peak      float64
	PeakFlux  float64
	Threshold float64
	Samples   int
}

// NewCalibrator keeps a rolling window of windowSize amplitude
// observations over capture chunks of chunkSamples samples each.
func NewCalibrator(windowSize, chunkSamples int) *Calibrator {
	return &Calibrator{
		window: ring_buffer.New(windowSize),
		flux:   NewFlux(chunkSamples),
	}
}

// Observe feeds one capture chunk into the rolling window.
func (c *Calibrator) Observe(chunk []byte) {
	c.window.Add(pcm.Amplitude(chunk))

	if fl := c.flux.Flux(pcm.Samples(chunk)); fl > c.peakFlux {
		c.peakFlux = fl
	}
}

// Recommend computes the threshold suggestion from everything observed so
// far. An empty run yields the zero Recommendation.
func (c *Calibrator) Recommend() Recommendation {
	values := c.window.Values()
	if len(values) == 0 {
		return Recommendation{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}

	mean := sum / float64(len(values))
	p95 := sorted[int(float64(len(sorted)-1)*0.95)]
	peak := sorted[len(sorted)-1]

	threshold := math.Round(p95 * headroomFactor)
	if threshold < minThreshold {
		threshold = minThreshold
	}

	return Recommendation{
		Mean:      mean,
		P95:       p95,
		Peak:      peak,
		PeakFlux:  c.peakFlux,
		Threshold: threshold,
		Samples:   len(values),
	}
}
