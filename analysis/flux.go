// Package analysis provides offline signal analysis for the calibrate
// mode: spectral flux between capture windows and an ambient-noise
// calibrator that recommends an endpointing threshold.
package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FluxAnalyzer computes spectral flux between consecutive sample windows:
// the summed positive change in magnitude across FFT bins. Speech onsets
// spike the flux well above the steady background level.
type FluxAnalyzer struct {
	size    int
	prevMag []float64
}

// NewFlux returns an analyzer for windows of the given sample count.
// Shorter windows are zero-padded so bin counts stay comparable.
func NewFlux(size int) *FluxAnalyzer {
	if size <= 0 {
		size = 1
	}

	return &FluxAnalyzer{size: size}
}

// Flux returns the spectral flux of the window against the previous one.
// The first window only establishes the baseline and returns 0.
func (f *FluxAnalyzer) Flux(samples []int16) float64 {
	in := make([]float64, f.size)

	for i, s := range samples {
		if i >= f.size {
			break
		}

		in[i] = float64(s) / 32768
	}

	spectrum := fft.FFTReal(in)

	mag := make([]float64, len(spectrum)/2+1)
	for i := range mag {
		mag[i] = cmplx.Abs(spectrum[i])
	}

	var flux float64

	if len(f.prevMag) == len(mag) {
		for i := range mag {
			if d := mag[i] - f.prevMag[i]; d > 0 {
				flux += d
			}
		}
	}

	f.prevMag = mag

	return flux
}
