package analysis

import (
	"math"
	"testing"

	"voice-typist/pcm"
)

// sineChunk synthesizes one chunk of a sine wave at the given peak.
func sineChunk(samples int, freq float64, peak float64) []byte {
	out := make([]int16, samples)

	for i := range out {
		out[i] = int16(peak * math.Sin(2*math.Pi*freq*float64(i)/16000))
	}

	return pcm.Bytes(out)
}

func TestFluxAnalyzer(t *testing.T) {
	t.Run("first window returns zero baseline", func(t *testing.T) {
		flux := NewFlux(256)

		if got := flux.Flux(make([]int16, 256)); got != 0 {
			t.Errorf("expected 0 on first window, got %f", got)
		}
	})

	t.Run("tone onset spikes the flux", func(t *testing.T) {
		flux := NewFlux(256)

		flux.Flux(make([]int16, 256))

		quiet := flux.Flux(make([]int16, 256))

		loud := flux.Flux(pcm.Samples(sineChunk(256, 440, 8000)))

		if loud <= quiet {
			t.Errorf("expected tone onset flux above silence flux: %f <= %f", loud, quiet)
		}
	})

	t.Run("steady tone settles back down", func(t *testing.T) {
		flux := NewFlux(256)

		chunk := pcm.Samples(sineChunk(256, 440, 8000))

		flux.Flux(make([]int16, 256))
		onset := flux.Flux(chunk)
		steady := flux.Flux(chunk)

		if steady >= onset {
			t.Errorf("expected steady tone flux below onset flux: %f >= %f", steady, onset)
		}
	})
}

func TestCalibrator(t *testing.T) {
	t.Run("empty run yields zero recommendation", func(t *testing.T) {
		cal := NewCalibrator(16, 256)

		rec := cal.Recommend()
		if rec.Samples != 0 || rec.Threshold != 0 {
			t.Errorf("expected zero recommendation, got %+v", rec)
		}
	})

	t.Run("quiet room floors the threshold", func(t *testing.T) {
		cal := NewCalibrator(16, 4)

		for i := 0; i < 16; i++ {
			cal.Observe(pcm.Bytes([]int16{10, -10, 10, -10}))
		}

		rec := cal.Recommend()

		if rec.Threshold != minThreshold {
			t.Errorf("expected floor threshold %d, got %f", minThreshold, rec.Threshold)
		}

		if rec.Mean != 10 {
			t.Errorf("expected mean 10, got %f", rec.Mean)
		}
	})

	t.Run("noisy room scales the threshold with headroom", func(t *testing.T) {
		cal := NewCalibrator(16, 4)

		for i := 0; i < 16; i++ {
			cal.Observe(pcm.Bytes([]int16{400, -400, 400, -400}))
		}

		rec := cal.Recommend()

		want := math.Round(400 * headroomFactor)
		if rec.Threshold != want {
			t.Errorf("expected threshold %f, got %f", want, rec.Threshold)
		}
	})

	t.Run("speech during calibration shows up as peak flux", func(t *testing.T) {
		cal := NewCalibrator(32, 256)

		quietRun := NewCalibrator(32, 256)

		for i := 0; i < 8; i++ {
			quiet := pcm.Bytes(make([]int16, 256))
			quietRun.Observe(quiet)
			cal.Observe(quiet)
		}

		cal.Observe(sineChunk(256, 440, 8000))

		if cal.Recommend().PeakFlux <= quietRun.Recommend().PeakFlux {
			t.Error("expected tone burst to raise peak flux above the quiet run")
		}
	})
}
