package pcm

import (
	"math"
	"testing"
)

func TestAmplitude(t *testing.T) {
	t.Run("empty chunk returns zero", func(t *testing.T) {
		if got := Amplitude(nil); got != 0 {
			t.Errorf("expected 0, got %f", got)
		}

		if got := Amplitude([]byte{}); got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
	})

	t.Run("mean of absolute values", func(t *testing.T) {
		chunk := Bytes([]int16{100, -100, 100, -100})

		if got := Amplitude(chunk); got != 100 {
			t.Errorf("expected 100, got %f", got)
		}
	})

	t.Run("mixed magnitudes average", func(t *testing.T) {
		chunk := Bytes([]int16{0, 1000})

		if got := Amplitude(chunk); got != 500 {
			t.Errorf("expected 500, got %f", got)
		}
	})

	t.Run("negative extreme does not overflow", func(t *testing.T) {
		chunk := Bytes([]int16{-32768})

		if got := Amplitude(chunk); got != 32768 {
			t.Errorf("expected 32768, got %f", got)
		}
	})
}

func TestFloat32Samples(t *testing.T) {
	t.Run("bounds stay inside [-1, 1]", func(t *testing.T) {
		samples := Float32Samples(Bytes([]int16{32767, -32768}))

		if samples[0] >= 1 {
			t.Errorf("expected positive max below 1, got %f", samples[0])
		}

		if samples[1] != -1 {
			t.Errorf("expected exactly -1 at the negative extreme, got %f", samples[1])
		}
	})

	t.Run("scaling back recovers every int16", func(t *testing.T) {
		for v := -32768; v <= 32767; v++ {
			samples := Float32Samples(Bytes([]int16{int16(v)}))

			got := int(math.Round(float64(samples[0]) * 32768))
			if got != v {
				t.Fatalf("round trip failed at %d: got %d", v, got)
			}
		}
	})
}

func TestBytesSamplesRoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 12345, -12345, 32767, -32768}

	out := Samples(Bytes(in))

	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}

	for i := range in {
		if in[i] != out[i] {
			t.Errorf("sample %d: expected %d, got %d", i, in[i], out[i])
		}
	}
}
