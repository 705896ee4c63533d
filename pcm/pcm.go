// Package pcm decodes interleaved little-endian signed 16-bit mono PCM
// chunks and computes the cheap energy proxy used for endpointing.
// Chunk byte lengths are expected to be even (one sample per two bytes);
// that precondition is owned by the audio source.
package pcm

import "encoding/binary"

// Amplitude returns the mean absolute sample value of the chunk.
// An empty chunk returns 0; the function never fails.
func Amplitude(chunk []byte) float64 {
	if len(chunk) < 2 {
		return 0
	}

	var sum float64

	n := 0

	for i := 0; i+1 < len(chunk); i += 2 {
		v := int(int16(binary.LittleEndian.Uint16(chunk[i:])))
		if v < 0 {
			v = -v
		}

		sum += float64(v)
		n++
	}

	return sum / float64(n)
}

// Float32Samples converts the chunk to normalized float32 samples in
// [-1, 1], each int16 divided by 32768. The mapping is exact for every
// int16 value (float32 carries 16-bit integers exactly and the divisor is
// a power of two): -32768 maps to exactly -1 and scaling back by 32768
// recovers the original sample, including the negative extreme.
func Float32Samples(chunk []byte) []float32 {
	out := make([]float32, 0, len(chunk)/2)

	for i := 0; i+1 < len(chunk); i += 2 {
		s := int16(binary.LittleEndian.Uint16(chunk[i:]))
		out = append(out, float32(s)/32768)
	}

	return out
}

// Samples decodes the chunk into int16 samples.
func Samples(chunk []byte) []int16 {
	out := make([]int16, 0, len(chunk)/2)

	for i := 0; i+1 < len(chunk); i += 2 {
		out = append(out, int16(binary.LittleEndian.Uint16(chunk[i:])))
	}

	return out
}

// Bytes encodes int16 samples as an interleaved little-endian chunk. It is
// the inverse of Samples.
func Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)

	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}

	return out
}
