// Package wavenc wraps raw PCM in the canonical 44-byte RIFF/WAVE
// container expected by the downstream transcription tooling.
package wavenc

import (
	"bytes"
	"encoding/binary"
	"time"
)

// Encode produces a self-contained WAV byte stream: a 44-byte RIFF header
// (PCM format, 16 bits per sample, all fields little-endian) followed by
// the payload unmodified. Identical inputs yield identical output.
func Encode(pcm []byte, sampleRate, channels int) []byte {
	dataLen := len(pcm)

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen+36))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(pcm)

	return buf.Bytes()
}

// Duration reports the playback time of a 16-bit PCM payload of pcmLen
// bytes. Non-positive rate or channel counts yield 0.
func Duration(pcmLen, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}

	frames := pcmLen / 2 / channels

	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
