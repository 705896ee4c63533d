package speech_to_text

// Interface transcribes captured command audio. Implementations expect a
// canonical WAV file, 16kHz mono 16-bit, and return the transcript text.
type Interface interface {
	TranscribeFile(path string) (string, error)
}
