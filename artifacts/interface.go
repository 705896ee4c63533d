package artifacts

// Interface stores finalized command clips as WAV files for the
// transcription stage. Clips are temporary: the caller removes them once
// transcription finishes, whatever its outcome.
type Interface interface {
	Save(pcm []byte) (string, error)
	Remove(path string) error
	CleanupStale() (int, error)
}
