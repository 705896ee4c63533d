package artifacts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"voice-typist/wavenc"
)

const (
	filePrefix = "command_"
	fileSuffix = ".wav"
)

type storeImpl struct {
	fs         afero.Fs
	dir        string
	sampleRate int
	channels   int
	log        *slog.Logger
}

type Config struct {
	FileSys    afero.Fs
	Dir        string
	SampleRate int
	Channels   int
	Logger     *slog.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate is required")
	}

	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("channels is required")
	}

	if err := cfg.FileSys.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating artifact dir: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &storeImpl{
		fs:         cfg.FileSys,
		dir:        cfg.Dir,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		log:        log,
	}, nil
}

// Save encodes the PCM audio as a WAV file under a fresh name and returns
// its path.
func (s *storeImpl) Save(pcm []byte) (string, error) {
	name := filePrefix + uuid.NewString() + fileSuffix
	path := filepath.Join(s.dir, name)

	if err := afero.WriteFile(s.fs, path, wavenc.Encode(pcm, s.sampleRate, s.channels), 0o644); err != nil {
		return "", fmt.Errorf("error writing command audio: %w", err)
	}

	return path, nil
}

// Remove deletes a saved clip. A path that is already gone is not an error.
func (s *storeImpl) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing command audio: %w", err)
	}

	return nil
}

// CleanupStale deletes clips left behind by a previous run.
func (s *storeImpl) CleanupStale() (int, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return 0, fmt.Errorf("error reading artifact dir: %w", err)
	}

	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		if err := s.fs.Remove(filepath.Join(s.dir, name)); err != nil {
			s.log.Warn("error removing stale clip", "file", name, "error", err)

			continue
		}

		removed++
	}

	if removed > 0 {
		s.log.Info("removed stale command clips", "count", removed)
	}

	return removed, nil
}
