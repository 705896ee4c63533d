package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"

	"voice-typist/pcm"
	"voice-typist/wavenc"
)

const cleanupInterval = time.Hour

type sidecar struct {
	ID         string    `json:"id"`
	Keyword    string    `json:"keyword"`
	Transcript string    `json:"transcript"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type archiveImpl struct {
	fs         afero.Fs
	dir        string
	sampleRate int
	channels   int
	retention  time.Duration
	maxFiles   int
	log        *slog.Logger

	now func() time.Time
}

type Config struct {
	FileSys    afero.Fs
	Dir        string
	SampleRate int
	Channels   int
	// Retention removes records older than this; zero keeps them forever.
	Retention time.Duration
	// MaxFiles caps the number of kept records, oldest removed first; zero
	// means no cap.
	MaxFiles int
	Logger   *slog.Logger
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
		return nil, fmt.Errorf("error creating archive dir: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &archiveImpl{
		fs:         cfg.FileSys,
		dir:        cfg.Dir,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		retention:  cfg.Retention,
		maxFiles:   cfg.MaxFiles,
		log:        log,
		now:        time.Now,
	}, nil
}

func (a *archiveImpl) Save(rec Record) error {
	base := rec.CreatedAt.Format("20060102-150405") + "_" + rec.ID

	if err := a.writeWave(base+".wav", rec.Audio); err != nil {
		return err
	}

	meta := sidecar{
		ID:         rec.ID,
		Keyword:    rec.Keyword,
		Transcript: rec.Transcript,
		DurationMs: wavenc.Duration(len(rec.Audio), a.sampleRate, a.channels).Milliseconds(),
		CreatedAt:  rec.CreatedAt,
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding record metadata: %w", err)
	}

	path := filepath.Join(a.dir, base+".json")
	if err := afero.WriteFile(a.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("error writing record metadata: %w", err)
	}

	a.log.Debug("archived command", "id", rec.ID, "bytes", len(rec.Audio))

	return nil
}

func (a *archiveImpl) writeWave(name string, audio []byte) error {
	waveFile, err := a.fs.Create(filepath.Join(a.dir, name))
	if err != nil {
		return fmt.Errorf("error creating archive clip: %w", err)
	}

	param := wave.WriterParam{
		Out:           waveFile,
		Channel:       a.channels,
		SampleRate:    a.sampleRate,
		BitsPerSample: 16,
	}

	waveWriter, err := wave.NewWriter(param)
	if err != nil {
		_ = waveFile.Close()

		return fmt.Errorf("error creating wave writer: %w", err)
	}

	if _, err := waveWriter.WriteSample16(pcm.Samples(audio)); err != nil {
		_ = waveWriter.Close()

		return fmt.Errorf("error writing archive clip: %w", err)
	}

	if err := waveWriter.Close(); err != nil {
		return fmt.Errorf("error closing archive clip: %w", err)
	}

	return nil
}

// Cleanup applies the retention policy once and reports how many records
// were removed.
func (a *archiveImpl) Cleanup() (int, error) {
	entries, err := afero.ReadDir(a.fs, a.dir)
	if err != nil {
		return 0, fmt.Errorf("error reading archive dir: %w", err)
	}

	type clip struct {
		name    string
		modTime time.Time
	}

	var clips []clip

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".wav") {
			continue
		}

		clips = append(clips, clip{name: entry.Name(), modTime: entry.ModTime()})
	}

	sort.Slice(clips, func(i, j int) bool {
		return clips[i].modTime.After(clips[j].modTime)
	})

	removed := 0

	for i, c := range clips {
		expired := a.retention > 0 && a.now().Sub(c.modTime) > a.retention
		overCap := a.maxFiles > 0 && i >= a.maxFiles

		if !expired && !overCap {
			continue
		}

		if err := a.removeRecord(c.name); err != nil {
			a.log.Warn("error removing archived record", "file", c.name, "error", err)

			continue
		}

		removed++
	}

	if removed > 0 {
		a.log.Info("pruned archived commands", "count", removed)
	}

	return removed, nil
}

func (a *archiveImpl) removeRecord(waveName string) error {
	if err := a.fs.Remove(filepath.Join(a.dir, waveName)); err != nil {
		return err
	}

	sidecarName := strings.TrimSuffix(waveName, ".wav") + ".json"
	if err := a.fs.Remove(filepath.Join(a.dir, sidecarName)); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// Run applies the retention policy on a fixed interval until the context
// ends.
func (a *archiveImpl) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Cleanup(); err != nil {
				a.log.Error("error pruning archive", "error", err)
			}
		}
	}
}
