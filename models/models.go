package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"voice-typist/spotter"
)

// ErrModelMissing reports a required model file absent from disk. Callers
// decide whether that is fatal: the keyword spotter runs degraded without
// its files, the transcriber cannot run at all.
var ErrModelMissing = errors.New("model file missing")

// WhisperModelFile is the transcription model's filename, a single ggml
// weights file. The keyword spotter ships as four files named by the
// spotter package.
const WhisperModelFile = "ggml-base.en.bin"

const (
	defaultSpotterBaseURL = "https://huggingface.co/csukuangfj/sherpa-onnx-kws-zipformer-gigaspeech-3.3M-2024-01-01/resolve/main/"
	defaultWhisperBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

	defaultMaxRetries   = 3
	defaultRetryBackoff = time.Second * 2
)

// File is one required model asset. SHA256 is an optional hex digest; a
// download is verified against it when set.
type File struct {
	Name   string
	URL    string
	SHA256 string
}

type Provisioner struct {
	fs           afero.Fs
	dir          string
	spotterURL   string
	whisperURL   string
	checksums    map[string]string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	log          *slog.Logger
}

type Config struct {
	FileSys afero.Fs
	Dir     string
	// SpotterBaseURL and WhisperBaseURL override the default model hosts.
	SpotterBaseURL string
	WhisperBaseURL string
	// Checksums pins files to hex sha-256 digests, keyed by filename.
	Checksums    map[string]string
	HTTPClient   *http.Client
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *slog.Logger
}

func New(cfg *Config) (*Provisioner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}

	p := &Provisioner{
		fs:           cfg.FileSys,
		dir:          cfg.Dir,
		spotterURL:   cfg.SpotterBaseURL,
		whisperURL:   cfg.WhisperBaseURL,
		checksums:    cfg.Checksums,
		httpClient:   cfg.HTTPClient,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		log:          cfg.Logger,
	}

	if p.spotterURL == "" {
		p.spotterURL = defaultSpotterBaseURL
	}

	if p.whisperURL == "" {
		p.whisperURL = defaultWhisperBaseURL
	}

	if p.httpClient == nil {
		p.httpClient = &http.Client{}
	}

	if p.maxRetries <= 0 {
		p.maxRetries = defaultMaxRetries
	}

	if p.retryBackoff <= 0 {
		p.retryBackoff = defaultRetryBackoff
	}

	if p.log == nil {
		p.log = slog.Default()
	}

	return p, nil
}

// Manifest lists every model file the app needs at runtime.
func (p *Provisioner) Manifest() []File {
	files := []File{
		{Name: spotter.EncoderFile, URL: p.spotterURL + spotter.EncoderFile},
		{Name: spotter.DecoderFile, URL: p.spotterURL + spotter.DecoderFile},
		{Name: spotter.JoinerFile, URL: p.spotterURL + spotter.JoinerFile},
		{Name: spotter.TokensFile, URL: p.spotterURL + spotter.TokensFile},
		{Name: WhisperModelFile, URL: p.whisperURL + WhisperModelFile},
	}

	for i := range files {
		files[i].SHA256 = p.checksums[files[i].Name]
	}

	return files
}

// Ensure downloads any missing model files and returns the names it
// fetched. Files already on disk are never re-downloaded.
func (p *Provisioner) Ensure(ctx context.Context) ([]string, error) {
	if err := p.fs.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating model dir: %w", err)
	}

	var fetched []string

	for _, file := range p.Manifest() {
		path := filepath.Join(p.dir, file.Name)

		exists, err := afero.Exists(p.fs, path)
		if err != nil {
			return fetched, fmt.Errorf("error checking %s: %w", file.Name, err)
		}

		if exists {
			continue
		}

		p.log.Info("downloading model file", "name", file.Name, "url", file.URL)

		if err := p.download(ctx, file, path); err != nil {
			return fetched, fmt.Errorf("error downloading %s: %w", file.Name, err)
		}

		fetched = append(fetched, file.Name)
	}

	return fetched, nil
}

// WhisperModelPath returns where Ensure places the transcription model.
func WhisperModelPath(dir string) string {
	return filepath.Join(dir, WhisperModelFile)
}

// VerifyFile checks that the model file at path exists, returning
// ErrModelMissing wrapping the path when it does not.
func VerifyFile(fs afero.Fs, path string) error {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return fmt.Errorf("error checking %s: %w", path, err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", ErrModelMissing, path)
	}

	return nil
}

func (p *Provisioner) download(ctx context.Context, file File, destPath string) error {
	var lastErr error

	backoff := p.retryBackoff

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		err := p.fetch(ctx, file, destPath)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}

		lastErr = err

		p.log.Warn("model download failed", "url", file.URL, "attempt", attempt+1, "error", err)
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// fetch streams the body to a temp file and renames it into place, so an
// interrupted download never leaves a truncated model behind. A pinned
// digest is checked before the rename.
func (p *Provisioner) fetch(ctx context.Context, file File, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error requesting model: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}

	tmpPath := destPath + ".partial"

	out, err := p.fs.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}

	hasher := sha256.New()

	dest := io.Writer(out)
	if file.SHA256 != "" {
		dest = io.MultiWriter(out, hasher)
	}

	if _, err := io.Copy(dest, resp.Body); err != nil {
		_ = out.Close()
		_ = p.fs.Remove(tmpPath)

		return fmt.Errorf("error writing model file: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("error closing model file: %w", err)
	}

	if file.SHA256 != "" {
		if sum := hex.EncodeToString(hasher.Sum(nil)); sum != file.SHA256 {
			_ = p.fs.Remove(tmpPath)

			return fmt.Errorf("checksum mismatch for %s: got %s, want %s", file.Name, sum, file.SHA256)
		}
	}

	if err := p.fs.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("error moving model file into place: %w", err)
	}

	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("download failed with status %d", e.code)
}

// isRetryable treats transport failures, 5xx and rate limiting as
// transient; anything else fails immediately.
func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}

	return true
}
