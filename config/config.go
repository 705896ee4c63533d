// Package config loads and validates the daemon configuration from YAML,
// with defaults that work out of the box on a 16 kHz mono capture device.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration. Sections are read once at startup and
// treated as read-only afterwards.
type Config struct {
	Audio      AudioConfig      `yaml:"audio"`
	Wake       WakeConfig       `yaml:"wake"`
	Silence    SilenceConfig    `yaml:"silence"`
	Recording  RecordingConfig  `yaml:"recording"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Typing     TypingConfig     `yaml:"typing"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
	Models     ModelsConfig     `yaml:"models"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Status     StatusConfig     `yaml:"status"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AudioConfig struct {
	SampleRate  int `yaml:"sample_rate"`
	Channels    int `yaml:"channels"`
	ChunkFrames int `yaml:"chunk_frames"`
	Device      int `yaml:"device"`
}

type WakeConfig struct {
	Keyword string `yaml:"keyword"`
	Sounds  bool   `yaml:"sounds"`
}

type SilenceConfig struct {
	Threshold  float64 `yaml:"threshold"`
	DurationMs int     `yaml:"duration_ms"`
}

type RecordingConfig struct {
	MaxDurationMs int `yaml:"max_duration_ms"`
}

type TranscribeConfig struct {
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"`
}

type TypingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Method  string `yaml:"method"`
}

type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

type ModelsConfig struct {
	Dir          string `yaml:"dir"`
	AutoDownload bool   `yaml:"auto_download"`
	// Checksums pins downloaded model files to hex sha-256 digests, keyed
	// by filename. Files without an entry are not verified.
	Checksums map[string]string `yaml:"checksums"`
}

type ArchiveConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Dir            string `yaml:"dir"`
	RetentionHours int    `yaml:"retention_hours"`
	MaxFiles       int    `yaml:"max_files"`
}

type WebhookConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	Token     string `yaml:"token"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is supplied.
// The transcription stage expects 16 kHz mono input, so that is the
// capture default; device -1 selects the system default input.
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:  16000,
			Channels:    1,
			ChunkFrames: 1600,
			Device:      -1,
		},
		Wake: WakeConfig{
			Keyword: "hey computer",
			Sounds:  true,
		},
		Silence: SilenceConfig{
			Threshold:  500,
			DurationMs: 1200,
		},
		Recording: RecordingConfig{
			MaxDurationMs: 15000,
		},
		Transcribe: TranscribeConfig{
			ModelPath: "",
			Language:  "en",
		},
		Typing: TypingConfig{
			Enabled: true,
			Method:  "auto",
		},
		Artifacts: ArtifactsConfig{
			Dir: "",
		},
		Models: ModelsConfig{
			Dir:          "models",
			AutoDownload: true,
		},
		Archive: ArchiveConfig{
			Enabled:        false,
			Dir:            "archive",
			RetentionHours: 72,
			MaxFiles:       200,
		},
		Webhook: WebhookConfig{
			Enabled:   false,
			TimeoutMs: 5000,
		},
		Status: StatusConfig{
			Enabled: false,
			Address: "127.0.0.1",
			Port:    9871,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the validated defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}

	if err := c.Silence.Validate(); err != nil {
		return fmt.Errorf("silence: %w", err)
	}

	if err := c.Recording.Validate(); err != nil {
		return fmt.Errorf("recording: %w", err)
	}

	if err := c.Typing.Validate(); err != nil {
		return fmt.Errorf("typing: %w", err)
	}

	if err := c.Models.Validate(); err != nil {
		return fmt.Errorf("models: %w", err)
	}

	if err := c.Archive.Validate(); err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	if err := c.Webhook.Validate(); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}

	if err := c.Status.Validate(); err != nil {
		return fmt.Errorf("status: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}

func (a AudioConfig) Validate() error {
	if a.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono capture), got %d", a.Channels)
	}

	if a.ChunkFrames <= 0 {
		return fmt.Errorf("chunk_frames must be positive, got %d", a.ChunkFrames)
	}

	if a.Device < -1 {
		return fmt.Errorf("device must be -1 (default) or a device index, got %d", a.Device)
	}

	return nil
}

func (s SilenceConfig) Validate() error {
	if s.Threshold < 0 {
		return fmt.Errorf("threshold must not be negative, got %f", s.Threshold)
	}

	if s.DurationMs <= 0 {
		return fmt.Errorf("duration_ms must be positive, got %d", s.DurationMs)
	}

	return nil
}

func (r RecordingConfig) Validate() error {
	if r.MaxDurationMs <= 0 {
		return fmt.Errorf("max_duration_ms must be positive, got %d", r.MaxDurationMs)
	}

	return nil
}

func (t TypingConfig) Validate() error {
	switch t.Method {
	case "auto", "wtype", "xdotool", "clipboard":
		return nil
	default:
		return fmt.Errorf("method must be one of auto, wtype, xdotool, clipboard; got %q", t.Method)
	}
}

func (m ModelsConfig) Validate() error {
	if m.Dir == "" {
		return fmt.Errorf("dir must be set")
	}

	for name, sum := range m.Checksums {
		raw, err := hex.DecodeString(sum)
		if err != nil || len(raw) != sha256.Size {
			return fmt.Errorf("checksum for %s must be a hex sha-256 digest", name)
		}
	}

	return nil
}

func (a ArchiveConfig) Validate() error {
	if !a.Enabled {
		return nil
	}

	if a.Dir == "" {
		return fmt.Errorf("dir must be set when the archive is enabled")
	}

	if a.RetentionHours <= 0 {
		return fmt.Errorf("retention_hours must be positive, got %d", a.RetentionHours)
	}

	if a.MaxFiles < 0 {
		return fmt.Errorf("max_files must not be negative, got %d", a.MaxFiles)
	}

	return nil
}

func (w WebhookConfig) Validate() error {
	if !w.Enabled {
		return nil
	}

	if w.URL == "" {
		return fmt.Errorf("url must be set when the webhook is enabled")
	}

	if w.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", w.TimeoutMs)
	}

	return nil
}

func (s StatusConfig) Validate() error {
	if !s.Enabled {
		return nil
	}

	if s.Address == "" {
		return fmt.Errorf("address must be set when the status server is enabled")
	}

	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", s.Port)
	}

	return nil
}

func (l LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be one of debug, info, warn, error; got %q", l.Level)
	}

	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", l.Format)
	}

	return nil
}

// SilenceHold returns the silence duration as a time.Duration.
func (c *Config) SilenceHold() time.Duration {
	return time.Duration(c.Silence.DurationMs) * time.Millisecond
}

// MaxRecordDuration returns the recording cap as a time.Duration.
func (c *Config) MaxRecordDuration() time.Duration {
	return time.Duration(c.Recording.MaxDurationMs) * time.Millisecond
}

// WebhookTimeout returns the webhook request timeout.
func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhook.TimeoutMs) * time.Millisecond
}

// ArchiveRetention returns how long archived sessions are kept.
func (c *Config) ArchiveRetention() time.Duration {
	return time.Duration(c.Archive.RetentionHours) * time.Hour
}
