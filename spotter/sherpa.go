package spotter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
	"github.com/spf13/afero"
)

// Model file names inside the model directory (zipformer transducer
// keyword-spotting export).
const (
	EncoderFile = "encoder-epoch-12-avg-2-chunk-16-left-64.onnx"
	DecoderFile = "decoder-epoch-12-avg-2-chunk-16-left-64.onnx"
	JoinerFile  = "joiner-epoch-12-avg-2-chunk-16-left-64.onnx"
	TokensFile  = "tokens.txt"

	keywordsFile = "keywords.txt"
)

type Config struct {
	ModelDir   string
	Keyword    string
	SampleRate int
	FileSys    afero.Fs
	Logger     *slog.Logger
}

type sherpaSpotter struct {
	spotter    *sherpa.KeywordSpotter
	sampleRate int
	log        *slog.Logger
	closeOnce  sync.Once
}

// New loads the spotting model from cfg.ModelDir and writes the keywords
// file for the configured wake phrase next to it.
func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.ModelDir == "" {
		return nil, fmt.Errorf("modelDir is empty")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sampleRate must be positive, got %d", cfg.SampleRate)
	}

	fileSys := cfg.FileSys
	if fileSys == nil {
		fileSys = afero.NewOsFs()
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	for _, name := range []string{EncoderFile, DecoderFile, JoinerFile, TokensFile} {
		path := filepath.Join(cfg.ModelDir, name)

		exists, err := afero.Exists(fileSys, path)
		if err != nil {
			return nil, fmt.Errorf("check model file %s: %w", path, err)
		}

		if !exists {
			return nil, fmt.Errorf("model file missing: %s", path)
		}
	}

	content, _ := ResolveKeywords(cfg.Keyword, log)

	kwPath := filepath.Join(cfg.ModelDir, keywordsFile)
	if err := afero.WriteFile(fileSys, kwPath, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write keywords file: %w", err)
	}

	spotterCfg := sherpa.KeywordSpotterConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: cfg.SampleRate,
			FeatureDim: 80,
		},
		ModelConfig: sherpa.OnlineModelConfig{
			Transducer: sherpa.OnlineTransducerModelConfig{
				Encoder: filepath.Join(cfg.ModelDir, EncoderFile),
				Decoder: filepath.Join(cfg.ModelDir, DecoderFile),
				Joiner:  filepath.Join(cfg.ModelDir, JoinerFile),
			},
			Tokens:     filepath.Join(cfg.ModelDir, TokensFile),
			NumThreads: 1,
			Provider:   "cpu",
		},
		MaxActivePaths:    4,
		NumTrailingBlanks: 1,
		KeywordsScore:     1.0,
		KeywordsThreshold: 0.25,
		KeywordsFile:      kwPath,
	}

	ks := sherpa.NewKeywordSpotter(&spotterCfg)
	if ks == nil {
		return nil, fmt.Errorf("load keyword spotter from %s", cfg.ModelDir)
	}

	return &sherpaSpotter{
		spotter:    ks,
		sampleRate: cfg.SampleRate,
		log:        log,
	}, nil
}

func (s *sherpaSpotter) NewSession() (Session, error) {
	if s.spotter == nil {
		return nil, fmt.Errorf("spotter is closed")
	}

	stream := sherpa.NewKeywordStream(s.spotter)
	if stream == nil {
		return nil, fmt.Errorf("open keyword stream")
	}

	return &sherpaSession{owner: s, stream: stream}, nil
}

func (s *sherpaSpotter) Close() error {
	s.closeOnce.Do(func() {
		if s.spotter != nil {
			sherpa.DeleteKeywordSpotter(s.spotter)
			s.spotter = nil
		}
	})

	return nil
}

type sherpaSession struct {
	owner     *sherpaSpotter
	stream    *sherpa.OnlineStream
	closeOnce sync.Once
}

func (s *sherpaSession) Feed(samples []float32) error {
	if s.stream == nil {
		return fmt.Errorf("session is closed")
	}

	s.stream.AcceptWaveform(s.owner.sampleRate, samples)

	return nil
}

func (s *sherpaSession) Ready() bool {
	if s.stream == nil {
		return false
	}

	return s.owner.spotter.IsReady(s.stream)
}

func (s *sherpaSession) Decode() error {
	if s.stream == nil {
		return fmt.Errorf("session is closed")
	}

	s.owner.spotter.Decode(s.stream)

	return nil
}

func (s *sherpaSession) Result() (string, error) {
	if s.stream == nil {
		return "", fmt.Errorf("session is closed")
	}

	result := s.owner.spotter.GetResult(s.stream)
	if result == nil {
		return "", nil
	}

	return result.Keyword, nil
}

// Reset replaces the native stream so decoder state from the previous
// utterance cannot leak into the next one.
func (s *sherpaSession) Reset() error {
	if s.stream == nil {
		return fmt.Errorf("session is closed")
	}

	sherpa.DeleteOnlineStream(s.stream)

	stream := sherpa.NewKeywordStream(s.owner.spotter)
	if stream == nil {
		s.stream = nil

		return fmt.Errorf("reopen keyword stream")
	}

	s.stream = stream

	return nil
}

func (s *sherpaSession) Close() error {
	s.closeOnce.Do(func() {
		if s.stream != nil {
			sherpa.DeleteOnlineStream(s.stream)
			s.stream = nil
		}
	})

	return nil
}
