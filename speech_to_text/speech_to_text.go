package speech_to_text

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// ErrNoSpeech reports that the model produced no usable text, which is the
// normal outcome for clips holding only silence or noise.
var ErrNoSpeech = errors.New("no speech recognized")

type sttImpl struct {
	model    whisper.Model
	fs       afero.Fs
	language string
}

type Config struct {
	Model   whisper.Model
	FileSys afero.Fs
	// Language is the spoken language hint, e.g. "en". Ignored for
	// single-language models.
	Language string
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Model == nil {
		return nil, fmt.Errorf("model is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	return &sttImpl{
		model:    cfg.Model,
		fs:       cfg.FileSys,
		language: cfg.Language,
	}, nil
}

func (stt *sttImpl) TranscribeFile(path string) (string, error) {
	wavBuffer, err := stt.readWave(path)
	if err != nil {
		return "", err
	}

	samples := wavBuffer.AsFloat32Buffer().Data

	// Create processing context
	context, err := stt.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("error creating model context: %w", err)
	}

	if stt.language != "" && stt.model.IsMultilingual() {
		if err := context.SetLanguage(stt.language); err != nil {
			return "", fmt.Errorf("error setting language: %w", err)
		}
	}

	var cb whisper.SegmentCallback

	if err := context.Process(samples, cb); err != nil {
		return "", fmt.Errorf("error running model: %w", err)
	}

	texts, err := collectSegments(context)
	if err != nil {
		return "", err
	}

	transcript := joinSegments(texts)
	if transcript == "" {
		return "", ErrNoSpeech
	}

	return transcript, nil
}

// readWave decodes the captured clip, enforcing the canonical capture
// format the model expects.
func (stt *sttImpl) readWave(path string) (audio.Buffer, error) {
	file, err := stt.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening wav file: %w", err)
	}

	defer file.Close()

	decoder := wav.NewDecoder(file)

	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}

	if int(decoder.SampleRate) != whisper.SampleRate {
		return nil, fmt.Errorf("unsupported sample rate: %d", decoder.SampleRate)
	}

	if decoder.NumChans != 1 {
		return nil, fmt.Errorf("unsupported number of channels: %d", decoder.NumChans)
	}

	if decoder.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d", decoder.BitDepth)
	}

	wavBuffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("error decoding wav file: %w", err)
	}

	return wavBuffer, nil
}

func collectSegments(context whisper.Context) ([]string, error) {
	seenText := make(map[string]bool)

	texts := make([]string, 0)

	for {
		segment, err := context.NextSegment()
		if err == io.EOF {
			return texts, nil
		} else if err != nil {
			return nil, err
		}

		// if segment text starts or ends with a parenthesis or a bracket,
		// it is a non-speech annotation like "(wind howling)" or
		// "[BLANK_AUDIO]", so ignore it
		if skipSegmentText(segment.Text) {
			continue
		}

		// if we've already seen this text, then ignore it
		if seenText[segment.Text] {
			continue
		}

		seenText[segment.Text] = true

		texts = append(texts, segment.Text)
	}
}

func skipSegmentText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	return trimmed[0] == '(' || trimmed[0] == '[' ||
		trimmed[len(trimmed)-1] == ')' || trimmed[len(trimmed)-1] == ']'
}

func joinSegments(texts []string) string {
	parts := make([]string, 0, len(texts))

	for _, text := range texts {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	return strings.Join(parts, " ")
}
