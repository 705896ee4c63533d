package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"voice-typist/archive"
	"voice-typist/artifacts"
	"voice-typist/clients/webhook"
	"voice-typist/config"
	"voice-typist/listener"
	"voice-typist/microphone"
	"voice-typist/models"
	"voice-typist/notifier"
	"voice-typist/speech_to_text"
	"voice-typist/spotter"
	"voice-typist/status"
	"voice-typist/typer"
)

const statusShutdownTimeout = time.Second * 5

// run wires the full pipeline and blocks until a shutdown signal.
func run(cfg *config.Config, logger *slog.Logger) error {
	fileSys := afero.NewOsFs()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Models.AutoDownload {
		if err := downloadModels(cfg, logger); err != nil {
			return err
		}
	}

	modelPath := cfg.Transcribe.ModelPath
	if modelPath == "" {
		modelPath = models.WhisperModelPath(cfg.Models.Dir)
	}

	if err := models.VerifyFile(fileSys, modelPath); err != nil {
		if errors.Is(err, models.ErrModelMissing) {
			return fmt.Errorf("%w (run with -download-models or enable models.auto_download)", err)
		}

		return err
	}

	// Load model
	model, err := whisper.New(modelPath)
	if err != nil {
		return fmt.Errorf("error loading model: %w", err)
	}

	defer model.Close()

	sttEngine, err := speech_to_text.New(&speech_to_text.Config{
		Model:    model,
		FileSys:  fileSys,
		Language: cfg.Transcribe.Language,
	})
	if err != nil {
		return fmt.Errorf("error with speech_to_text.New: %w", err)
	}

	// A broken spotter is not fatal: the engine runs degraded and the user
	// gets a warning instead of a dead process.
	spot, err := spotter.New(&spotter.Config{
		ModelDir:   cfg.Models.Dir,
		Keyword:    cfg.Wake.Keyword,
		SampleRate: cfg.Audio.SampleRate,
		FileSys:    fileSys,
		Logger:     logger,
	})
	if err != nil {
		logger.Warn("keyword spotter unavailable", "error", err)

		spot = nil
	} else {
		defer spot.Close()
	}

	if err := microphone.Init(); err != nil {
		return fmt.Errorf("error initializing audio: %w", err)
	}

	defer func() {
		if err := microphone.Terminate(); err != nil {
			logger.Warn("error terminating audio", "error", err)
		}
	}()

	mic, err := microphone.New(&microphone.Config{
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		ChunkFrames: cfg.Audio.ChunkFrames,
		Device:      cfg.Audio.Device,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("error with microphone.New: %w", err)
	}

	cues := notifier.NewNoop()
	if cfg.Wake.Sounds {
		cues = notifier.New(logger)
	}

	engine, err := listener.New(&listener.Config{
		SampleRate:        cfg.Audio.SampleRate,
		SilenceThreshold:  cfg.Silence.Threshold,
		SilenceHold:       cfg.SilenceHold(),
		MaxRecordDuration: cfg.MaxRecordDuration(),
		Spotter:           spot,
		Source:            mic,
		Notifier:          cues,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("error with listener.New: %w", err)
	}

	defer engine.Close()

	if err := engine.Initialize(); err != nil {
		if !errors.Is(err, listener.ErrWakeWordDisabled) {
			return fmt.Errorf("error initializing engine: %w", err)
		}

		logger.Warn("wake word detection is disabled")
	}

	handler, err := newCommandHandler(cfg, logger, fileSys, sttEngine)
	if err != nil {
		return err
	}

	if handler.arch != nil {
		go handler.arch.Run(ctx)
	}

	if cfg.Status.Enabled {
		statusServer, err := status.NewServer(&status.Config{
			Address: cfg.Status.Address,
			Port:    cfg.Status.Port,
			Engine:  engine,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("error with status.NewServer: %w", err)
		}

		if err := statusServer.Start(); err != nil {
			return err
		}

		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), statusShutdownTimeout)
			defer shutdownCancel()

			if err := statusServer.Stop(shutdownCtx); err != nil {
				logger.Warn("error stopping status server", "error", err)
			}
		}()
	}

	if err := engine.Start(); err != nil {
		return fmt.Errorf("error starting engine: %w", err)
	}

	logger.Info("listening for commands",
		"keyword", cfg.Wake.Keyword,
		"wake_word_enabled", engine.WakeWordEnabled(),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			logger.Info("shutting down")

			return engine.Stop()
		case ev := <-engine.Events():
			handler.handle(ctx, ev)
		}
	}
}

// commandHandler consumes engine events and drives the downstream stages:
// save the clip, transcribe it, inject the text, then the optional archive
// and webhook forwarding. The clip is removed whatever the outcome.
type commandHandler struct {
	store          artifacts.Interface
	stt            speech_to_text.Interface
	typist         typer.Interface
	arch           archive.Interface
	hook           webhook.WebhookAPI
	webhookTimeout time.Duration
	log            *slog.Logger

	lastKeyword string
}

func newCommandHandler(cfg *config.Config, logger *slog.Logger,
	fileSys afero.Fs, sttEngine speech_to_text.Interface) (*commandHandler, error) {
	artifactDir := cfg.Artifacts.Dir
	if artifactDir == "" {
		artifactDir = filepath.Join(os.TempDir(), "voice-typist")
	}

	store, err := artifacts.New(&artifacts.Config{
		FileSys:    fileSys,
		Dir:        artifactDir,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("error with artifacts.New: %w", err)
	}

	if _, err := store.CleanupStale(); err != nil {
		logger.Warn("error cleaning stale clips", "error", err)
	}

	handler := &commandHandler{
		store:          store,
		stt:            sttEngine,
		webhookTimeout: cfg.WebhookTimeout(),
		log:            logger,
	}

	if cfg.Typing.Enabled {
		handler.typist, err = typer.New(&typer.Config{
			Method: cfg.Typing.Method,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("error with typer.New: %w", err)
		}
	}

	if cfg.Archive.Enabled {
		handler.arch, err = archive.New(&archive.Config{
			FileSys:    fileSys,
			Dir:        cfg.Archive.Dir,
			SampleRate: cfg.Audio.SampleRate,
			Channels:   cfg.Audio.Channels,
			Retention:  cfg.ArchiveRetention(),
			MaxFiles:   cfg.Archive.MaxFiles,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("error with archive.New: %w", err)
		}
	}

	if cfg.Webhook.Enabled {
		handler.hook, err = webhook.NewClient(&webhook.Config{
			URL:     cfg.Webhook.URL,
			Token:   cfg.Webhook.Token,
			Timeout: cfg.WebhookTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("error with webhook.NewClient: %w", err)
		}
	}

	return handler, nil
}

func (h *commandHandler) handle(ctx context.Context, ev listener.Event) {
	switch ev.Type {
	case listener.EventWakewordDetected:
		h.lastKeyword = ev.Keyword
	case listener.EventCommandReady:
		h.process(ctx, ev)
	case listener.EventError:
		h.log.Error("engine error", "error", ev.Err)
	case listener.EventStopped:
		h.log.Debug("engine stopped")
	default:
	}
}

func (h *commandHandler) process(ctx context.Context, ev listener.Event) {
	path, err := h.store.Save(ev.Audio)
	if err != nil {
		h.log.Error("error saving command audio", "error", err)

		return
	}

	defer func() {
		if err := h.store.Remove(path); err != nil {
			h.log.Warn("error removing command audio", "error", err)
		}
	}()

	transcript, err := h.stt.TranscribeFile(path)
	if err != nil {
		if errors.Is(err, speech_to_text.ErrNoSpeech) {
			h.log.Info("no speech in command")
		} else {
			h.log.Error("error transcribing command", "error", err)
		}

		return
	}

	h.log.Info("transcribed command", "text", transcript)

	if h.typist != nil {
		if err := h.typist.Type(transcript); err != nil {
			h.log.Error("error typing transcript", "error", err)
		}
	}

	id := uuid.NewString()

	if h.hook != nil {
		cmd := webhook.Command{
			ID:         id,
			Keyword:    h.lastKeyword,
			Transcript: transcript,
			CapturedAt: ev.Time,
		}

		// Fire and forget: a slow endpoint must not hold up the next
		// command.
		go func() {
			sendCtx, sendCancel := context.WithTimeout(context.Background(), h.webhookTimeout)
			defer sendCancel()

			if err := h.hook.SendCommand(sendCtx, cmd); err != nil {
				h.log.Error("error forwarding command", "error", err)
			}
		}()
	}

	if h.arch != nil {
		err := h.arch.Save(archive.Record{
			ID:         id,
			Keyword:    h.lastKeyword,
			Transcript: transcript,
			Audio:      ev.Audio,
			CreatedAt:  ev.Time,
		})
		if err != nil {
			h.log.Error("error archiving command", "error", err)
		}
	}
}

// downloadModels fetches any model files missing from the configured dir.
func downloadModels(cfg *config.Config, logger *slog.Logger) error {
	provisioner, err := models.New(&models.Config{
		FileSys:   afero.NewOsFs(),
		Dir:       cfg.Models.Dir,
		Checksums: cfg.Models.Checksums,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("error with models.New: %w", err)
	}

	fetched, err := provisioner.Ensure(context.Background())
	if err != nil {
		return fmt.Errorf("error provisioning models: %w", err)
	}

	if len(fetched) > 0 {
		logger.Info("downloaded model files", "count", len(fetched))
	} else {
		logger.Info("model files are in place", "dir", cfg.Models.Dir)
	}

	return nil
}
