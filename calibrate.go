package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"voice-typist/analysis"
	"voice-typist/config"
	"voice-typist/microphone"
)

const calibrationWindow = 64

// runCalibration samples background noise for the given duration and prints
// a recommended silence threshold for the config.
func runCalibration(cfg *config.Config, logger *slog.Logger, sampleTime time.Duration) error {
	if err := microphone.Init(); err != nil {
		return fmt.Errorf("error initializing audio: %w", err)
	}

	defer func() {
		_ = microphone.Terminate()
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

	calibrator := analysis.NewCalibrator(calibrationWindow, cfg.Audio.ChunkFrames)

	if err := mic.Start(); err != nil {
		return err
	}

	logger.Info("sampling background noise, stay quiet",
		"seconds", int(sampleTime.Seconds()))

	deadline := time.After(sampleTime)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	sampling := true

	for sampling {
		select {
		case chunk := <-mic.Chunks():
			calibrator.Observe(chunk)
		case err := <-mic.Errors():
			_ = mic.Stop()

			return fmt.Errorf("capture failed during calibration: %w", err)
		case <-deadline:
			sampling = false
		case <-sig:
			sampling = false
		}
	}

	if err := mic.Stop(); err != nil {
		return err
	}

	rec := calibrator.Recommend()
	if rec.Samples == 0 {
		return fmt.Errorf("no audio captured during calibration")
	}

	fmt.Printf("ambient amplitude: mean %.0f, p95 %.0f, peak %.0f (%d chunks)\n",
		rec.Mean, rec.P95, rec.Peak, rec.Samples)
	fmt.Printf("recommended silence threshold: %.0f\n", rec.Threshold)
	fmt.Printf("current configured threshold:  %.0f\n", cfg.Silence.Threshold)

	if rec.PeakFlux > 1.0 {
		fmt.Println("warning: spectral activity detected; the room may not have been quiet")
	}

	return nil
}
