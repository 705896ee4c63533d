package main

import (
	"fmt"
	"io"

	"voice-typist/microphone"
)

// listDevices prints every input-capable device with the index to use as
// the audio.device config value. The default input is starred.
func listDevices(w io.Writer) error {
	if err := microphone.Init(); err != nil {
		return fmt.Errorf("error initializing audio: %w", err)
	}

	defer func() {
		_ = microphone.Terminate()
	}()

	devices, err := microphone.Devices()
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		fmt.Fprintln(w, "no capture devices found")

		return nil
	}

	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}

		fmt.Fprintf(w, "%s %3d  %s (%d ch, %.0f Hz)\n",
			marker, d.Index, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}

	return nil
}
