package typer

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// Injection methods, probed in this order under auto detection. Wayland
// compositors need wtype, X11 sessions usually have xdotool, and the
// clipboard paste works anywhere a Ctrl+V reaches the focused window.
const (
	MethodAuto      = "auto"
	MethodWtype     = "wtype"
	MethodXdotool   = "xdotool"
	MethodClipboard = "clipboard"
)

const (
	clipboardSettle  = time.Millisecond * 80
	clipboardRestore = time.Millisecond * 120
)

type typerImpl struct {
	method string
	log    *slog.Logger

	lookPath func(string) (string, error)
	runCmd   func(name string, args ...string) error
	paste    func(text string) error
}

type Config struct {
	// Method selects the injection tool; MethodAuto probes for the first
	// available one.
	Method string
	Logger *slog.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	method := cfg.Method
	if method == "" {
		method = MethodAuto
	}

	switch method {
	case MethodAuto, MethodWtype, MethodXdotool, MethodClipboard:
	default:
		return nil, fmt.Errorf("unknown typing method: %s", method)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	t := &typerImpl{
		method:   method,
		log:      log,
		lookPath: exec.LookPath,
		runCmd: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
	t.paste = t.pasteClipboard

	return t, nil
}

func (t *typerImpl) Type(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	method := t.method
	if method == MethodAuto {
		method = t.detect()
	}

	t.log.Debug("typing text", "method", method, "chars", len(text))

	switch method {
	case MethodWtype:
		return t.runCmd("wtype", text)
	case MethodXdotool:
		return t.runCmd("xdotool", "type", "--clearmodifiers", "--", text)
	default:
		return t.paste(text)
	}
}

// detect picks the first available injection tool, falling back to the
// clipboard paste.
func (t *typerImpl) detect() string {
	if _, err := t.lookPath("wtype"); err == nil {
		return MethodWtype
	}

	if _, err := t.lookPath("xdotool"); err == nil {
		return MethodXdotool
	}

	return MethodClipboard
}

// pasteClipboard writes text to the clipboard, sends Ctrl+V, and restores
// the previous clipboard contents.
func (t *typerImpl) pasteClipboard(text string) error {
	original, err := clipboard.ReadAll()
	if err != nil {
		t.log.Debug("error reading clipboard", "error", err)
	}

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("error writing clipboard: %w", err)
	}

	// give the clipboard owner time to settle before pasting
	time.Sleep(clipboardSettle)

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("error preparing key event: %w", err)
	}

	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)

	if err := kb.Launching(); err != nil {
		return fmt.Errorf("error sending paste keystroke: %w", err)
	}

	time.Sleep(clipboardRestore)

	if err := clipboard.WriteAll(original); err != nil {
		t.log.Debug("error restoring clipboard", "error", err)
	}

	return nil
}
