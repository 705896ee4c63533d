package typer

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTyper(t *testing.T, method string) *typerImpl {
	t.Helper()

	typ, err := New(&Config{
		Method: method,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return typ.(*typerImpl)
}

func lookPathWith(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}

		return "", fmt.Errorf("%s not found", name)
	}
}

func TestNewRejectsUnknownMethod(t *testing.T) {
	_, err := New(&Config{Method: "telepathy"})
	assert.Error(t, err)
}

func TestDetectPrefersWtype(t *testing.T) {
	typ := newTestTyper(t, MethodAuto)
	typ.lookPath = lookPathWith("wtype", "xdotool")

	assert.Equal(t, MethodWtype, typ.detect())
}

func TestDetectFallsBackToXdotool(t *testing.T) {
	typ := newTestTyper(t, MethodAuto)
	typ.lookPath = lookPathWith("xdotool")

	assert.Equal(t, MethodXdotool, typ.detect())
}

func TestDetectFallsBackToClipboard(t *testing.T) {
	typ := newTestTyper(t, MethodAuto)
	typ.lookPath = lookPathWith()

	assert.Equal(t, MethodClipboard, typ.detect())
}

func TestTypeRunsXdotool(t *testing.T) {
	typ := newTestTyper(t, MethodXdotool)

	var gotName string
	var gotArgs []string

	typ.runCmd = func(name string, args ...string) error {
		gotName = name
		gotArgs = args

		return nil
	}

	require.NoError(t, typ.Type("open the terminal"))

	assert.Equal(t, "xdotool", gotName)
	assert.Equal(t, []string{"type", "--clearmodifiers", "--", "open the terminal"}, gotArgs)
}

func TestTypeUsesClipboardPaste(t *testing.T) {
	typ := newTestTyper(t, MethodClipboard)

	var pasted string

	typ.paste = func(text string) error {
		pasted = text

		return nil
	}

	require.NoError(t, typ.Type("hello world"))
	assert.Equal(t, "hello world", pasted)
}

func TestTypeSkipsBlankText(t *testing.T) {
	typ := newTestTyper(t, MethodXdotool)

	typ.runCmd = func(name string, args ...string) error {
		t.Fatal("no command should run for blank text")

		return nil
	}

	assert.NoError(t, typ.Type("   "))
	assert.NoError(t, typ.Type(""))
}
