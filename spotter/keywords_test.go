package spotter

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveKeywords(t *testing.T) {
	t.Run("known keyword resolves to its entry", func(t *testing.T) {
		content, fellBack := ResolveKeywords("jarvis", discardLogger())

		if fellBack {
			t.Error("expected no fallback for a known keyword")
		}

		if content != keywordTable["jarvis"]+"\n" {
			t.Errorf("unexpected content: %q", content)
		}
	})

	t.Run("lookup ignores case and surrounding space", func(t *testing.T) {
		content, fellBack := ResolveKeywords("  Hey Computer ", discardLogger())

		if fellBack {
			t.Error("expected no fallback")
		}

		if !strings.Contains(content, "@hey computer") {
			t.Errorf("unexpected content: %q", content)
		}
	})

	t.Run("unknown keyword falls back to the default list", func(t *testing.T) {
		content, fellBack := ResolveKeywords("open sesame", discardLogger())

		if !fellBack {
			t.Error("expected fallback for unknown keyword")
		}

		lines := strings.Split(strings.TrimRight(content, "\n"), "\n")

		if len(lines) != len(keywordTable) {
			t.Fatalf("expected %d entries, got %d", len(keywordTable), len(lines))
		}

		if lines[0] != keywordTable[DefaultKeyword] {
			t.Errorf("expected default entry first, got %q", lines[0])
		}
	})

	t.Run("empty keyword falls back as well", func(t *testing.T) {
		_, fellBack := ResolveKeywords("", discardLogger())

		if !fellBack {
			t.Error("expected fallback for empty keyword")
		}
	})
}
