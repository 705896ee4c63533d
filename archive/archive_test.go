package archive

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T, fs afero.Fs, retention time.Duration, maxFiles int) *archiveImpl {
	t.Helper()

	arch, err := New(&Config{
		FileSys:    fs,
		Dir:        "/var/lib/voice-typist/archive",
		SampleRate: 16000,
		Channels:   1,
		Retention:  retention,
		MaxFiles:   maxFiles,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return arch.(*archiveImpl)
}

func TestSaveWritesClipAndSidecar(t *testing.T) {
	fs := afero.NewMemMapFs()
	arch := newTestArchive(t, fs, 0, 0)

	created := time.Date(2024, 3, 10, 12, 30, 45, 0, time.UTC)

	err := arch.Save(Record{
		ID:         "abc123",
		Keyword:    "hey computer",
		Transcript: "open the terminal",
		Audio:      make([]byte, 32000),
		CreatedAt:  created,
	})
	require.NoError(t, err)

	wavPath := "/var/lib/voice-typist/archive/20240310-123045_abc123.wav"
	jsonPath := "/var/lib/voice-typist/archive/20240310-123045_abc123.json"

	info, err := fs.Stat(wavPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	data, err := afero.ReadFile(fs, jsonPath)
	require.NoError(t, err)

	var meta sidecar
	require.NoError(t, json.Unmarshal(data, &meta))

	assert.Equal(t, "abc123", meta.ID)
	assert.Equal(t, "hey computer", meta.Keyword)
	assert.Equal(t, "open the terminal", meta.Transcript)
	assert.Equal(t, int64(1000), meta.DurationMs)
	assert.True(t, meta.CreatedAt.Equal(created))
}

func TestCleanupRemovesExpiredRecords(t *testing.T) {
	fs := afero.NewMemMapFs()
	arch := newTestArchive(t, fs, time.Hour*72, 0)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	arch.now = func() time.Time { return base }

	require.NoError(t, arch.Save(Record{
		ID: "old", Audio: make([]byte, 320), CreatedAt: base.Add(-time.Hour * 100),
	}))
	require.NoError(t, arch.Save(Record{
		ID: "fresh", Audio: make([]byte, 320), CreatedAt: base,
	}))

	oldWav := "/var/lib/voice-typist/archive/20240306-080000_old.wav"
	require.NoError(t, fs.Chtimes(oldWav, base, base.Add(-time.Hour*100)))

	removed, err := arch.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	exists, err := afero.Exists(fs, oldWav)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.Exists(fs, "/var/lib/voice-typist/archive/20240306-080000_old.json")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.Exists(fs, "/var/lib/voice-typist/archive/20240310-120000_fresh.wav")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCleanupEnforcesMaxFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	arch := newTestArchive(t, fs, 0, 2)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	arch.now = func() time.Time { return base }

	for i, id := range []string{"first", "second", "third"} {
		created := base.Add(time.Minute * time.Duration(i))

		require.NoError(t, arch.Save(Record{
			ID: id, Audio: make([]byte, 320), CreatedAt: created,
		}))

		wavPath := "/var/lib/voice-typist/archive/" +
			created.Format("20060102-150405") + "_" + id + ".wav"
		require.NoError(t, fs.Chtimes(wavPath, created, created))
	}

	removed, err := arch.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// The oldest record goes first.
	exists, err := afero.Exists(fs, "/var/lib/voice-typist/archive/20240310-120000_first.wav")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.Exists(fs, "/var/lib/voice-typist/archive/20240310-120200_third.wav")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunStopsWithContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	arch := newTestArchive(t, fs, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		arch.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second * 2):
		t.Fatal("Run did not stop after context cancellation")
	}
}
