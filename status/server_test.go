package status

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-typist/listener"
)

type fakeEngine struct {
	state   listener.State
	stats   listener.Stats
	enabled bool
}

func (f *fakeEngine) State() listener.State {
	return f.state
}

func (f *fakeEngine) Stats() listener.Stats {
	return f.stats
}

func (f *fakeEngine) WakeWordEnabled() bool {
	return f.enabled
}

func newTestServer(t *testing.T, engine EngineStatus) *Server {
	t.Helper()

	srv, err := NewServer(&Config{
		Address: "127.0.0.1",
		Port:    9871,
		Engine:  engine,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return srv
}

func TestHealthEndpoint(t *testing.T) {
	engine := &fakeEngine{state: listener.StateIdle, enabled: true}
	srv := newTestServer(t, engine)

	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, true, body["wake_word_enabled"])
}

func TestHealthRejectsNonGet(t *testing.T) {
	srv := newTestServer(t, &fakeEngine{})

	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	engine := &fakeEngine{
		state: listener.StateRecording,
		stats: listener.Stats{
			State:            listener.StateRecording,
			ChunksProcessed:  120,
			WakeDetections:   3,
			CommandsCaptured: 2,
			ForcedFinalizes:  1,
		},
		enabled: true,
	}
	srv := newTestServer(t, engine)

	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Engine struct {
			State            string `json:"state"`
			ChunksProcessed  uint64 `json:"chunks_processed"`
			WakeDetections   uint64 `json:"wake_detections"`
			CommandsCaptured uint64 `json:"commands_captured"`
			ForcedFinalizes  uint64 `json:"forced_finalizes"`
		} `json:"engine"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "recording", body.Engine.State)
	assert.Equal(t, uint64(120), body.Engine.ChunksProcessed)
	assert.Equal(t, uint64(3), body.Engine.WakeDetections)
	assert.Equal(t, uint64(2), body.Engine.CommandsCaptured)
	assert.Equal(t, uint64(1), body.Engine.ForcedFinalizes)
}

func TestMetricsEndpoint(t *testing.T) {
	engine := &fakeEngine{
		stats: listener.Stats{
			ChunksProcessed:  50,
			CommandsCaptured: 4,
		},
		enabled: true,
	}
	srv := newTestServer(t, engine)

	// Drive one request through the middleware so HTTP metrics show up.
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	metrics := rec.Body.String()

	assert.True(t, strings.Contains(metrics, "voicetypist_chunks_processed_total 50"),
		"missing chunk counter:\n%s", metrics)
	assert.True(t, strings.Contains(metrics, "voicetypist_commands_captured_total 4"),
		"missing command counter:\n%s", metrics)
	assert.True(t, strings.Contains(metrics, "voicetypist_wake_word_enabled 1"),
		"missing wake word gauge:\n%s", metrics)
	assert.True(t, strings.Contains(metrics, `voicetypist_http_requests_total{endpoint="/healthz",method="GET",status_code="200"} 1`),
		"missing http request counter:\n%s", metrics)
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	_, err = NewServer(&Config{Port: 9871})
	assert.Error(t, err)

	_, err = NewServer(&Config{Engine: &fakeEngine{}})
	assert.Error(t, err)
}
