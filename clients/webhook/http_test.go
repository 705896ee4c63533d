package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendCommand(t *testing.T) {
	var (
		gotAuth        string
		gotContentType string
		gotCmd         Command
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotCmd))

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient(&Config{
		URL:     server.URL,
		Token:   "secret",
		Timeout: time.Second,
	})
	require.NoError(t, err)

	captured := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	err = client.SendCommand(context.Background(), Command{
		ID:         "abc123",
		Keyword:    "hey computer",
		Transcript: "open the terminal",
		CapturedAt: captured,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "abc123", gotCmd.ID)
	assert.Equal(t, "hey computer", gotCmd.Keyword)
	assert.Equal(t, "open the terminal", gotCmd.Transcript)
	assert.True(t, gotCmd.CapturedAt.Equal(captured))
}

func TestSendCommandSkipsAuthWithoutToken(t *testing.T) {
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(&Config{URL: server.URL})
	require.NoError(t, err)

	require.NoError(t, client.SendCommand(context.Background(), Command{ID: "x"}))
	assert.Empty(t, gotAuth)
}

func TestSendCommandRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(&Config{URL: server.URL})
	require.NoError(t, err)

	err = client.SendCommand(context.Background(), Command{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&Config{})
	assert.Error(t, err)
}
