package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistui/config"
	"assistui/storage"
)

// setupEnv points config at a temp data dir and a fake backend
func setupEnv(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()

	home := t.TempDir()
	dataDir := filepath.Join(home, "data")
	t.Setenv("HOME", home)
	t.Setenv(config.EnvDataDir, dataDir)
	t.Setenv(config.EnvDebug, "")

	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		t.Setenv(config.EnvAPIURL, srv.URL)
	}

	newSession, debug, apiURL = false, false, ""
	t.Cleanup(func() { newSession, debug, apiURL = false, false, "" })
	return dataDir
}

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd, out
}

func chatBackend(calls *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"answer": "## Hasil\n\n**" + req.Message + "** ditemukan di " + r.URL.Path,
		})
	}
}

func TestAskStoresTurnAndPrintsPlainReply(t *testing.T) {
	var calls atomic.Int32
	setupEnv(t, chatBackend(&calls))

	cmd, out := newTestCmd()
	require.NoError(t, runAsk(cmd, []string{"rag", "kebijakan", "cuti"}))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Hasil\n\nkebijakan cuti ditemukan di /rag-chat\n", out.String())

	// The turn is in the session and visible to the next run
	cmd, out = newTestCmd()
	require.NoError(t, runHistory(cmd, []string{"rag"}))
	assert.Contains(t, out.String(), "You:\nkebijakan cuti")
	assert.Contains(t, out.String(), "Assistant:\nHasil")
}

func TestAskRejectsUnknownChannel(t *testing.T) {
	var calls atomic.Int32
	setupEnv(t, chatBackend(&calls))

	cmd, _ := newTestCmd()
	err := runAsk(cmd, []string{"finance", "halo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rag, project, todo")
	assert.Zero(t, calls.Load())
}

func TestAskBlankMessage(t *testing.T) {
	var calls atomic.Int32
	setupEnv(t, chatBackend(&calls))

	cmd, _ := newTestCmd()
	assert.EqualError(t, runAsk(cmd, []string{"todo", "   "}), "message is empty")
	assert.Zero(t, calls.Load())
}

func TestAskBackendFailureIsStored(t *testing.T) {
	setupEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	cmd, out := newTestCmd()
	require.NoError(t, runAsk(cmd, []string{"project", "status"}))
	assert.Equal(t, "Error processing your request. Please try again.\n", out.String())
}

func TestNewSessionIsDiscardedAtExit(t *testing.T) {
	var calls atomic.Int32
	setupEnv(t, chatBackend(&calls))

	cmd, _ := newTestCmd()
	require.NoError(t, runAsk(cmd, []string{"rag", "halo"}))

	newSession = true
	cmd, out := newTestCmd()
	require.NoError(t, runAsk(cmd, []string{"rag", "sementara"}))
	assert.Contains(t, out.String(), "sementara")

	cmd, out = newTestCmd()
	require.NoError(t, runHistory(cmd, []string{"rag"}))
	assert.NotContains(t, out.String(), "halo")
	assert.NotContains(t, out.String(), "sementara")

	// Only the resumable session is left, and it is still the current one
	newSession = false
	cmd, out = newTestCmd()
	require.NoError(t, runSessions(cmd, nil))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "*"))

	cmd, out = newTestCmd()
	require.NoError(t, runHistory(cmd, []string{"rag"}))
	assert.Contains(t, out.String(), "halo")
	assert.NotContains(t, out.String(), "sementara")
}

func TestExportWritesTranscript(t *testing.T) {
	var calls atomic.Int32
	dataDir := setupEnv(t, chatBackend(&calls))

	cmd, _ := newTestCmd()
	require.NoError(t, runAsk(cmd, []string{"todo", "tugas hari ini"}))

	path := filepath.Join(dataDir, "todo.json")
	cmd, out := newTestCmd()
	require.NoError(t, runExport(cmd, []string{"todo", path}))
	assert.Contains(t, out.String(), path)

	transcript, err := storage.ReadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, "todo", transcript.Channel)
	require.Len(t, transcript.Messages, 3)
	assert.Equal(t, "tugas hari ini", transcript.Messages[1].Content)
}

func TestResetAndEnd(t *testing.T) {
	var calls atomic.Int32
	setupEnv(t, chatBackend(&calls))

	cmd, _ := newTestCmd()
	require.NoError(t, runAsk(cmd, []string{"rag", "satu"}))
	require.NoError(t, runAsk(cmd, []string{"todo", "dua"}))

	cmd, _ = newTestCmd()
	require.NoError(t, runReset(cmd, []string{"rag"}))

	cmd, out := newTestCmd()
	require.NoError(t, runHistory(cmd, []string{"rag"}))
	assert.NotContains(t, out.String(), "satu")

	cmd, out = newTestCmd()
	require.NoError(t, runHistory(cmd, []string{"todo"}))
	assert.Contains(t, out.String(), "dua")

	cmd, out = newTestCmd()
	require.NoError(t, runEnd(cmd, nil))
	assert.Contains(t, out.String(), "ended")

	cmd, out = newTestCmd()
	require.NoError(t, runEnd(cmd, nil))
	assert.Equal(t, "No active session\n", out.String())

	cmd, out = newTestCmd()
	require.NoError(t, runHistory(cmd, []string{"todo"}))
	assert.NotContains(t, out.String(), "dua")
}
