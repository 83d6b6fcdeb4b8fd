package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistui/chat"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"rag", "rag"},
		{"a/b:c", "a-b-c"},
		{"  ", "chat"},
		{"..hidden..", "hidden"},
		{"", "chat"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}

func TestGenerateExportPath(t *testing.T) {
	now := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	got := GenerateExportPath("/home/u", "todo", now)
	assert.Equal(t, filepath.Join("/home/u", "Downloads", "assistui-todo-20250102-150405.json"), got)
}

func TestExportTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	stamp := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	err := ExportTranscript(path, Transcript{
		Channel:    chat.ChannelRAG,
		SessionID:  "s1",
		ExportedAt: stamp,
		Messages:   []chat.Message{{Role: chat.RoleUser, Content: "hi", Timestamp: stamp}},
	})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	back, err := ReadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, chat.ChannelRAG, back.Channel)
	require.Len(t, back.Messages, 1)
	assert.Equal(t, "hi", back.Messages[0].Content)
	assert.True(t, stamp.Equal(back.Messages[0].Timestamp))
}
