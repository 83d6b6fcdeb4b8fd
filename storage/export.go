package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"assistui/chat"
)

// Transcript is the exported form of one channel's history
type Transcript struct {
	Channel    string         `json:"channel"`
	SessionID  string         `json:"session_id,omitempty"`
	ExportedAt time.Time      `json:"exported_at"`
	Messages   []chat.Message `json:"messages"`
}

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "-",
		"<", "-", ">", "-", "|", "-", " ", "-", "\n", "-", "\r", "-",
	)
	name = replacer.Replace(name)

	// Remove leading/trailing hyphens and dots
	name = strings.Trim(name, "-.")

	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "chat"
	}
	return name
}

// GenerateExportPath generates a default export path in the Downloads directory
func GenerateExportPath(homeDir, channel string, now time.Time) string {
	filename := fmt.Sprintf("assistui-%s-%s.json", SanitizeFilename(channel), now.Format("20060102-150405"))
	return filepath.Join(homeDir, "Downloads", filename)
}

// ExportTranscript writes t as indented JSON to exportPath
func ExportTranscript(exportPath string, t Transcript) error {
	if t.Messages == nil {
		t.Messages = []chat.Message{}
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	// Ensure directory exists (0700 - user-only access)
	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// 0600 - transcripts contain conversation history
	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ReadTranscript loads a previously exported transcript
func ReadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return &t, nil
}
