package model

import (
	"errors"

	"go.uber.org/zap"

	"assistui/backend"
	"assistui/chat"
	"assistui/config"
	"assistui/storage"
	"assistui/views"
)

// ErrBusy is returned when a channel already has a request in flight
var ErrBusy = errors.New("a request is already in progress for this channel")

// ErrNotSaved is returned when a message was recorded in memory but could not
// be written to the session
var ErrNotSaved = errors.New("message not saved")

// Model holds the core application data and business logic state
type Model struct {
	// Core dependencies
	Config    *config.Config
	Client    *backend.Client
	Sessions  *storage.SessionStorage
	SessionID string
	Store     *chat.Store
	Logger    *zap.Logger

	// Ask sends a message to a channel's backend. Defaults to Client.Chat.
	Ask views.AskFunc

	// Backend-provided tab data
	Projects        []string
	ProjectsErr     error
	TodoStatus      string
	TodoExamples    []string
	TodoSuggestions string
	TodoErr         error

	// EndOnClose discards the session on Close. Set for sessions that no
	// later run will resume.
	EndOnClose bool

	// CloseLog flushes and closes the logger's output. Defaults to Logger.Sync.
	CloseLog func() error

	// Runtime state (not UI)
	pending  map[string]bool
	Quitting bool

	Version string
}

// NewModel creates a new Model. sessions may be nil when the store is not
// backed by the session database.
func NewModel(cfg *config.Config, client *backend.Client, store *chat.Store, sessions *storage.SessionStorage, sessionID string, logger *zap.Logger, version string) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Model{
		Config:    cfg,
		Client:    client,
		Sessions:  sessions,
		SessionID: sessionID,
		Store:     store,
		Logger:    logger,
		pending:   make(map[string]bool),
		Version:   version,
	}
	if client != nil {
		m.Ask = client.Chat
	}
	return m
}

// Accessor returns the view binding for a channel
func (m *Model) Accessor(channel string) *chat.Accessor {
	return chat.MustAccessor(m.Store, channel)
}

// Pending reports whether channel has a request in flight
func (m *Model) Pending(channel string) bool {
	return m.pending[channel]
}

// LastAnswer returns the newest assistant message of a channel, welcome
// included.
func (m *Model) LastAnswer(channel string) (string, bool) {
	msgs := m.Store.Channel(channel)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == chat.RoleAssistant {
			return msgs[i].Content, true
		}
	}
	return "", false
}

// ResetChannel restores a channel's welcome message
func (m *Model) ResetChannel(channel string) error {
	if m.pending[channel] {
		return ErrBusy
	}
	return m.Store.ResetChannel(channel)
}

// Close releases the session lock and the database. A session marked
// EndOnClose is ended instead, discarding its conversations.
func (m *Model) Close() error {
	defer func() {
		if m.CloseLog != nil {
			_ = m.CloseLog()
			return
		}
		_ = m.Logger.Sync()
	}()

	if m.Sessions == nil {
		return nil
	}
	if m.SessionID != "" {
		if m.EndOnClose {
			if err := m.Sessions.EndSession(m.SessionID); err != nil {
				m.Logger.Warn("failed to end session", zap.String("session", m.SessionID), zap.Error(err))
			}
		} else if err := m.Sessions.UnlockSession(m.SessionID); err != nil {
			m.Logger.Warn("failed to unlock session", zap.String("session", m.SessionID), zap.Error(err))
		}
	}
	return m.Sessions.Close()
}
