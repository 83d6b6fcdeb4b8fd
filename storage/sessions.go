package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS session_items (
	session_id TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (session_id, key),
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);
`

// SessionMetadata is a lightweight description of a stored session
type SessionMetadata struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	ItemCount int
}

// SessionStorage keeps per-session key-value items in a single SQLite file.
// Each session is isolated; ending a session discards its items.
type SessionStorage struct {
	db      *sql.DB
	dataDir string
	logger  *zap.Logger
}

// NewSessionStorage opens (or creates) <dataDir>/sessions.db
func NewSessionStorage(dataDir string, logger *zap.Logger) (*SessionStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 0700 - chat history is sensitive
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sessions.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Serialize access; the store commits synchronously on every write.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &SessionStorage{db: db, dataDir: dataDir, logger: logger}, nil
}

func (s *SessionStorage) Close() error {
	return s.db.Close()
}

// CreateSession registers a new empty session and returns its ID
func (s *SessionStorage) CreateSession() (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.Exec(`INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)`, id, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Debug("session created", zap.String("session", id))
	return id, nil
}

// SessionExists reports whether id names a live session
func (s *SessionStorage) SessionExists(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}
	return n > 0, nil
}

// EndSession discards a session and every item stored under it
func (s *SessionStorage) EndSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM session_items WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session items: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session deletion: %w", err)
	}

	if current, err := s.LoadCurrentSessionID(); err == nil && current == id {
		_ = os.Remove(s.currentSessionPath())
	}
	_ = s.UnlockSession(id)

	s.logger.Debug("session ended", zap.String("session", id))
	return nil
}

// List returns metadata for all sessions, newest first
func (s *SessionStorage) List() ([]SessionMetadata, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.created_at, s.updated_at, COUNT(i.key)
		FROM sessions s LEFT JOIN session_items i ON i.session_id = s.id
		GROUP BY s.id
		ORDER BY s.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionMetadata
	for rows.Next() {
		var m SessionMetadata
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, m)
	}
	return sessions, rows.Err()
}

// Session returns the key-value view of one session
func (s *SessionStorage) Session(id string) *Session {
	return &Session{storage: s, id: id}
}

// Begin picks the session for this run. With resume set, the last session is
// reused when it still exists and no other live instance holds it; otherwise a
// new session is created. The chosen session is locked.
//
// Only a resumable session becomes the current one. A session started with
// resume off, or because the last session is held by another instance, leaves
// the pointer alone so the held session is still resumed once it is free.
func (s *SessionStorage) Begin(resume bool) (string, error) {
	var id string
	remember := resume

	if resume {
		if lastID, err := s.LoadCurrentSessionID(); err == nil && lastID != "" {
			exists, err := s.SessionExists(lastID)
			if err != nil {
				return "", err
			}
			locked, lockErr := s.CheckSessionLock(lastID)
			if exists && lockErr == nil && !locked {
				id = lastID
			}
			if exists && locked {
				s.logger.Info("last session is held by another instance, starting a temporary one",
					zap.String("session", lastID))
				remember = false
			}
		}
	}

	if id == "" {
		newID, err := s.CreateSession()
		if err != nil {
			return "", err
		}
		id = newID
	}

	if remember {
		if err := s.SaveCurrentSessionID(id); err != nil {
			return "", fmt.Errorf("failed to save current session: %w", err)
		}
	}
	if err := s.LockSession(id); err != nil {
		return "", fmt.Errorf("failed to lock session: %w", err)
	}
	return id, nil
}

// IsCurrent reports whether id is the session the next resuming run picks up
func (s *SessionStorage) IsCurrent(id string) bool {
	current, err := s.LoadCurrentSessionID()
	return err == nil && current == id
}

func (s *SessionStorage) currentSessionPath() string {
	return filepath.Join(s.dataDir, "current_session.id")
}

// SaveCurrentSessionID saves the ID of the current session
func (s *SessionStorage) SaveCurrentSessionID(id string) error {
	return os.WriteFile(s.currentSessionPath(), []byte(id), 0600)
}

// LoadCurrentSessionID loads the ID of the last active session
func (s *SessionStorage) LoadCurrentSessionID() (string, error) {
	data, err := os.ReadFile(s.currentSessionPath())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *SessionStorage) lockPath(sessionID string) string {
	return filepath.Join(s.dataDir, sessionID+".lock")
}

// LockSession creates a lock file for a session to indicate it's in use
// Content: PID of the instance using this session
func (s *SessionStorage) LockSession(sessionID string) error {
	pid := os.Getpid()
	return os.WriteFile(s.lockPath(sessionID), []byte(fmt.Sprintf("%d", pid)), 0600)
}

// UnlockSession removes the lock file for a session
func (s *SessionStorage) UnlockSession(sessionID string) error {
	err := os.Remove(s.lockPath(sessionID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// CheckSessionLock checks if a session is locked by another instance.
// A lock held by this process does not count.
func (s *SessionStorage) CheckSessionLock(sessionID string) (bool, error) {
	lockPath := s.lockPath(sessionID)

	data, err := os.ReadFile(lockPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read lock file: %w", err)
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		// Invalid lock file, clean it up
		_ = os.Remove(lockPath)
		return false, nil
	}
	if pid == os.Getpid() {
		return false, nil
	}

	if !processAlive(pid) {
		_ = os.Remove(lockPath)
		return false, nil
	}
	return true, nil
}

// Session is one session's key-value slot store. It satisfies chat.Storage.
type Session struct {
	storage *SessionStorage
	id      string
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) GetItem(key string) (string, bool, error) {
	var value string
	err := s.storage.db.QueryRow(
		`SELECT value FROM session_items WHERE session_id = ? AND key = ?`, s.id, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Session) SetItem(key, value string) error {
	now := time.Now().UTC()

	tx, err := s.storage.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Sessions ended by another process are recreated so a write is never lost.
	if _, err := tx.Exec(`
		INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		s.id, now, now); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO session_items (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.id, key, value, now); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes a single key from the session
func (s *Session) RemoveItem(key string) error {
	_, err := s.storage.db.Exec(`DELETE FROM session_items WHERE session_id = ? AND key = ?`, s.id, key)
	if err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}
