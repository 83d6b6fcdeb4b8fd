package chat

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Storage is a session-scoped key-value slot store.
type Storage interface {
	GetItem(key string) (value string, found bool, err error)
	SetItem(key, value string) error
}

// State maps channel names to their message histories.
type State map[string][]Message

// Option configures a Store.
type Option func(*Store)

// WithChannels replaces the default channel set. The set is closed once the
// store is constructed.
func WithChannels(specs []ChannelSpec) Option {
	return func(s *Store) {
		s.specs = specs
	}
}

// WithClock sets the time source used for default and missing timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store owns every channel history and commits the whole state to durable
// storage after each mutation.
type Store struct {
	mu      sync.Mutex
	storage Storage
	logger  *zap.Logger
	specs   []ChannelSpec
	now     func() time.Time
	norm    Normalizer
	state   State
	ready   bool
}

// NewStore creates an uninitialized store. Storage is not touched until
// Initialize or the first read.
func NewStore(storage Storage, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		storage: storage,
		logger:  logger,
		specs:   DefaultChannels(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.norm = NewNormalizer(s.now)
	return s
}

// Channels returns the configured channel specs in display order.
func (s *Store) Channels() []ChannelSpec {
	out := make([]ChannelSpec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Known reports whether name is one of the configured channels.
func (s *Store) Known(name string) bool {
	_, ok := s.spec(name)
	return ok
}

// Ready reports whether durable storage has been read.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Initialize restores the state from durable storage. Each channel recovers
// independently: a channel whose stored value is not a list falls back to its
// welcome message, while valid channels are kept. It never fails.
func (s *Store) Initialize() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initLocked()
	return s.snapshotLocked()
}

// Channel returns a copy of the named channel's history. Unknown names yield
// an empty history.
func (s *Store) Channel(name string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		s.initLocked()
	}
	return cloneMessages(s.state[name])
}

// SetChannel replaces the named channel's history with the normalized form of
// messages. Anything that is not a slice is treated as an empty history. Unknown
// channel names are ignored. The returned error only reports a failed commit;
// the in-memory state has advanced regardless.
func (s *Store) SetChannel(name string, messages any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		s.initLocked()
	}
	if _, ok := s.spec(name); !ok {
		s.logger.Debug("ignoring write to unknown channel", zap.String("channel", name))
		return nil
	}

	s.state[name] = s.norm.NormalizeAll(messages)
	return s.commitLocked()
}

// AppendChannel adds normalized messages to the end of the named channel and
// commits. The read and the write happen under one lock.
func (s *Store) AppendChannel(name string, messages ...MessageLike) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		s.initLocked()
	}
	if _, ok := s.spec(name); !ok {
		s.logger.Debug("ignoring append to unknown channel", zap.String("channel", name))
		return nil
	}

	next := cloneMessages(s.state[name])
	for _, m := range messages {
		next = append(next, s.norm.Normalize(m))
	}
	s.state[name] = next
	return s.commitLocked()
}

// Reset restores every channel to its welcome message and commits.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = s.defaultsLocked()
	s.ready = true
	return s.commitLocked()
}

// ResetChannel restores a single channel to its welcome message.
func (s *Store) ResetChannel(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		s.initLocked()
	}
	spec, ok := s.spec(name)
	if !ok {
		return nil
	}
	s.state[name] = []Message{s.welcome(spec)}
	return s.commitLocked()
}

// Snapshot returns a deep copy of the full state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		s.initLocked()
	}
	return s.snapshotLocked()
}

func (s *Store) initLocked() {
	s.state = s.restoreLocked()
	s.ready = true

	if err := s.commitLocked(); err != nil {
		s.logger.Warn("failed to persist restored chat state", zap.Error(err))
	}
}

func (s *Store) restoreLocked() State {
	if s.storage == nil {
		return s.defaultsLocked()
	}

	raw, found, err := s.storage.GetItem(StorageKey)
	if err != nil {
		s.logger.Warn("failed to read chat state, using defaults", zap.Error(err))
		return s.defaultsLocked()
	}
	if !found || raw == "" {
		return s.defaultsLocked()
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		s.logger.Warn("stored chat state is not valid JSON, using defaults", zap.Error(err))
		return s.defaultsLocked()
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		s.logger.Warn("stored chat state is not an object, using defaults")
		return s.defaultsLocked()
	}

	state := make(State, len(s.specs))
	for _, spec := range s.specs {
		items, ok := obj[spec.Name].([]any)
		if !ok {
			if _, present := obj[spec.Name]; present {
				s.logger.Debug("stored channel is malformed, using default", zap.String("channel", spec.Name))
			}
			state[spec.Name] = []Message{s.welcome(spec)}
			continue
		}
		state[spec.Name] = s.norm.NormalizeAll(items)
	}
	return state
}

func (s *Store) commitLocked() error {
	if s.storage == nil {
		return nil
	}

	data, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("failed to encode chat state: %w", err)
	}
	if err := s.storage.SetItem(StorageKey, string(data)); err != nil {
		s.logger.Warn("failed to persist chat state", zap.Error(err))
		return fmt.Errorf("failed to persist chat state: %w", err)
	}
	return nil
}

func (s *Store) defaultsLocked() State {
	state := make(State, len(s.specs))
	for _, spec := range s.specs {
		state[spec.Name] = []Message{s.welcome(spec)}
	}
	return state
}

func (s *Store) welcome(spec ChannelSpec) Message {
	return s.norm.Normalize(Partial{Role: RoleAssistant, Content: spec.Welcome})
}

func (s *Store) spec(name string) (ChannelSpec, bool) {
	for _, spec := range s.specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return ChannelSpec{}, false
}

func (s *Store) snapshotLocked() State {
	out := make(State, len(s.state))
	for name, msgs := range s.state {
		out[name] = cloneMessages(msgs)
	}
	return out
}

func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
