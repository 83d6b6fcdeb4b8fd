package chat

import (
	"errors"
	"sync"
	"time"
)

type fakeStorage struct {
	mu      sync.Mutex
	items   map[string]string
	getErr  error
	setErr  error
	writes  int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{items: map[string]string{}}
}

func (f *fakeStorage) GetItem(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.items[key]
	return v, ok, nil
}

func (f *fakeStorage) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.items[key] = value
	f.writes++
	return nil
}

var errBroken = errors.New("storage unavailable")

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func fixedClock() time.Time { return fixedNow }
