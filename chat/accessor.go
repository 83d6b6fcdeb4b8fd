package chat

import "errors"

// ErrChannelRequired is returned when an accessor is requested without a
// channel name. It signals a bug in the caller, not bad data.
var ErrChannelRequired = errors.New("chat: accessor requires a channel name")

// Accessor is a Store handle bound to one channel.
type Accessor struct {
	store *Store
	name  string
}

func NewAccessor(store *Store, name string) (*Accessor, error) {
	if name == "" {
		return nil, ErrChannelRequired
	}
	if store == nil {
		return nil, errors.New("chat: accessor requires a store")
	}
	return &Accessor{store: store, name: name}, nil
}

// MustAccessor is like NewAccessor but panics on a missing channel name.
// Use it where the name is a compile-time constant.
func MustAccessor(store *Store, name string) *Accessor {
	a, err := NewAccessor(store, name)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Accessor) Name() string {
	return a.name
}

// Messages returns the channel's current history.
func (a *Accessor) Messages() []Message {
	return a.store.Channel(a.name)
}

// SetMessages replaces the channel's history.
func (a *Accessor) SetMessages(messages any) error {
	return a.store.SetChannel(a.name, messages)
}

// Append adds messages to the end of the current history and commits.
func (a *Accessor) Append(messages ...MessageLike) error {
	return a.store.AppendChannel(a.name, messages...)
}
