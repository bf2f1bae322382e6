package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. Expiry is evaluated lazily
// on access and eagerly by Maintain.
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	chats  map[int64]*memoryChat
	values map[string]string
}

type memoryChat struct {
	entries   []string
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store with the given sliding TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		chats:  make(map[int64]*memoryChat),
		values: make(map[string]string),
	}
}

// Ping implements Store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, chatID int64, entry Entry) error {
	raw, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	chat := s.liveChat(chatID, now)
	if chat == nil {
		chat = &memoryChat{}
		s.chats[chatID] = chat
	}
	chat.entries = append(chat.entries, raw)
	chat.expiresAt = now.Add(s.ttl)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, chatID int64) ([]Entry, error) {
	s.mu.Lock()
	chat := s.liveChat(chatID, s.now())
	var raw []string
	if chat != nil {
		raw = slices.Clone(chat.entries)
	}
	s.mu.Unlock()

	return decodeEntries(raw)
}

// ActiveChats implements Store.
func (s *MemoryStore) ActiveChats(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ids := make([]int64, 0, len(s.chats))
	for id := range s.chats {
		if s.liveChat(id, now) != nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chats, chatID)
	return nil
}

// SetValue implements Store.
func (s *MemoryStore) SetValue(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// GetValue implements Store.
func (s *MemoryStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// DeleteValue implements Store.
func (s *MemoryStore) DeleteValue(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Maintain implements Store by dropping expired chats.
func (s *MemoryStore) Maintain(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id := range s.chats {
		s.liveChat(id, now)
	}
	return nil
}

// FlushAll implements Store.
func (s *MemoryStore) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats = make(map[int64]*memoryChat)
	s.values = make(map[string]string)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// liveChat returns the chat if it has not expired, deleting it otherwise.
// Callers must hold s.mu.
func (s *MemoryStore) liveChat(chatID int64, now time.Time) *memoryChat {
	chat, ok := s.chats[chatID]
	if !ok {
		return nil
	}
	if !now.Before(chat.expiresAt) {
		delete(s.chats, chatID)
		return nil
	}
	return chat
}
