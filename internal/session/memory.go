package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"listingmatch/internal/review"
)

// MemoryStore keeps sessions in process. Entries are stored serialized so a
// caller mutating a loaded session does not change the stored one until Save.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryEntry
	now   func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, items: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := m.now()
	if !now.Before(e.expires) {
		delete(m.items, id)
		return nil, ErrNotFound
	}
	e.expires = now.Add(m.ttl)
	m.items[id] = e

	return decode(e.data)
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, e := range m.items {
		if !now.Before(e.expires) {
			delete(m.items, id)
		}
	}
	m.items[s.ID] = memoryEntry{data: b, expires: now.Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

func decode(b []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Matches == nil {
		s.Matches = review.NewMatchState()
	}
	return &s, nil
}
