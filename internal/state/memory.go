package state

import (
	"context"
	"sync"

	"github.com/maine/techbriefs/internal/news"
)

// MemoryStore держит состояние в памяти процесса. Используется в тестах.
type MemoryStore struct {
	mu     sync.Mutex
	seen   news.SeenSet
	marker string
}

// NewMemoryStore создаёт стор с заданным начальным состоянием.
func NewMemoryStore(marker string, titles ...string) *MemoryStore {
	return &MemoryStore{seen: news.NewSeenSet(titles...), marker: marker}
}

func (s *MemoryStore) LoadSeen(ctx context.Context) (news.SeenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen.Clone(), nil
}

func (s *MemoryStore) SaveSeen(ctx context.Context, seen news.SeenSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = seen.Clone()
	return nil
}

func (s *MemoryStore) LoadMarker(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marker, nil
}

func (s *MemoryStore) SaveMarker(ctx context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = date
	return nil
}
