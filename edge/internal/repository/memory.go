package repository

import (
	"context"
	"sync"
)

// InMemoryStore keeps accepted readings in a slice. Default backend for
// development and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	readings []Reading
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) SaveReading(_ context.Context, r *Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = append(s.readings, *r)
	return nil
}

// Readings returns a copy of everything stored so far.
func (s *InMemoryStore) Readings() []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Reading, len(s.readings))
	copy(out, s.readings)
	return out
}

func (s *InMemoryStore) Close() {}
