package session

import (
	"context"
	"sync"
)

// Turn is one message of a conversation, either the user's or the model's.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Store keeps per-session conversation history and the set of course
// sections a user has pinned to their working schedule.
type Store interface {
	History(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	Schedule(ctx context.Context, sessionID string) ([]string, error)
	AddSection(ctx context.Context, sessionID, sectionID string) error
	RemoveSection(ctx context.Context, sessionID, sectionID string) error
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore is a process-local Store for single-user runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	history  map[string][]Turn
	schedule map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		history:  make(map[string][]Turn),
		schedule: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) History(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.history[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[sessionID] = append(s.history[sessionID], turns...)
	return nil
}

func (s *MemoryStore) Schedule(_ context.Context, sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.schedule[sessionID]))
	for id := range s.schedule[sessionID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) AddSection(_ context.Context, sessionID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule[sessionID] == nil {
		s.schedule[sessionID] = make(map[string]struct{})
	}
	s.schedule[sessionID][sectionID] = struct{}{}
	return nil
}

func (s *MemoryStore) RemoveSection(_ context.Context, sessionID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.schedule[sessionID], sectionID)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, sessionID)
	delete(s.schedule, sessionID)
	return nil
}
