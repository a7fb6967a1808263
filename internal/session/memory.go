package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]Message),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) History(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.sessions[sessionID]
	copied := make([]Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, msg Message) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if !msg.Origin.Valid() {
		return fmt.Errorf("invalid message origin %q", msg.Origin)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	s.mu.Lock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	s.mu.Unlock()
	return nil
}

// Len returns the number of known sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.sessions = make(map[string][]Message)
	s.mu.Unlock()
	return nil
}
