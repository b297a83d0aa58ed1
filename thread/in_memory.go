package thread

import (
	"fmt"
	"sync"

	"github.com/zephyrlab/triad/core"
)

// InMemoryStore is a volatile ThreadStore implementation storing threads in a
// process local map. It is safe for concurrent access. Each returned thread
// is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*core.Thread
}

// NewInMemoryStore constructs an empty in-memory thread store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{threads: make(map[string]*core.Thread)}
}

// Get returns an existing thread (clone) or creates a new one lazily.
func (s *InMemoryStore) Get(threadID string) (*core.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.threads[threadID]; ok {
		return t.Clone(), nil
	}
	return s.createLocked(threadID).Clone(), nil
}

// Create forces the creation (or overwriting) of a thread with the given id.
func (s *InMemoryStore) Create(threadID string) (*core.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(threadID).Clone(), nil
}

// Append adds messages to an existing or newly created thread. All messages
// of one call land together.
func (s *InMemoryStore) Append(threadID string, msgs ...core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		t = s.createLocked(threadID)
	}
	t.Append(msgs...)
	return nil
}

// ReplaceRange substitutes messages[start:end) with the single message m.
// Used by history compaction.
func (s *InMemoryStore) ReplaceRange(threadID string, start, end int, m core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return fmt.Errorf("thread %s not found", threadID)
	}
	if !t.ReplaceRange(start, end, m) {
		return fmt.Errorf("invalid range [%d, %d) for thread %s with %d messages", start, end, threadID, t.Len())
	}
	return nil
}

// Delete removes a thread. Deleting an unknown thread is an error so callers
// notice misaddressed deletes.
func (s *InMemoryStore) Delete(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[threadID]; !ok {
		return fmt.Errorf("thread %s not found", threadID)
	}
	delete(s.threads, threadID)
	return nil
}

// createLocked allocates and stores a new thread; caller must already hold
// the write lock.
func (s *InMemoryStore) createLocked(threadID string) *core.Thread {
	t := core.NewThread(threadID)
	s.threads[threadID] = t
	return t
}
