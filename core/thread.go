package core

import (
	"sync"
	"time"
)

// Thread is a persistent ordered conversation. It is safe for concurrent
// access.
//
// Contract:
//   - Append preserves arrival order and updates the Updated timestamp
//   - Messages returns a defensive copy to avoid external mutation
//   - ReplaceRange substitutes messages[start:end) with a single message and
//     is used exclusively by history compaction
//   - Clone performs deep copies of slices for safe divergence.
type Thread struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	mu       sync.RWMutex
}

// NewThread creates an empty thread with the given ID.
func NewThread(id string) *Thread {
	now := time.Now()
	return &Thread{ID: id, Messages: []Message{}, Created: now, Updated: now}
}

// Append adds messages to the end of the history in one step.
func (t *Thread) Append(msgs ...Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Messages = append(t.Messages, msgs...)
	t.Updated = time.Now()
}

// History returns a defensive copy of the full message slice.
func (t *Thread) History() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	msgs := make([]Message, len(t.Messages))
	copy(msgs, t.Messages)
	return msgs
}

// Len reports the number of messages in the thread.
func (t *Thread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.Messages)
}

// ReplaceRange substitutes Messages[start:end) with the single message m. It
// reports whether the range was valid; an invalid range leaves the thread
// untouched.
func (t *Thread) ReplaceRange(start, end int, m Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if start < 0 || end > len(t.Messages) || start >= end {
		return false
	}
	rest := make([]Message, 0, len(t.Messages)-(end-start)+1)
	rest = append(rest, t.Messages[:start]...)
	rest = append(rest, m)
	rest = append(rest, t.Messages[end:]...)
	t.Messages = rest
	t.Updated = time.Now()
	return true
}

// Clone returns a deep copy of the thread safe for independent mutation.
func (t *Thread) Clone() *Thread {
	t.mu.RLock()
	defer t.mu.RUnlock()
	clone := &Thread{ID: t.ID, Messages: make([]Message, len(t.Messages)), Created: t.Created, Updated: t.Updated}
	copy(clone.Messages, t.Messages)
	return clone
}

// ThreadStore persists threads and their ordered message history. Threads are
// created lazily on first turn and never deleted implicitly; Delete is the
// explicit removal hook. Append takes all messages of one operation so a
// store commits them together or not at all.
type ThreadStore interface {
	Create(id string) (*Thread, error)
	Get(id string) (*Thread, error)
	Append(threadID string, msgs ...Message) error
	ReplaceRange(threadID string, start, end int, m Message) error
	Delete(threadID string) error
}
