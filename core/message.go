package core

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author class of a message.
type Role string

const (
	// RoleUser marks messages authored by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks messages authored by the system.
	RoleAssistant Role = "assistant"
	// RoleTool marks structured tool payloads attached to the conversation.
	RoleTool Role = "tool"
)

// Message is one entry in a thread's ordered history. After being appended it
// is treated as immutable; the only rewrite permitted is the compaction step,
// which replaces a prefix range with a single synthetic summary message
// (Synthetic=true).
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Synthetic bool      `json:"synthetic,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a generated ID and UTC timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage is a convenience wrapper for a user-authored message.
func NewUserMessage(content string) Message { return NewMessage(RoleUser, content) }

// NewAssistantMessage is a convenience wrapper for an assistant-authored message.
func NewAssistantMessage(content string) Message { return NewMessage(RoleAssistant, content) }

// SummaryPrefix introduces the synthetic summary message compaction writes.
const SummaryPrefix = "Previous conversation summary: "

// NewSummaryMessage creates the synthetic assistant message that compaction
// writes in place of an older history prefix.
func NewSummaryMessage(summary string) Message {
	m := NewMessage(RoleAssistant, SummaryPrefix+summary)
	m.Synthetic = true
	return m
}

// NewID generates a new unique identifier for messages and turns.
func NewID() string { return uuid.NewString() }

var blankRuns = regexp.MustCompile(`\n+`)

// FormatHistory renders messages as "USER:"/"ASSISTANT:" prefixed lines with
// blank runs collapsed, suitable for embedding in a prompt.
func FormatHistory(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		prefix := "ASSISTANT"
		if m.Role == RoleUser {
			prefix = "USER"
		}
		clean := blankRuns.ReplaceAllString(strings.TrimSpace(m.Content), "\n")
		lines = append(lines, prefix+": "+clean)
	}
	return strings.Join(lines, "\n")
}

// RecentMessages returns at most n trailing messages. If excludeLast is set
// the newest message is dropped first, which is useful when it is the turn
// currently being processed.
func RecentMessages(messages []Message, n int, excludeLast bool) []Message {
	if excludeLast && len(messages) > 0 {
		messages = messages[:len(messages)-1]
	}
	if n > 0 && len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}

// HistorySize reports the total content size of a history in characters. It
// is the measure compaction thresholds are evaluated against.
func HistorySize(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	return total
}
