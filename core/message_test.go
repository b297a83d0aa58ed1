package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatHistory(t *testing.T) {
	messages := []Message{
		NewUserMessage("hello\n\n\nthere"),
		NewAssistantMessage("  hi  "),
	}

	got := FormatHistory(messages)
	assert.Equal(t, "USER: hello\nthere\nASSISTANT: hi", got)
}

func TestFormatHistory_Empty(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil))
}

func TestRecentMessages(t *testing.T) {
	messages := []Message{
		NewUserMessage("one"),
		NewAssistantMessage("two"),
		NewUserMessage("three"),
	}

	recent := RecentMessages(messages, 2, false)
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Content)
	assert.Equal(t, "three", recent[1].Content)

	recent = RecentMessages(messages, 2, true)
	require.Len(t, recent, 2)
	assert.Equal(t, "one", recent[0].Content)
	assert.Equal(t, "two", recent[1].Content)

	assert.Len(t, RecentMessages(messages, 0, false), 3)
	assert.Len(t, RecentMessages(nil, 5, true), 0)
}

func TestRecentMessages_ReturnsCopy(t *testing.T) {
	messages := []Message{NewUserMessage("one")}
	recent := RecentMessages(messages, 1, false)
	recent[0].Content = "mutated"
	assert.Equal(t, "one", messages[0].Content)
}

func TestNewSummaryMessage(t *testing.T) {
	m := NewSummaryMessage("the gist")
	assert.True(t, m.Synthetic)
	assert.Equal(t, RoleAssistant, m.Role)
	assert.Equal(t, SummaryPrefix+"the gist", m.Content)
}

func TestHistorySize(t *testing.T) {
	messages := []Message{
		NewUserMessage("12345"),
		NewAssistantMessage("678"),
	}
	assert.Equal(t, 8, HistorySize(messages))
	assert.Equal(t, 0, HistorySize(nil))
}

func TestParseRoute(t *testing.T) {
	assert.Equal(t, RouteKnowledge, ParseRoute("knowledge"))
	assert.Equal(t, RouteSummarize, ParseRoute(" SUMMARIZE "))
	assert.Equal(t, RouteDirect, ParseRoute("DIRECT"))
	assert.Equal(t, RouteDirect, ParseRoute("gibberish"))
	assert.Equal(t, RouteDirect, ParseRoute(""))
}
