package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThread_AppendAndHistory(t *testing.T) {
	th := NewThread("t1")
	th.Append(NewUserMessage("one"))
	th.Append(NewAssistantMessage("two"))

	history := th.History()
	require.Len(t, history, 2)
	history[0].Content = "mutated"
	assert.Equal(t, "one", th.History()[0].Content, "History must return a defensive copy")
}

func TestThread_ReplaceRange(t *testing.T) {
	th := NewThread("t1")
	for _, c := range []string{"a", "b", "c", "d"} {
		th.Append(NewUserMessage(c))
	}

	ok := th.ReplaceRange(0, 3, NewSummaryMessage("abc"))
	require.True(t, ok)
	require.Equal(t, 2, th.Len())
	assert.True(t, th.History()[0].Synthetic)
	assert.Equal(t, "d", th.History()[1].Content)
}

func TestThread_ReplaceRangeInvalid(t *testing.T) {
	th := NewThread("t1")
	th.Append(NewUserMessage("a"))

	assert.False(t, th.ReplaceRange(0, 2, NewSummaryMessage("x")))
	assert.False(t, th.ReplaceRange(-1, 1, NewSummaryMessage("x")))
	assert.False(t, th.ReplaceRange(1, 1, NewSummaryMessage("x")))
	assert.Equal(t, 1, th.Len())
	assert.Equal(t, "a", th.History()[0].Content)
}

func TestThread_ConcurrentAccess(t *testing.T) {
	th := NewThread("t1")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			th.Append(NewUserMessage("m"))
		}()
		go func() {
			defer wg.Done()
			_ = th.History()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, th.Len())
}

func TestThread_Clone(t *testing.T) {
	th := NewThread("t1")
	th.Append(NewUserMessage("a"))

	clone := th.Clone()
	clone.Append(NewUserMessage("b"))
	assert.Equal(t, 1, th.Len())
	assert.Equal(t, 2, clone.Len())
}
