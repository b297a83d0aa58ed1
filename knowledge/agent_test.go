package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/model"
	"github.com/zephyrlab/triad/retrieval"
	"github.com/zephyrlab/triad/websearch"
)

func fastRetry(o *Options) {
	o.Retry = core.RetryPolicy{MaxAttempts: 1, InitialInterval: time.Millisecond}
}

func newTurn(input string) *core.TurnContext {
	return core.NewTurnContext(context.Background(), "t1", input, nil, 0, nil)
}

func seededRetriever() *retrieval.InMemoryRetriever {
	return retrieval.NewInMemoryRetriever(
		retrieval.Document{Text: "Go channels provide typed communication between goroutines", SourceLabel: "concurrency.md"},
		retrieval.Document{Text: "The select statement waits on multiple channel operations", SourceLabel: "select.md"},
	)
}

// routes requests by shape: schema calls get a relevance verdict, everything
// else gets the canned answer.
func answeringModel(verdict, answer string) *model.MockModel {
	m := model.NewMockModel("mock", "mock")
	m.SetHandler(func(req model.Request) (string, error) {
		if req.Schema != nil {
			return verdict, nil
		}
		return answer, nil
	})
	return m
}

func TestAgent_InternalPath(t *testing.T) {
	m := answeringModel(
		`{"relevant": true, "confidence": 0.9, "explanation": "passages answer it"}`,
		"Channels carry typed values between goroutines [1]. Select waits on several of them [2].",
	)
	agent := New(m, seededRetriever(), nil, fastRetry)

	out, err := agent.Answer(newTurn("how do goroutines communicate via channels and select"))
	require.NoError(t, err)
	assert.False(t, out.Degraded)
	require.Len(t, out.Citations, 2)
	for _, c := range out.Citations {
		assert.Equal(t, core.OriginInternal, c.Origin)
	}
	assert.GreaterOrEqual(t, out.Citations[0].Score, out.Citations[1].Score)
	assert.Contains(t, out.Text, "[1]")
	assert.Contains(t, out.Text, "[2]")
}

func TestAgent_EmptyRetrievalFallsBackToWeb(t *testing.T) {
	m := answeringModel(
		`{"relevant": true, "confidence": 0.9, "explanation": "unused"}`,
		"According to the web, the answer is yes [1].",
	)
	searcher := websearch.NewStaticSearcher(core.WebResult{
		Title: "Answer Page", URL: "https://example.com/a", Snippet: "yes", Score: 0.8,
	})
	agent := New(m, seededRetriever(), searcher, fastRetry)

	out, err := agent.Answer(newTurn("xyzzy-nonexistent-term"))
	require.NoError(t, err)
	assert.False(t, out.Degraded)
	require.Len(t, out.Citations, 1)
	assert.Equal(t, core.OriginWeb, out.Citations[0].Origin)
	assert.Equal(t, "Answer Page (https://example.com/a)", out.Citations[0].Label)
}

func TestAgent_LowConfidenceGoesExternal(t *testing.T) {
	m := answeringModel(
		`{"relevant": true, "confidence": 0.2, "explanation": "barely related"}`,
		"From the web [1].",
	)
	searcher := websearch.NewStaticSearcher(core.WebResult{
		Title: "W", URL: "https://example.com/w", Snippet: "w", Score: 0.5,
	})
	agent := New(m, seededRetriever(), searcher, fastRetry)

	out, err := agent.Answer(newTurn("channels goroutines select"))
	require.NoError(t, err)
	require.Len(t, out.Citations, 1)
	assert.Equal(t, core.OriginWeb, out.Citations[0].Origin)
}

func TestAgent_MalformedVerdictGoesExternal(t *testing.T) {
	m := answeringModel("this is not json at all", "From the web [1].")
	searcher := websearch.NewStaticSearcher(core.WebResult{
		Title: "W", URL: "https://example.com/w", Snippet: "w", Score: 0.5,
	})
	agent := New(m, seededRetriever(), searcher, fastRetry)

	out, err := agent.Answer(newTurn("channels goroutines select"))
	require.NoError(t, err)
	require.Len(t, out.Citations, 1)
	assert.Equal(t, core.OriginWeb, out.Citations[0].Origin)
}

func TestAgent_SearchFailureProducesDegradedAnswer(t *testing.T) {
	m := answeringModel(
		`{"relevant": false, "confidence": 0.1, "explanation": "off topic"}`,
		"Best effort answer without sources.",
	)
	searcher := websearch.NewStaticSearcher()
	searcher.Err = errors.New("provider down")
	agent := New(m, seededRetriever(), searcher, fastRetry)

	out, err := agent.Answer(newTurn("channels goroutines select"))
	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.NotEmpty(t, out.Caveat)
	assert.Empty(t, out.Citations)
	assert.Equal(t, "Best effort answer without sources.", out.Text)
}

func TestAgent_EmptyQueryRejected(t *testing.T) {
	agent := New(model.NewMockModel("mock", "mock"), seededRetriever(), nil, fastRetry)

	_, err := agent.Answer(newTurn("   "))
	require.Error(t, err)
	assert.Equal(t, core.KindRejected, core.KindOf(err))
}

func TestAgent_RefineUsesHistory(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	var refinePrompt string
	m.SetHandler(func(req model.Request) (string, error) {
		if req.Schema != nil {
			return `{"relevant": true, "confidence": 0.9, "explanation": "ok"}`, nil
		}
		if req.Instructions == refineInstructions {
			refinePrompt = req.Messages[len(req.Messages)-1].Content
			return "go channel communication goroutines", nil
		}
		return "Answer [1].", nil
	})
	history := []core.Message{
		core.NewUserMessage("tell me about Go"),
		core.NewAssistantMessage("Go is a compiled language."),
	}
	tc := core.NewTurnContext(context.Background(), "t1", "what about its channels?", history, 0, nil)

	agent := New(m, seededRetriever(), nil, fastRetry)
	_, err := agent.Answer(tc)
	require.NoError(t, err)
	assert.Contains(t, refinePrompt, "tell me about Go")
	assert.Contains(t, refinePrompt, "what about its channels?")
}
