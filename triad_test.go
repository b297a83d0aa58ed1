package triad

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/model"
	"github.com/zephyrlab/triad/retrieval"
)

func testModel() *model.MockModel {
	m := model.NewMockModel("mock", "mock")
	m.SetHandler(func(req model.Request) (string, error) {
		switch req.SchemaName {
		case "route_verdict":
			return `{"route": "KNOWLEDGE", "confidence": 0.9, "reasoning": "lookup"}`, nil
		case "relevance_verdict":
			return `{"relevant": true, "confidence": 0.95, "explanation": "covered"}`, nil
		case "chunk_spec":
			return `{"chunk_size": 500, "chunk_overlap": 50, "reasoning": "short"}`, nil
		default:
			return "The moon orbits the earth [1].", nil
		}
	})
	return m
}

func TestTriad_KnowledgeTurnEndToEnd(t *testing.T) {
	tr := New(func(o *Options) {
		o.Model = testModel()
		o.Retriever = retrieval.NewInMemoryRetriever(
			retrieval.Document{Text: "The moon orbits the earth once every 27 days", SourceLabel: "astronomy.md"},
		)
		o.Settings.RetryMaxAttempts = 1
		o.Settings.RetryInitialInterval = time.Millisecond
	})

	out, err := tr.HandleTurn(context.Background(), "t1", "how long does the moon take to orbit the earth?")
	require.NoError(t, err)
	assert.Equal(t, core.RouteKnowledge, out.Route)
	require.Len(t, out.Citations, 1)
	assert.Equal(t, "astronomy.md", out.Citations[0].Label)
}

func TestTriad_SummarizeConvenience(t *testing.T) {
	tr := New(func(o *Options) {
		o.Model = testModel()
		o.Settings.RetryMaxAttempts = 1
		o.Settings.RetryInitialInterval = time.Millisecond
	})

	out, err := tr.Summarize(context.Background(), "t1", "A brief document about nothing in particular.")
	require.NoError(t, err)
	assert.Equal(t, core.RouteSummarize, out.Route)
	require.NotNil(t, out.Stats)
	assert.Equal(t, 1, out.Stats.ChunkCount)
}

func TestTriad_DefaultsAreUsable(t *testing.T) {
	tr := New()
	require.NotNil(t, tr)

	// The default MockModel has no canned responses, so the turn fails, but
	// it must fail cleanly without touching the thread.
	_, err := tr.HandleTurn(context.Background(), "t1", "")
	assert.Error(t, err)
}
