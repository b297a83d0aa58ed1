package summarizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/model"
)

func fastRetry(o *Options) {
	o.Retry = core.RetryPolicy{MaxAttempts: 1, InitialInterval: time.Millisecond}
}

func newTurn() *core.TurnContext {
	return core.NewTurnContext(context.Background(), "t1", "", nil, 0, nil)
}

const specJSON = `{"chunk_size": 200, "chunk_overlap": 30, "reasoning": "test"}`

// mapReduceModel answers the analysis call with fixed sizing, echoes a
// section marker for map calls, and records the combine prompt.
func mapReduceModel(combinePrompt *string) *model.MockModel {
	m := model.NewMockModel("mock", "mock")
	m.SetHandler(func(req model.Request) (string, error) {
		content := req.Messages[len(req.Messages)-1].Content
		switch {
		case req.Schema != nil:
			return specJSON, nil
		case req.Instructions == chunkInstructions:
			// Finish in shuffled order to prove fan-in is index keyed.
			time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
			var index, total int
			_, err := fmt.Sscanf(content, "Section %d of %d", &index, &total)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("summary-of-section-%d", index), nil
		case req.Instructions == combineInstructions:
			if combinePrompt != nil {
				*combinePrompt = content
			}
			return "final combined summary", nil
		default:
			return "single call summary", nil
		}
	})
	return m
}

func TestAgent_SingleChunkShortCircuit(t *testing.T) {
	m := mapReduceModel(nil)
	agent := New(m, fastRetry)

	res, err := agent.Summarize(newTurn(), "a short document")
	require.NoError(t, err)
	assert.Equal(t, "single call summary", res.Text)
	assert.Equal(t, 1, res.Stats.ChunkCount)
	assert.Empty(t, res.Stats.OmittedChunks)
	require.Len(t, m.Calls(), 1)
	assert.Equal(t, singleInstructions, m.Calls()[0].Instructions)
}

func TestAgent_MapReduceOrdersByChunkIndex(t *testing.T) {
	var combinePrompt string
	m := mapReduceModel(&combinePrompt)
	agent := New(m, fastRetry, func(o *Options) { o.SingleChunkChars = 100 })

	doc := strings.Repeat("A sentence about the system under test. ", 40)
	res, err := agent.Summarize(newTurn(), doc)
	require.NoError(t, err)
	assert.Equal(t, "final combined summary", res.Text)
	assert.Greater(t, res.Stats.ChunkCount, 1)
	assert.Equal(t, len(doc), res.Stats.OriginalLength)

	// Sections must appear in index order regardless of completion order.
	lastPos := -1
	for i := 1; i <= res.Stats.ChunkCount; i++ {
		pos := strings.Index(combinePrompt, fmt.Sprintf("summary-of-section-%d", i))
		require.GreaterOrEqual(t, pos, 0, "section %d missing from combine prompt", i)
		assert.Greater(t, pos, lastPos, "section %d out of order", i)
		lastPos = pos
	}
}

func TestAgent_FailedChunkBecomesPlaceholder(t *testing.T) {
	var combinePrompt string
	m := model.NewMockModel("mock", "mock")
	m.SetHandler(func(req model.Request) (string, error) {
		content := req.Messages[len(req.Messages)-1].Content
		switch {
		case req.Schema != nil:
			return specJSON, nil
		case req.Instructions == chunkInstructions:
			if strings.HasPrefix(content, "Section 2 of") {
				return "", errors.New("provider hiccup")
			}
			var index, total int
			_, _ = fmt.Sscanf(content, "Section %d of %d", &index, &total)
			return fmt.Sprintf("summary-of-section-%d", index), nil
		default:
			combinePrompt = content
			return "combined with a gap", nil
		}
	})
	agent := New(m, fastRetry, func(o *Options) { o.SingleChunkChars = 100 })

	doc := strings.Repeat("A sentence about the system under test. ", 40)
	res, err := agent.Summarize(newTurn(), doc)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Stats.OmittedChunks)
	assert.Contains(t, combinePrompt, omittedPlaceholder)
	assert.Contains(t, combinePrompt, "summary-of-section-1")
	assert.Contains(t, combinePrompt, "summary-of-section-3")
}

func TestAgent_AllChunksFailedIsUnavailable(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.SetHandler(func(req model.Request) (string, error) {
		if req.Schema != nil {
			return specJSON, nil
		}
		return "", errors.New("provider down")
	})
	agent := New(m, fastRetry, func(o *Options) { o.SingleChunkChars = 100 })

	doc := strings.Repeat("A sentence about the system under test. ", 40)
	_, err := agent.Summarize(newTurn(), doc)
	require.Error(t, err)
	assert.Equal(t, core.KindUnavailable, core.KindOf(err))
}

func TestAgent_MalformedSpecFallsBackToDefaults(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.SetHandler(func(req model.Request) (string, error) {
		content := req.Messages[len(req.Messages)-1].Content
		switch {
		case req.Schema != nil:
			return "definitely not json", nil
		case req.Instructions == chunkInstructions:
			var index, total int
			_, _ = fmt.Sscanf(content, "Section %d of %d", &index, &total)
			return fmt.Sprintf("s%d", index), nil
		default:
			return "combined", nil
		}
	})
	agent := New(m, fastRetry, func(o *Options) { o.SingleChunkChars = 100 })

	doc := strings.Repeat("A sentence about the system under test. ", 40)
	res, err := agent.Summarize(newTurn(), doc)
	require.NoError(t, err)
	assert.Equal(t, "combined", res.Text)
	assert.Greater(t, res.Stats.ChunkCount, 1)
}

func TestAgent_EmptyDocumentRejected(t *testing.T) {
	agent := New(model.NewMockModel("mock", "mock"), fastRetry)

	_, err := agent.Summarize(newTurn(), "  \n ")
	require.Error(t, err)
	assert.Equal(t, core.KindRejected, core.KindOf(err))
	assert.Empty(t, model.NewMockModel("mock", "mock").Calls())
}

func TestAgent_OversizedDocumentRejected(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	agent := New(m, fastRetry, func(o *Options) { o.MaxDocumentChars = 100 })

	_, err := agent.Summarize(newTurn(), strings.Repeat("x", 200))
	require.Error(t, err)
	assert.Equal(t, core.KindRejected, core.KindOf(err))
	assert.Empty(t, m.Calls(), "rejection must happen before any model call")
}

func TestAgent_TooManyChunksRejected(t *testing.T) {
	m := mapReduceModel(nil)
	agent := New(m, fastRetry, func(o *Options) {
		o.SingleChunkChars = 100
		o.MaxChunks = 2
	})

	// Over two max-size chunks even at the widest sizing.
	doc := strings.Repeat("A sentence about the system under test. ", 250)
	_, err := agent.Summarize(newTurn(), doc)
	require.Error(t, err)
	assert.Equal(t, core.KindRejected, core.KindOf(err))
	assert.Empty(t, m.Calls(), "rejection must happen before any model call")
}

func TestAgent_SmallRecommendationStaysWithinCap(t *testing.T) {
	m := mapReduceModel(nil)
	agent := New(m, fastRetry, func(o *Options) { o.SingleChunkChars = 100 })

	// 40,000 bytes fits the default cap at max-size chunking, so the model's
	// 200-byte recommendation must be widened rather than rejected.
	doc := strings.Repeat("A sentence about the system under test. ", 1_000)
	res, err := agent.Summarize(newTurn(), doc)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Stats.ChunkCount, 50)
	assert.Equal(t, "final combined summary", res.Text)
}

func TestAgent_CancelledContext(t *testing.T) {
	m := mapReduceModel(nil)
	agent := New(m, fastRetry, func(o *Options) { o.SingleChunkChars = 100 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tc := core.NewTurnContext(ctx, "t1", "", nil, 0, nil)

	doc := strings.Repeat("A sentence about the system under test. ", 40)
	_, err := agent.Summarize(tc, doc)
	require.Error(t, err)
}
