package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() *InMemoryRetriever {
	return NewInMemoryRetriever(
		Document{Text: "Go channels provide communication between goroutines", SourceLabel: "go-concurrency.md"},
		Document{Text: "Goroutines are lightweight threads managed by the Go runtime", SourceLabel: "go-runtime.md"},
		Document{Text: "Baking sourdough bread requires a mature starter", SourceLabel: "baking.md"},
	)
}

func TestInMemoryRetriever_RanksByOverlap(t *testing.T) {
	r := seeded()

	passages, err := r.Retrieve(context.Background(), "goroutines and channels in Go", 5)
	require.NoError(t, err)
	require.NotEmpty(t, passages)

	for i := 1; i < len(passages); i++ {
		assert.GreaterOrEqual(t, passages[i-1].Score, passages[i].Score)
	}
	assert.NotEqual(t, "baking.md", passages[0].SourceLabel)
}

func TestInMemoryRetriever_OffTopicQueryIsEmpty(t *testing.T) {
	r := seeded()

	passages, err := r.Retrieve(context.Background(), "xyzzy-nonexistent-term", 5)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestInMemoryRetriever_HonorsK(t *testing.T) {
	r := seeded()

	passages, err := r.Retrieve(context.Background(), "go goroutines bread starter", 1)
	require.NoError(t, err)
	assert.Len(t, passages, 1)
}

func TestInMemoryRetriever_CancelledContext(t *testing.T) {
	r := seeded()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Retrieve(ctx, "go", 5)
	assert.Error(t, err)
}

func TestNormalizeScore(t *testing.T) {
	assert.Equal(t, 0.5, NormalizeScore(0))
	assert.Equal(t, 1.0, NormalizeScore(1))
	assert.Equal(t, 0.0, NormalizeScore(-1))
	assert.Equal(t, 1.0, NormalizeScore(1.5))
	assert.Equal(t, 0.0, NormalizeScore(-2))
}
