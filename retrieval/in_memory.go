// Package retrieval provides concrete Retriever implementations for the
// internal knowledge base.
package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/zephyrlab/triad/core"
)

// Document is a unit of indexed knowledge.
type Document struct {
	Text        string
	SourceLabel string
}

// InMemoryRetriever is a process local keyword index implementing
// core.Retriever. Scoring is token overlap between the query and the
// document, normalized to [0, 1]. Suitable for tests and demos; swap for a
// vector store in production.
//
// Concurrency: protected by RWMutex.
type InMemoryRetriever struct {
	mu   sync.RWMutex
	docs []Document
}

var _ core.Retriever = (*InMemoryRetriever)(nil)

// NewInMemoryRetriever creates an empty retriever, optionally pre-seeded.
func NewInMemoryRetriever(docs ...Document) *InMemoryRetriever {
	r := &InMemoryRetriever{}
	r.docs = append(r.docs, docs...)
	return r
}

// Add indexes additional documents.
func (r *InMemoryRetriever) Add(docs ...Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, docs...)
}

// Retrieve returns up to k passages scored by query token overlap, best
// first. Documents with no overlapping tokens are omitted entirely, so an
// off-topic query yields an empty result rather than noise.
func (r *InMemoryRetriever) Retrieve(ctx context.Context, query string, k int) ([]core.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	queryTokens := tokenize(query)
	passages := make([]core.Passage, 0, k)
	for _, doc := range r.docs {
		score := overlapScore(queryTokens, tokenize(doc.Text))
		if score <= 0 {
			continue
		}
		passages = append(passages, core.Passage{Text: doc.Text, SourceLabel: doc.SourceLabel, Score: score})
	}
	sort.SliceStable(passages, func(i, j int) bool { return passages[i].Score > passages[j].Score })
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages, nil
}

// NormalizeScore maps a raw similarity in [-1, 1] (e.g. cosine distance based
// scores from vector backends) into [0, 1].
func NormalizeScore(s float64) float64 {
	n := (s + 1) / 2
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		token := strings.Trim(field, ".,;:!?()[]\"'")
		if len(token) < 2 {
			continue
		}
		tokens[token] = struct{}{}
	}
	return tokens
}

// overlapScore is the fraction of query tokens present in the document.
func overlapScore(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for token := range query {
		if _, ok := doc[token]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
