package core

import "context"

// Passage is one ranked result from the internal knowledge base.
type Passage struct {
	Text        string  `json:"text"`
	SourceLabel string  `json:"source_label"`
	Score       float64 `json:"score"`
}

// Retriever is the internal retrieval capability: given a query it returns
// the top-k passages ranked by similarity. Implementations may back this with
// a vector index, a keyword index or anything else; scores are expected in
// [0, 1] with higher meaning more relevant.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// WebResult is one ranked result from the external search provider.
type WebResult struct {
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
}

// WebSearcher is the external search capability used as the fallback when
// internal retrieval comes up empty or irrelevant.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]WebResult, error)
}
