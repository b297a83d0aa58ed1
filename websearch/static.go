package websearch

import (
	"context"

	"github.com/zephyrlab/triad/core"
)

// StaticSearcher returns canned results regardless of the query. Useful for
// tests and offline development.
type StaticSearcher struct {
	Results []core.WebResult
	Err     error
}

var _ core.WebSearcher = (*StaticSearcher)(nil)

// NewStaticSearcher creates a searcher that always returns the given results.
func NewStaticSearcher(results ...core.WebResult) *StaticSearcher {
	return &StaticSearcher{Results: results}
}

// Search returns the configured results or error.
func (s *StaticSearcher) Search(ctx context.Context, query string) ([]core.WebResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]core.WebResult, len(s.Results))
	copy(out, s.Results)
	return out, nil
}
