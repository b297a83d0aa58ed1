package core

import "strings"

// RoutingDecision is the closed set of paths a turn can take.
type RoutingDecision string

const (
	// RouteKnowledge delegates the turn to the knowledge agent.
	RouteKnowledge RoutingDecision = "KNOWLEDGE"
	// RouteSummarize delegates the turn to the document summarizer.
	RouteSummarize RoutingDecision = "SUMMARIZE"
	// RouteDirect answers from conversation context without delegation. It is
	// also the fail-safe default when the routing call is unparseable.
	RouteDirect RoutingDecision = "DIRECT"
)

// ParseRoute maps a model-produced label onto a RoutingDecision. Unknown or
// empty labels resolve to RouteDirect so a malformed routing response never
// drops the turn.
func ParseRoute(label string) RoutingDecision {
	switch RoutingDecision(strings.ToUpper(strings.TrimSpace(label))) {
	case RouteKnowledge:
		return RouteKnowledge
	case RouteSummarize:
		return RouteSummarize
	case RouteDirect:
		return RouteDirect
	default:
		return RouteDirect
	}
}

// CitationOrigin tags where a citation's content came from.
type CitationOrigin string

const (
	// OriginInternal marks passages retrieved from the internal knowledge base.
	OriginInternal CitationOrigin = "INTERNAL"
	// OriginWeb marks snippets returned by the external search provider.
	OriginWeb CitationOrigin = "WEB"
)

// Citation records one source backing an answer. Citations are ordered by
// descending relevance score and referenced from the answer text by 1-based
// [n] markers.
type Citation struct {
	Origin  CitationOrigin `json:"origin"`
	Label   string         `json:"label"`
	Snippet string         `json:"snippet"`
	Score   float64        `json:"score"`
}

// SummaryStats reports how a document summarization run went.
type SummaryStats struct {
	ChunkCount     int   `json:"chunk_count"`
	OriginalLength int   `json:"original_length"`
	OmittedChunks  []int `json:"omitted_chunks,omitempty"`
}

// AssistantOutput is the result of one turn: the answer text plus, depending
// on the route taken, the citations backing it or the summarization stats.
type AssistantOutput struct {
	Text      string          `json:"text"`
	Route     RoutingDecision `json:"route"`
	Citations []Citation      `json:"citations,omitempty"`
	Stats     *SummaryStats   `json:"stats,omitempty"`
	// Degraded is set when a documented fallback produced the answer (external
	// provider down, omitted chunks). Caveat carries the user-facing note.
	Degraded bool   `json:"degraded,omitempty"`
	Caveat   string `json:"caveat,omitempty"`
}

// StreamChunk is one increment of a streamed turn. Delta carries a text
// fragment; Final is non-nil exactly once, on the closing chunk.
type StreamChunk struct {
	Delta string
	Final *AssistantOutput
}
