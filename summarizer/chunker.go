package summarizer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Chunk is one slice of a document. Text holds the core slice; Overlap holds
// the tail of the previous chunk, prepended only when prompting so the model
// sees continuity. Concatenating the Text fields of a plan in index order
// reproduces the original document byte for byte.
type Chunk struct {
	Index   int
	Text    string
	Overlap string
}

// FullText returns the overlap-prefixed text used in prompts.
func (c Chunk) FullText() string { return c.Overlap + c.Text }

// ChunkParams bounds the splitting. Values outside the allowed ranges are
// clamped by Clamp.
type ChunkParams struct {
	// Size is the target chunk length in bytes.
	Size int
	// Overlap is the number of trailing bytes of each chunk repeated as
	// context for the next one.
	Overlap int
}

const (
	minChunkSize    = 100
	maxChunkSize    = 4000
	minChunkOverlap = 20
	maxChunkOverlap = 500

	// DefaultChunkSize and DefaultChunkOverlap are used when the sizing
	// recommendation is unavailable or malformed.
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Clamp forces the params into their allowed ranges, substituting defaults
// for non-positive values. Overlap is additionally capped below Size so a
// chunk is never pure repetition.
func (p ChunkParams) Clamp() ChunkParams {
	if p.Size <= 0 {
		p.Size = DefaultChunkSize
	}
	if p.Overlap <= 0 {
		p.Overlap = DefaultChunkOverlap
	}
	p.Size = clamp(p.Size, minChunkSize, maxChunkSize)
	p.Overlap = clamp(p.Overlap, minChunkOverlap, maxChunkOverlap)
	if p.Overlap >= p.Size {
		p.Overlap = p.Size / 2
	}
	return p
}

// separators is the cut preference order: paragraph break, line break,
// sentence end, word boundary.
var separators = []string{"\n\n", "\n", ". ", " "}

// Plan splits doc into chunks of roughly params.Size bytes, preferring to cut
// at natural boundaries. The split is deterministic. maxChunks of 0 means
// unlimited. The sizing params are advisory: when they would overflow the cap
// the chunk size grows until the document fits, so Plan fails only for
// documents too large even at MinimalChunks sizing.
func Plan(doc string, params ChunkParams, maxChunks int) ([]Chunk, error) {
	params = params.Clamp()
	if doc == "" {
		return nil, fmt.Errorf("empty document")
	}
	if maxChunks > 0 {
		if minimal := MinimalChunks(len(doc)); minimal > maxChunks {
			return nil, fmt.Errorf("document needs at least %d chunks, limit is %d", minimal, maxChunks)
		}
		if needed := (len(doc) + maxChunks - 1) / maxChunks; params.Size < needed {
			params.Size = needed
		}
	}

	chunks := split(doc, params)
	for maxChunks > 0 && len(chunks) > maxChunks {
		// Boundary-preferring cuts can land short of Size; widen until the
		// count fits.
		params.Size *= 2
		chunks = split(doc, params)
	}
	return chunks, nil
}

// MinimalChunks is the fewest chunks a document of docLen bytes can split
// into, i.e. the count at the maximum chunk size.
func MinimalChunks(docLen int) int {
	return (docLen + maxChunkSize - 1) / maxChunkSize
}

func split(doc string, params ChunkParams) []Chunk {
	var chunks []Chunk
	pos := 0
	overlap := ""
	for pos < len(doc) {
		cut := cutPoint(doc, pos, params.Size)
		chunks = append(chunks, Chunk{Index: len(chunks), Text: doc[pos:cut], Overlap: overlap})
		overlap = tailBytes(doc[pos:cut], params.Overlap)
		pos = cut
	}
	return chunks
}

// cutPoint picks the end of the chunk starting at pos. It searches the latter
// half of the size window for the best separator and falls back to a hard cut
// on a rune boundary.
func cutPoint(doc string, pos, size int) int {
	end := pos + size
	if end >= len(doc) {
		return len(doc)
	}
	searchStart := pos + size/2
	window := doc[searchStart:end]
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return searchStart + i + len(sep)
		}
	}
	for end > pos && !utf8.RuneStart(doc[end]) {
		end--
	}
	return end
}

// tailBytes returns at most n trailing bytes of s, trimmed forward to a rune
// boundary.
func tailBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
