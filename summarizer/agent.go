// Package summarizer implements map-reduce document summarization: analyze
// the document to size the chunks, split it, summarize chunks in parallel,
// and combine the partial summaries into one.
package summarizer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/internal/util"
	"github.com/zephyrlab/triad/model"
)

// Options configures the summarizer agent.
type Options struct {
	// MaxDocumentChars rejects documents above this length before any model
	// call. 0 disables the cap.
	MaxDocumentChars int
	// SingleChunkChars is the length at or below which the document is
	// summarized in one call, skipping analysis and chunking.
	SingleChunkChars int
	// MaxChunks caps how many chunks a document may split into. 0 disables
	// the cap.
	MaxChunks int
	// AnalyzeHeadChars is how much of the document opening the sizing
	// recommendation sees.
	AnalyzeHeadChars int
	// Retry governs model calls.
	Retry core.RetryPolicy
}

// Agent performs map-reduce document summarization.
type Agent struct {
	model model.Model
	opts  Options
}

// Result is the outcome of one summarization run.
type Result struct {
	Text  string
	Stats core.SummaryStats
}

// chunkSpec is the structured sizing recommendation from the analysis step.
type chunkSpec struct {
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	Reasoning    string `json:"reasoning"`
}

// omittedPlaceholder stands in for a chunk whose summarization failed after
// retries.
const omittedPlaceholder = "[section omitted: summarization failed]"

// New creates a summarizer agent.
func New(m model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		MaxDocumentChars: 500_000,
		SingleChunkChars: 1_000,
		MaxChunks:        50,
		AnalyzeHeadChars: 2_000,
		Retry:            core.DefaultRetryPolicy,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{model: m, opts: opts}
}

// Summarize runs the full pipeline over doc. Invalid input is rejected before
// any model call. Chunks that fail after retries are replaced by a
// placeholder and recorded in Stats.OmittedChunks; cancellation aborts the
// run without a partial result.
func (a *Agent) Summarize(tc *core.TurnContext, doc string) (*Result, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, core.Rejected("summarizer.summarize", "empty document")
	}
	if a.opts.MaxDocumentChars > 0 && len(doc) > a.opts.MaxDocumentChars {
		return nil, core.Rejected("summarizer.summarize",
			fmt.Sprintf("document of %d characters exceeds the %d character limit", len(doc), a.opts.MaxDocumentChars))
	}
	if a.opts.MaxChunks > 0 {
		if minimal := MinimalChunks(len(doc)); minimal > a.opts.MaxChunks {
			return nil, core.Rejected("summarizer.summarize",
				fmt.Sprintf("document needs at least %d chunks, limit is %d", minimal, a.opts.MaxChunks))
		}
	}

	if len(doc) <= a.opts.SingleChunkChars {
		text, err := a.generateText(tc, "summarizer.single", model.Request{
			Instructions: singleInstructions,
			Messages:     []core.Message{core.NewUserMessage(doc)},
		})
		if err != nil {
			return nil, err
		}
		return &Result{Text: text, Stats: core.SummaryStats{ChunkCount: 1, OriginalLength: len(doc)}}, nil
	}

	params := a.analyze(tc, doc)
	chunks, err := Plan(doc, params, a.opts.MaxChunks)
	if err != nil {
		return nil, core.Rejected("summarizer.chunk", err.Error())
	}
	tc.LogDebug("summarizer: planned chunks", "turn_id", tc.TurnID,
		"chunks", len(chunks), "chunk_size", params.Size, "chunk_overlap", params.Overlap)

	summaries, omitted, err := a.summarizeParallel(tc, chunks)
	if err != nil {
		return nil, err
	}

	combined, err := a.combine(tc, summaries)
	if err != nil {
		return nil, err
	}

	return &Result{
		Text: combined,
		Stats: core.SummaryStats{
			ChunkCount:     len(chunks),
			OriginalLength: len(doc),
			OmittedChunks:  omitted,
		},
	}, nil
}

// analyze asks the model for chunk sizing. Any failure falls back to the
// defaults; sizing is advisory, never fatal.
func (a *Agent) analyze(tc *core.TurnContext, doc string) ChunkParams {
	head := doc
	if len(head) > a.opts.AnalyzeHeadChars {
		head = tailSafeHead(doc, a.opts.AnalyzeHeadChars)
	}
	prompt, err := util.RenderTemplate(analyzeTemplate, map[string]any{
		"Length": len(doc),
		"Head":   head,
	})
	if err != nil {
		return ChunkParams{}.Clamp()
	}

	if err := tc.Limiter.Increment(); err != nil {
		return ChunkParams{}.Clamp()
	}
	var spec chunkSpec
	err = core.CallWithRetry(tc.Context, a.opts.Retry, "summarizer.analyze", func(ctx context.Context) error {
		got, err := model.GenerateObject[chunkSpec](ctx, a.model, model.Request{
			Instructions: analyzeInstructions,
			Messages:     []core.Message{core.NewUserMessage(prompt)},
			SchemaName:   "chunk_spec",
		})
		if err != nil {
			return err
		}
		spec = got
		return nil
	})
	if err != nil {
		tc.LogWarn("summarizer: sizing recommendation failed, using defaults", "turn_id", tc.TurnID, "error", err)
		return ChunkParams{}.Clamp()
	}
	return ChunkParams{Size: spec.ChunkSize, Overlap: spec.ChunkOverlap}.Clamp()
}

// summarizeParallel fans the chunks out to the model and collects results by
// chunk index, so completion order never affects output order. A chunk that
// still fails after retries becomes a placeholder and its index is recorded;
// cancellation aborts the whole run instead.
func (a *Agent) summarizeParallel(tc *core.TurnContext, chunks []Chunk) ([]string, []int, error) {
	summaries := make([]string, len(chunks))
	failures := make([]error, len(chunks))

	var wg sync.WaitGroup
	for _, chunk := range chunks {
		wg.Add(1)
		go func(c Chunk) {
			defer wg.Done()
			text, err := a.summarizeChunk(tc, c, len(chunks))
			if err != nil {
				failures[c.Index] = err
				return
			}
			summaries[c.Index] = text
		}(chunk)
	}
	wg.Wait()

	if err := tc.Err(); err != nil {
		return nil, nil, core.Unavailable("summarizer.map", err)
	}

	var omitted []int
	for i, err := range failures {
		if err == nil {
			continue
		}
		tc.LogWarn("summarizer: chunk omitted", "turn_id", tc.TurnID, "chunk", i, "error", err)
		summaries[i] = omittedPlaceholder
		omitted = append(omitted, i)
	}
	sort.Ints(omitted)
	if len(omitted) == len(chunks) {
		return nil, nil, core.Unavailable("summarizer.map", fmt.Errorf("all %d chunks failed", len(chunks)))
	}
	return summaries, omitted, nil
}

func (a *Agent) summarizeChunk(tc *core.TurnContext, c Chunk, total int) (string, error) {
	prompt, err := util.RenderTemplate(chunkTemplate, map[string]any{
		"Index": c.Index + 1,
		"Total": total,
		"Text":  c.FullText(),
	})
	if err != nil {
		return "", core.Unavailable("summarizer.map", err)
	}
	return a.generateText(tc, "summarizer.map", model.Request{
		Instructions: chunkInstructions,
		Messages:     []core.Message{core.NewUserMessage(prompt)},
	})
}

// combine merges the ordered chunk summaries into the final text.
func (a *Agent) combine(tc *core.TurnContext, summaries []string) (string, error) {
	var b strings.Builder
	for i, s := range summaries {
		fmt.Fprintf(&b, "[Chunk %d]\n%s\n\n", i+1, s)
	}
	prompt, err := util.RenderTemplate(combineTemplate, map[string]any{
		"Sections": strings.TrimRight(b.String(), "\n"),
	})
	if err != nil {
		return "", core.Unavailable("summarizer.combine", err)
	}
	return a.generateText(tc, "summarizer.combine", model.Request{
		Instructions: combineInstructions,
		Messages:     []core.Message{core.NewUserMessage(prompt)},
	})
}

func (a *Agent) generateText(tc *core.TurnContext, op string, req model.Request) (string, error) {
	if err := tc.Limiter.Increment(); err != nil {
		return "", core.Unavailable(op, err)
	}
	var text string
	err := core.CallWithRetry(tc.Context, a.opts.Retry, op, func(ctx context.Context) error {
		got, err := model.GenerateText(ctx, a.model, req)
		if err != nil {
			return err
		}
		text = got
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// tailSafeHead returns the first n bytes of s without splitting a rune.
func tailSafeHead(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
