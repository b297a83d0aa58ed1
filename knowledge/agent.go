// Package knowledge implements the retrieval-backed question answering
// pipeline: refine the query, retrieve from the internal knowledge base,
// judge relevance, and format an answer with citations, falling back to
// external web search when the internal base cannot answer.
package knowledge

import (
	"context"
	"errors"
	"strings"

	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/internal/util"
	"github.com/zephyrlab/triad/model"
)

// Options configures the knowledge agent.
type Options struct {
	// RetrieveK is the number of passages requested from the retriever.
	RetrieveK int
	// RelevanceThreshold is the minimum verdict confidence required to answer
	// from internal passages.
	RelevanceThreshold float64
	// HistoryWindow is the number of trailing messages given to query
	// refinement.
	HistoryWindow int
	// Retry governs capability calls (model, retriever, searcher).
	Retry core.RetryPolicy
}

// Agent answers questions from the internal knowledge base with external web
// search as fallback.
type Agent struct {
	model     model.Model
	retriever core.Retriever
	searcher  core.WebSearcher
	opts      Options
}

// Output is the answer produced for one knowledge turn.
type Output struct {
	Text      string
	Citations []core.Citation
	Degraded  bool
	Caveat    string
}

var errNoSearcher = errors.New("no external searcher configured")

// relevanceVerdict is the structured response of the evaluation step.
type relevanceVerdict struct {
	Relevant    bool    `json:"relevant"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// New creates a knowledge agent. The searcher may be nil, in which case the
// external fallback degrades to an uncited answer.
func New(m model.Model, retriever core.Retriever, searcher core.WebSearcher, optFns ...func(o *Options)) *Agent {
	opts := Options{
		RetrieveK:          5,
		RelevanceThreshold: 0.6,
		HistoryWindow:      3,
		Retry:              core.DefaultRetryPolicy,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{model: m, retriever: retriever, searcher: searcher, opts: opts}
}

// Answer runs the full pipeline for the turn's input question.
func (a *Agent) Answer(tc *core.TurnContext) (*Output, error) {
	query := strings.TrimSpace(tc.Input)
	if query == "" {
		return nil, core.Rejected("knowledge.answer", "empty query")
	}

	refined := a.refine(tc, query)

	passages, retrieveErr := a.retrieve(tc, refined)
	if retrieveErr != nil {
		tc.LogWarn("knowledge: retrieval unavailable, falling back to external search",
			"turn_id", tc.TurnID, "error", retrieveErr)
		out, err := a.answerExternal(tc, refined)
		if err != nil {
			return nil, err
		}
		out.Degraded = true
		out.Caveat = joinCaveats("The internal knowledge base was unavailable for this answer.", out.Caveat)
		return out, nil
	}

	if len(passages) > 0 {
		relevant, err := a.evaluate(tc, refined, passages)
		if err != nil {
			return nil, err
		}
		if relevant {
			return a.answerInternal(tc, refined, passages)
		}
	}

	return a.answerExternal(tc, refined)
}

// refine rewrites the raw question into a standalone search query using the
// recent conversation. Any failure falls back to the raw question.
func (a *Agent) refine(tc *core.TurnContext, query string) string {
	history := tc.RecentHistory(a.opts.HistoryWindow)
	if len(history) == 0 {
		return query
	}

	prompt, err := util.RenderTemplate(refineTemplate, map[string]any{
		"History": core.FormatHistory(history),
		"Query":   query,
	})
	if err != nil {
		return query
	}

	refined, err := a.generateText(tc, "knowledge.refine", model.Request{
		Instructions: refineInstructions,
		Messages:     []core.Message{core.NewUserMessage(prompt)},
	})
	if err != nil || strings.TrimSpace(refined) == "" {
		tc.LogWarn("knowledge: query refinement failed, using raw query", "turn_id", tc.TurnID, "error", err)
		return query
	}
	tc.LogDebug("knowledge: refined query", "turn_id", tc.TurnID, "refined", refined)
	return strings.TrimSpace(refined)
}

func (a *Agent) retrieve(tc *core.TurnContext, query string) ([]core.Passage, error) {
	var passages []core.Passage
	err := core.CallWithRetry(tc.Context, a.opts.Retry, "knowledge.retrieve", func(ctx context.Context) error {
		got, err := a.retriever.Retrieve(ctx, query, a.opts.RetrieveK)
		if err != nil {
			return err
		}
		passages = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return passages, nil
}

// evaluate asks the model whether the passages can answer the question. A
// malformed verdict or one below the confidence threshold sends the turn to
// the external path.
func (a *Agent) evaluate(tc *core.TurnContext, query string, passages []core.Passage) (bool, error) {
	prompt, err := util.RenderTemplate(evaluateTemplate, map[string]any{
		"Query":    query,
		"Passages": numberedSources(citationsFromPassages(passages)),
	})
	if err != nil {
		return false, core.Unavailable("knowledge.evaluate", err)
	}

	verdict, err := a.generateObject(tc, "knowledge.evaluate", model.Request{
		Instructions: evaluateInstructions,
		Messages:     []core.Message{core.NewUserMessage(prompt)},
		SchemaName:   "relevance_verdict",
	})
	if err != nil {
		if core.KindOf(err) == core.KindMalformed {
			tc.LogWarn("knowledge: relevance verdict malformed, falling back to external search",
				"turn_id", tc.TurnID, "error", err)
			return false, nil
		}
		return false, err
	}

	tc.LogDebug("knowledge: relevance verdict", "turn_id", tc.TurnID,
		"relevant", verdict.Relevant, "confidence", verdict.Confidence)
	return verdict.Relevant && verdict.Confidence >= a.opts.RelevanceThreshold, nil
}

// answerInternal formats an answer from internal passages with aligned
// citations.
func (a *Agent) answerInternal(tc *core.TurnContext, query string, passages []core.Passage) (*Output, error) {
	citations := citationsFromPassages(passages)
	text, err := a.format(tc, "knowledge.format_internal", formatInternalInstructions, query, citations)
	if err != nil {
		return nil, err
	}
	aligned, kept := alignCitations(text, citations)
	return &Output{Text: aligned, Citations: kept}, nil
}

// answerExternal searches the web and formats the answer from the results.
// When the searcher is missing or stays down after retries, the agent answers
// without sources and flags the output as degraded.
func (a *Agent) answerExternal(tc *core.TurnContext, query string) (*Output, error) {
	results, err := a.search(tc, query)
	if err != nil || len(results) == 0 {
		if err != nil {
			tc.LogWarn("knowledge: external search unavailable, answering without sources",
				"turn_id", tc.TurnID, "error", err)
		}
		text, genErr := a.generateText(tc, "knowledge.format_uncited", model.Request{
			Instructions: "Answer the question from general knowledge. Be explicit about uncertainty.",
			Messages:     []core.Message{core.NewUserMessage(query)},
		})
		if genErr != nil {
			return nil, genErr
		}
		return &Output{
			Text:     text,
			Degraded: true,
			Caveat:   "External search was unavailable, so this answer has no sources and may be out of date.",
		}, nil
	}

	citations := citationsFromWebResults(results)
	text, err := a.format(tc, "knowledge.format_external", formatExternalInstructions, query, citations)
	if err != nil {
		return nil, err
	}
	aligned, kept := alignCitations(text, citations)
	return &Output{Text: aligned, Citations: kept}, nil
}

func (a *Agent) search(tc *core.TurnContext, query string) ([]core.WebResult, error) {
	if a.searcher == nil {
		return nil, core.Unavailable("knowledge.search", errNoSearcher)
	}
	var results []core.WebResult
	err := core.CallWithRetry(tc.Context, a.opts.Retry, "knowledge.search", func(ctx context.Context) error {
		got, err := a.searcher.Search(ctx, query)
		if err != nil {
			return err
		}
		results = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Agent) format(tc *core.TurnContext, op, instructions, query string, citations []core.Citation) (string, error) {
	prompt, err := util.RenderTemplate(formatTemplate, map[string]any{
		"Query":   query,
		"Sources": numberedSources(citations),
	})
	if err != nil {
		return "", core.Unavailable(op, err)
	}
	return a.generateText(tc, op, model.Request{
		Instructions: instructions,
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

func (a *Agent) generateObject(tc *core.TurnContext, op string, req model.Request) (relevanceVerdict, error) {
	if err := tc.Limiter.Increment(); err != nil {
		return relevanceVerdict{}, core.Unavailable(op, err)
	}
	var verdict relevanceVerdict
	err := core.CallWithRetry(tc.Context, a.opts.Retry, op, func(ctx context.Context) error {
		got, err := model.GenerateObject[relevanceVerdict](ctx, a.model, req)
		if err != nil {
			return err
		}
		verdict = got
		return nil
	})
	return verdict, err
}

func joinCaveats(first, second string) string {
	if second == "" {
		return first
	}
	return first + " " + second
}
