// Package triad provides a high-level façade over the orchestrator and its
// capability services (model backends, thread store, retrieval, web search &
// logging) for building a routed multi-agent assistant. Most applications
// interact with this package by:
//  1. Creating a Triad via New() (optionally overriding default in-memory services)
//  2. Seeding the knowledge base through the configured retriever
//  3. Handling turns synchronously (HandleTurn) or streamed (HandleTurnStream)
//
// The façade delegates the turn lifecycle to orchestrator.Orchestrator while
// keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a real
// model backend, a durable thread store and a structured logger.
package triad

import (
	"context"

	"github.com/zephyrlab/triad/config"
	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/knowledge"
	"github.com/zephyrlab/triad/logging"
	"github.com/zephyrlab/triad/model"
	"github.com/zephyrlab/triad/orchestrator"
	"github.com/zephyrlab/triad/retrieval"
	"github.com/zephyrlab/triad/summarizer"
	"github.com/zephyrlab/triad/thread"
)

// Options configures the Triad instance.
type Options struct {
	// Settings holds the pipeline tunables. Defaults to config.Defaults().
	Settings config.Settings

	// Model is the backend powering every agent. Defaults to a MockModel,
	// which is only useful for tests.
	Model model.Model

	// ThreadStore persists conversations (defaults to in-memory).
	ThreadStore core.ThreadStore

	// Retriever serves the internal knowledge base (defaults to an empty
	// in-memory index).
	Retriever core.Retriever

	// Searcher is the external web search fallback. Nil disables it; the
	// knowledge agent then degrades to uncited answers.
	Searcher core.WebSearcher

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Triad is the high-level façade aggregating the orchestrator and services.
type Triad struct {
	opts         Options
	orchestrator *orchestrator.Orchestrator
}

// New creates a Triad instance with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Triad {
	opts := Options{
		Settings:    config.Defaults(),
		ThreadStore: thread.NewInMemoryStore(),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == nil {
		opts.Model = model.NewMockModel("mock", "mock")
	}
	if opts.Retriever == nil {
		opts.Retriever = retrieval.NewInMemoryRetriever()
	}

	retry := core.RetryPolicy{
		MaxAttempts:     opts.Settings.RetryMaxAttempts,
		InitialInterval: opts.Settings.RetryInitialInterval,
		CallTimeout:     opts.Settings.CallTimeout,
	}

	k := knowledge.New(opts.Model, opts.Retriever, opts.Searcher, func(o *knowledge.Options) {
		o.RetrieveK = opts.Settings.RetrieveK
		o.RelevanceThreshold = opts.Settings.RelevanceThreshold
		o.HistoryWindow = opts.Settings.RouterHistoryWindow
		o.Retry = retry
	})
	s := summarizer.New(opts.Model, func(o *summarizer.Options) {
		o.MaxDocumentChars = opts.Settings.MaxDocumentChars
		o.SingleChunkChars = opts.Settings.SingleChunkChars
		o.MaxChunks = opts.Settings.MaxChunks
		o.Retry = retry
	})
	orch := orchestrator.New(opts.Model, opts.ThreadStore, k, s, func(o *orchestrator.Options) {
		o.RouterHistoryWindow = opts.Settings.RouterHistoryWindow
		o.ComposeHistoryWindow = opts.Settings.ComposeHistoryWindow
		o.CompactThreshold = opts.Settings.CompactThreshold
		o.CompactKeepRecent = opts.Settings.CompactKeepRecent
		o.MaxModelCallsPerTurn = opts.Settings.MaxModelCallsPerTurn
		o.Retry = retry
		o.Logger = opts.Logger
	})

	return &Triad{opts: opts, orchestrator: orch}
}

// HandleTurn processes one user message on a thread and returns the finished
// assistant output.
func (t *Triad) HandleTurn(ctx context.Context, threadID, input string) (*core.AssistantOutput, error) {
	return t.orchestrator.HandleTurn(ctx, threadID, input)
}

// HandleTurnStream processes one user message and streams the answer. The
// final StreamChunk carries the complete output.
func (t *Triad) HandleTurnStream(ctx context.Context, threadID, input string) (<-chan core.StreamChunk, <-chan error) {
	return t.orchestrator.HandleTurnStream(ctx, threadID, input)
}

// Summarize is a convenience wrapper that routes straight to the document
// summarizer by prefixing the input.
func (t *Triad) Summarize(ctx context.Context, threadID, document string) (*core.AssistantOutput, error) {
	return t.orchestrator.HandleTurn(ctx, threadID, orchestrator.SummarizePrefix+document)
}
