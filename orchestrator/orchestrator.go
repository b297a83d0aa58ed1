// Package orchestrator owns the turn lifecycle: it routes each user message,
// delegates to the knowledge or summarizer agent (or answers directly),
// commits the finished turn to the thread, and compacts long histories.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/knowledge"
	"github.com/zephyrlab/triad/logging"
	"github.com/zephyrlab/triad/model"
	"github.com/zephyrlab/triad/summarizer"
)

// SummarizePrefix routes a turn straight to the summarizer; everything after
// the prefix is the document.
const SummarizePrefix = "SUMMARIZE DOCUMENT:\n\n"

// Options configures the orchestrator.
type Options struct {
	// RouterHistoryWindow is the number of trailing messages the routing call
	// sees.
	RouterHistoryWindow int
	// ComposeHistoryWindow is the number of trailing messages a direct answer
	// sees.
	ComposeHistoryWindow int
	// CompactThreshold triggers history compaction once the thread's content
	// exceeds this many characters. 0 disables compaction.
	CompactThreshold int
	// CompactKeepRecent is how many trailing messages survive compaction
	// verbatim.
	CompactKeepRecent int
	// MaxModelCallsPerTurn bounds the model calls a single turn may spend.
	// 0 means unlimited.
	MaxModelCallsPerTurn int
	// Retry governs the orchestrator's own model calls.
	Retry core.RetryPolicy
	// Logger receives structured pipeline logs.
	Logger logging.Logger
}

// Orchestrator coordinates agents over persistent threads. Turns on the same
// thread are serialized; turns on different threads run concurrently.
type Orchestrator struct {
	model      model.Model
	store      core.ThreadStore
	knowledge  *knowledge.Agent
	summarizer *summarizer.Agent
	opts       Options
	logger     logging.Logger
	calls      logging.CallLogger // non-nil when logger records call latencies

	lockMu      sync.Mutex
	threadLocks map[string]*threadLock
}

// threadLock is a refcounted per-thread mutex, removed from the map once the
// last holder releases it.
type threadLock struct {
	mu   sync.Mutex
	refs int
}

// New creates an orchestrator over the given capabilities. The knowledge and
// summarizer agents may be nil; their routes then degrade to direct answers.
func New(m model.Model, store core.ThreadStore, k *knowledge.Agent, s *summarizer.Agent, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		RouterHistoryWindow:  3,
		ComposeHistoryWindow: 10,
		CompactThreshold:     8_000,
		CompactKeepRecent:    2,
		Retry:                core.DefaultRetryPolicy,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	calls, _ := logger.(logging.CallLogger)
	return &Orchestrator{
		model:       m,
		store:       store,
		knowledge:   k,
		summarizer:  s,
		opts:        opts,
		logger:      logger,
		calls:       calls,
		threadLocks: make(map[string]*threadLock),
	}
}

// HandleTurn processes one user message on a thread and returns the finished
// assistant output. The turn is committed atomically: on success both the
// user message and the assistant reply are appended; on failure neither is.
func (o *Orchestrator) HandleTurn(ctx context.Context, threadID, input string) (*core.AssistantOutput, error) {
	input = strings.TrimRight(input, " \t\n")
	if strings.TrimSpace(input) == "" {
		return nil, core.Rejected("orchestrator.turn", "empty input")
	}

	unlock := o.lockThread(threadID)
	defer unlock()

	tc, err := o.beginTurn(ctx, threadID, input)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := o.dispatch(tc)
	o.logStage("dispatch", start, err)
	if err != nil {
		o.logger.Error("orchestrator: turn failed", "thread_id", threadID, "turn_id", tc.TurnID,
			"kind", core.KindOf(err).String(), "error", err)
		return nil, err
	}

	if err := o.commitTurn(tc, out); err != nil {
		return nil, err
	}
	o.maybeCompact(ctx, threadID)
	return out, nil
}

// HandleTurnStream is the streaming variant of HandleTurn. Direct answers
// stream token deltas; delegated routes emit the finished text as one delta.
// The final StreamChunk carries the complete output; the error channel yields
// at most one error, after which the chunk channel is closed.
func (o *Orchestrator) HandleTurnStream(ctx context.Context, threadID, input string) (<-chan core.StreamChunk, <-chan error) {
	chunks := make(chan core.StreamChunk, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errCh)

		input := strings.TrimRight(input, " \t\n")
		if strings.TrimSpace(input) == "" {
			errCh <- core.Rejected("orchestrator.turn", "empty input")
			return
		}

		unlock := o.lockThread(threadID)
		defer unlock()

		tc, err := o.beginTurn(ctx, threadID, input)
		if err != nil {
			errCh <- err
			return
		}

		start := time.Now()
		var out *core.AssistantOutput
		if doc, ok := strings.CutPrefix(input, SummarizePrefix); ok {
			out, err = o.dispatchSummarize(tc, doc)
		} else {
			var decision core.RoutingDecision
			decision, err = o.route(tc)
			if err == nil {
				switch decision {
				case core.RouteKnowledge:
					out, err = o.dispatchKnowledge(tc)
				case core.RouteSummarize:
					out, err = o.dispatchSummarize(tc, tc.Input)
				default:
					out, err = o.composeDirectStream(tc, chunks)
				}
			}
		}
		o.logStage("dispatch", start, err)
		if err != nil {
			errCh <- err
			return
		}
		if out.Route != core.RouteDirect {
			chunks <- core.StreamChunk{Delta: out.Text}
		}

		if err := o.commitTurn(tc, out); err != nil {
			errCh <- err
			return
		}
		o.maybeCompact(ctx, threadID)
		chunks <- core.StreamChunk{Final: out}
	}()

	return chunks, errCh
}

// beginTurn snapshots the thread history into a fresh TurnContext.
func (o *Orchestrator) beginTurn(ctx context.Context, threadID, input string) (*core.TurnContext, error) {
	th, err := o.store.Get(threadID)
	if err != nil {
		return nil, core.Unavailable("orchestrator.turn", err)
	}
	tc := core.NewTurnContext(ctx, threadID, input, th.History(), o.opts.MaxModelCallsPerTurn, o.logger)
	o.logger.Debug("orchestrator: turn started", "thread_id", threadID, "turn_id", tc.TurnID,
		"history_len", len(tc.History))
	return tc, nil
}

// dispatch runs the routing decision and the chosen pipeline.
func (o *Orchestrator) dispatch(tc *core.TurnContext) (*core.AssistantOutput, error) {
	if doc, ok := strings.CutPrefix(tc.Input, SummarizePrefix); ok {
		return o.dispatchSummarize(tc, doc)
	}
	return o.dispatchRouted(tc)
}

func (o *Orchestrator) dispatchRouted(tc *core.TurnContext) (*core.AssistantOutput, error) {
	decision, err := o.route(tc)
	if err != nil {
		return nil, err
	}
	switch decision {
	case core.RouteKnowledge:
		return o.dispatchKnowledge(tc)
	case core.RouteSummarize:
		// The model routed here without the explicit prefix; the whole input
		// is treated as the document.
		return o.dispatchSummarize(tc, tc.Input)
	default:
		return o.composeDirect(tc)
	}
}

func (o *Orchestrator) dispatchKnowledge(tc *core.TurnContext) (*core.AssistantOutput, error) {
	if o.knowledge == nil {
		return o.composeDirect(tc)
	}
	ans, err := o.knowledge.Answer(tc)
	if err != nil {
		return nil, err
	}
	return &core.AssistantOutput{
		Text:      ans.Text,
		Route:     core.RouteKnowledge,
		Citations: ans.Citations,
		Degraded:  ans.Degraded,
		Caveat:    ans.Caveat,
	}, nil
}

func (o *Orchestrator) dispatchSummarize(tc *core.TurnContext, doc string) (*core.AssistantOutput, error) {
	if o.summarizer == nil {
		return nil, core.Rejected("orchestrator.turn", "summarization is not configured")
	}
	res, err := o.summarizer.Summarize(tc, doc)
	if err != nil {
		return nil, err
	}
	out := &core.AssistantOutput{Text: res.Text, Route: core.RouteSummarize, Stats: &res.Stats}
	if len(res.Stats.OmittedChunks) > 0 {
		out.Degraded = true
		out.Caveat = summaryCaveat(res.Stats.OmittedChunks)
	}
	return out, nil
}

// commitTurn appends the user message and the assistant reply in a single
// store operation, so a failing commit leaves the thread untouched.
func (o *Orchestrator) commitTurn(tc *core.TurnContext, out *core.AssistantOutput) error {
	err := o.store.Append(tc.ThreadID,
		core.NewUserMessage(tc.Input), core.NewAssistantMessage(out.Text))
	if err != nil {
		return core.Unavailable("orchestrator.commit", err)
	}
	o.logger.Info("orchestrator: turn committed", "thread_id", tc.ThreadID, "turn_id", tc.TurnID,
		"route", string(out.Route), "degraded", out.Degraded, "model_calls", tc.Limiter.Count())
	return nil
}

// logStage records stage latency when the logger implements CallLogger.
func (o *Orchestrator) logStage(stage string, start time.Time, err error) {
	if o.calls == nil {
		return
	}
	o.calls.LogStage("orchestrator", stage, time.Since(start), err == nil, err)
}

// logModelCall records model call latency when the logger implements CallLogger.
func (o *Orchestrator) logModelCall(start time.Time, err error) {
	if o.calls == nil {
		return
	}
	o.calls.LogModelCall(o.model.Info().Name, time.Since(start), err == nil, err)
}

// lockThread serializes turns per thread id. The returned release also drops
// the lock's map entry once no turn holds or waits for it, so the map stays
// bounded by the number of in-flight threads.
func (o *Orchestrator) lockThread(threadID string) func() {
	o.lockMu.Lock()
	lock, ok := o.threadLocks[threadID]
	if !ok {
		lock = &threadLock{}
		o.threadLocks[threadID] = lock
	}
	lock.refs++
	o.lockMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		o.lockMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(o.threadLocks, threadID)
		}
		o.lockMu.Unlock()
	}
}
