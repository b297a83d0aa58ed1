package core

import (
	"context"

	"github.com/zephyrlab/triad/logging"
)

// TurnContext carries the per-turn execution scope handed to the agent
// pipelines. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (ThreadID, TurnID)
//   - The raw user input for this turn
//   - An immutable history snapshot taken when the turn started
//   - The shared per-turn model call limiter
//
// Everything an agent derives from it (refined queries, retrieved passages,
// chunk plans, per-chunk summaries) is scoped to the turn and discarded when
// the turn completes; only the orchestrator writes back to the thread store.
type TurnContext struct {
	Context  context.Context
	ThreadID string
	TurnID   string
	Input    string
	History  []Message
	Limiter  *CallLimiter

	*loggerAdapter
}

// NewTurnContext constructs a TurnContext around an immutable history
// snapshot. maxModelCalls of 0 means unlimited.
func NewTurnContext(
	ctx context.Context,
	threadID string,
	input string,
	history []Message,
	maxModelCalls int,
	logger logging.Logger,
) *TurnContext {
	snapshot := make([]Message, len(history))
	copy(snapshot, history)
	return &TurnContext{
		Context:       ctx,
		ThreadID:      threadID,
		TurnID:        NewID(),
		Input:         input,
		History:       snapshot,
		Limiter:       NewCallLimiter(maxModelCalls),
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done mirrors context.Context's Done.
func (tc *TurnContext) Done() <-chan struct{} { return tc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (tc *TurnContext) Err() error { return tc.Context.Err() }

// RecentHistory returns at most n trailing messages from the snapshot.
func (tc *TurnContext) RecentHistory(n int) []Message {
	return RecentMessages(tc.History, n, false)
}
