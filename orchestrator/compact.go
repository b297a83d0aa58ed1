package orchestrator

import (
	"context"
	"strings"

	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/internal/util"
	"github.com/zephyrlab/triad/model"
)

// maybeCompact replaces older history with a single summary message once the
// thread grows past the character threshold. The last KeepRecent messages
// survive verbatim; an existing summary message at the head is extended
// rather than stacked. Compaction is best effort: failures are logged and the
// thread is left as it was.
func (o *Orchestrator) maybeCompact(ctx context.Context, threadID string) {
	if o.opts.CompactThreshold <= 0 {
		return
	}
	th, err := o.store.Get(threadID)
	if err != nil {
		o.logger.Warn("orchestrator: compaction skipped, thread fetch failed", "thread_id", threadID, "error", err)
		return
	}
	history := th.History()
	if core.HistorySize(history) <= o.opts.CompactThreshold {
		return
	}
	keep := o.opts.CompactKeepRecent
	if keep < 1 {
		keep = 1
	}
	// Nothing older than the kept tail to fold away.
	if len(history) <= keep+1 {
		return
	}

	older := history[:len(history)-keep]
	priorSummary := ""
	if older[0].Synthetic {
		priorSummary = strings.TrimPrefix(older[0].Content, core.SummaryPrefix)
		older = older[1:]
	}
	if len(older) == 0 {
		return
	}

	prompt, err := util.RenderTemplate(compactTemplate, map[string]any{
		"PriorSummary": priorSummary,
		"Messages":     core.FormatHistory(older),
	})
	if err != nil {
		o.logger.Warn("orchestrator: compaction prompt failed", "thread_id", threadID, "error", err)
		return
	}

	var summary string
	err = core.CallWithRetry(ctx, o.opts.Retry, "orchestrator.compact", func(ctx context.Context) error {
		got, err := model.GenerateText(ctx, o.model, model.Request{
			Instructions: compactInstructions,
			Messages:     []core.Message{core.NewUserMessage(prompt)},
		})
		if err != nil {
			return err
		}
		summary = got
		return nil
	})
	if err != nil {
		o.logger.Warn("orchestrator: compaction failed, keeping full history", "thread_id", threadID, "error", err)
		return
	}

	if err := o.store.ReplaceRange(threadID, 0, len(history)-keep, core.NewSummaryMessage(summary)); err != nil {
		o.logger.Warn("orchestrator: compaction write failed", "thread_id", threadID, "error", err)
		return
	}
	o.logger.Debug("orchestrator: compacted history", "thread_id", threadID,
		"folded", len(history)-keep, "kept", keep)
}
