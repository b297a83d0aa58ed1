package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/model"
)

// composeDirect answers the turn from conversation context alone.
func (o *Orchestrator) composeDirect(tc *core.TurnContext) (*core.AssistantOutput, error) {
	text, err := o.generateText(tc, "orchestrator.compose", o.directRequest(tc))
	if err != nil {
		return nil, err
	}
	return &core.AssistantOutput{Text: text, Route: core.RouteDirect}, nil
}

// composeDirectStream streams the direct answer token by token. The returned
// output carries the accumulated final text.
func (o *Orchestrator) composeDirectStream(tc *core.TurnContext, deltas chan<- core.StreamChunk) (*core.AssistantOutput, error) {
	if err := tc.Limiter.Increment(); err != nil {
		return nil, core.Unavailable("orchestrator.compose", err)
	}

	req := o.directRequest(tc)
	req.Stream = true
	respCh, errCh := o.model.Generate(tc.Context, req)

	var final string
	for resp := range respCh {
		if resp.Partial {
			select {
			case deltas <- core.StreamChunk{Delta: resp.Text}:
			case <-tc.Done():
				return nil, core.Unavailable("orchestrator.compose", tc.Err())
			}
			continue
		}
		final = resp.Text
	}
	if err := <-errCh; err != nil {
		return nil, core.Unavailable("orchestrator.compose", err)
	}
	return &core.AssistantOutput{Text: final, Route: core.RouteDirect}, nil
}

func (o *Orchestrator) directRequest(tc *core.TurnContext) model.Request {
	messages := append(tc.RecentHistory(o.opts.ComposeHistoryWindow), core.NewUserMessage(tc.Input))
	return model.Request{Instructions: directInstructions, Messages: messages}
}

func (o *Orchestrator) generateText(tc *core.TurnContext, op string, req model.Request) (string, error) {
	if err := tc.Limiter.Increment(); err != nil {
		return "", core.Unavailable(op, err)
	}
	var text string
	start := time.Now()
	err := core.CallWithRetry(tc.Context, o.opts.Retry, op, func(ctx context.Context) error {
		got, err := model.GenerateText(ctx, o.model, req)
		if err != nil {
			return err
		}
		text = got
		return nil
	})
	o.logModelCall(start, err)
	if err != nil {
		return "", err
	}
	return text, nil
}

// summaryCaveat describes omitted chunks for a degraded summarization turn.
func summaryCaveat(omitted []int) string {
	return fmt.Sprintf("%d of the document's sections could not be summarized and were omitted.", len(omitted))
}
