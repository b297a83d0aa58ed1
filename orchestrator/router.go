package orchestrator

import (
	"context"
	"time"

	"github.com/zephyrlab/triad/core"
	"github.com/zephyrlab/triad/internal/util"
	"github.com/zephyrlab/triad/model"
)

// routeVerdict is the structured routing response.
type routeVerdict struct {
	Route      string  `json:"route"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// route decides which handler takes the turn. Unparseable routing output
// resolves to RouteDirect so a confused router never drops a turn; a routing
// call that stays unavailable after retries fails the turn instead.
func (o *Orchestrator) route(tc *core.TurnContext) (core.RoutingDecision, error) {
	prompt, err := util.RenderTemplate(routeTemplate, map[string]any{
		"History": core.FormatHistory(tc.RecentHistory(o.opts.RouterHistoryWindow)),
		"Input":   tc.Input,
	})
	if err != nil {
		return core.RouteDirect, nil
	}

	if err := tc.Limiter.Increment(); err != nil {
		return "", core.Unavailable("orchestrator.route", err)
	}
	var verdict routeVerdict
	start := time.Now()
	err = core.CallWithRetry(tc.Context, o.opts.Retry, "orchestrator.route", func(ctx context.Context) error {
		got, err := model.GenerateObject[routeVerdict](ctx, o.model, model.Request{
			Instructions: routeInstructions,
			Messages:     []core.Message{core.NewUserMessage(prompt)},
			SchemaName:   "route_verdict",
		})
		if err != nil {
			return err
		}
		verdict = got
		return nil
	})
	o.logModelCall(start, err)
	if err != nil {
		if core.KindOf(err) == core.KindMalformed {
			tc.LogWarn("orchestrator: routing output unparseable, defaulting to direct",
				"turn_id", tc.TurnID, "error", err)
			return core.RouteDirect, nil
		}
		return "", err
	}

	decision := core.ParseRoute(verdict.Route)
	tc.LogDebug("orchestrator: routed", "turn_id", tc.TurnID,
		"route", string(decision), "confidence", verdict.Confidence)
	return decision, nil
}
