package adapters

import (
	"context"
	"fmt"

	"github.com/cryptofunk/engine/internal/planner"
	"github.com/cryptofunk/engine/internal/temporal"
)

// TaskRunner wires the planner's named research tasks to the temporal
// gateway's boundary-enforced adapter reads, producing the per-source
// sentiment readings the researcher node folds into planner.Aggregator.
// Grounded on original_source/core/agents/planner.py's execute_plan, which
// dispatches each task name to a concrete data-gathering coroutine.
type TaskRunner struct {
	gateway *temporal.Gateway
}

// NewTaskRunner constructs a TaskRunner over gateway.
func NewTaskRunner(gateway *temporal.Gateway) *TaskRunner {
	return &TaskRunner{gateway: gateway}
}

// Execute satisfies planner.TaskFunc, dispatching by task name.
func (r *TaskRunner) Execute(ctx context.Context, task *planner.Task) (map[string]any, error) {
	switch task.Name {
	case "task_sentiment":
		return r.sentiment(ctx, task)
	case "task_onchain":
		return r.onchain(ctx, task)
	case "task_technical", "task_momentum", "task_correlation":
		return r.technical(ctx, task)
	case "task_macro":
		return r.macro(ctx, task)
	case "task_liquidity":
		return r.liquidity(ctx, task)
	case "task_patterns", "task_keywords":
		return r.news(ctx, task)
	default:
		return nil, fmt.Errorf("adapters: unknown task %q", task.Name)
	}
}

func (r *TaskRunner) sentiment(ctx context.Context, task *planner.Task) (map[string]any, error) {
	symbol := task.Symbol
	news, err := r.gateway.SearchNews(ctx, symbol, []string{symbol}, 10)
	if err != nil {
		return nil, fmt.Errorf("sentiment task: news: %w", err)
	}
	reading, err := r.gateway.GetSentiment(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("sentiment task: sentiment: %w", err)
	}
	score := 0.0
	if reading != nil {
		score = reading.Score
	}
	return map[string]any{
		"news":       score,
		"social":     score,
		"news_count": len(news),
	}, nil
}

func (r *TaskRunner) onchain(ctx context.Context, task *planner.Task) (map[string]any, error) {
	reports, err := r.gateway.GetFinancials(ctx, task.Symbol, "onchain_metrics")
	if err != nil {
		return nil, fmt.Errorf("onchain task: %w", err)
	}
	score := 0.0
	if len(reports) > 0 {
		if v, ok := reports[0].Data["sentiment"].(float64); ok {
			score = v
		}
	}
	return map[string]any{"onchain": score, "report_count": len(reports)}, nil
}

func (r *TaskRunner) technical(ctx context.Context, task *planner.Task) (map[string]any, error) {
	bars, err := r.gateway.GetOHLCV(ctx, task.Symbol, "1h", 100)
	if err != nil {
		return nil, fmt.Errorf("technical task: %w", err)
	}
	return map[string]any{"bar_count": len(bars)}, nil
}

func (r *TaskRunner) macro(ctx context.Context, task *planner.Task) (map[string]any, error) {
	reports, err := r.gateway.GetFinancials(ctx, task.Symbol, "macro")
	if err != nil {
		return nil, fmt.Errorf("macro task: %w", err)
	}
	return map[string]any{"report_count": len(reports)}, nil
}

func (r *TaskRunner) liquidity(ctx context.Context, task *planner.Task) (map[string]any, error) {
	reports, err := r.gateway.GetFinancials(ctx, task.Symbol, "liquidity")
	if err != nil {
		return nil, fmt.Errorf("liquidity task: %w", err)
	}
	return map[string]any{"report_count": len(reports)}, nil
}

func (r *TaskRunner) news(ctx context.Context, task *planner.Task) (map[string]any, error) {
	items, err := r.gateway.SearchNews(ctx, task.Symbol, []string{task.Symbol}, 20)
	if err != nil {
		return nil, fmt.Errorf("news task: %w", err)
	}
	return map[string]any{"news_count": len(items)}, nil
}
