package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cryptofunk/engine/internal/planner"
	"github.com/cryptofunk/engine/internal/state"
)

// researcherNode runs the planner's task graph and reduces the resulting
// per-source readings into a single sentiment score. Grounded on
// original_source/core/agents/orchestrator.py's _researcher_node, which
// delegates to PlanningAgent.create_plan + execute_plan and
// ResearchAggregator.
func researcherNode(ctx context.Context, deps *Deps, s *state.DecisionState) (state.Patch, error) {
	if deps == nil || deps.Planner == nil {
		gaps := append([]string{}, deps.validationSources()...)
		summary := "no planner configured; research skipped"
		return state.Patch{
			ResearchSummary: &summary,
			DataGaps:        gaps,
			IncrIteration:   true,
		}, nil
	}

	tasks, batches := deps.Planner.Plan(s.Symbol, deps.RiskProfile)
	if err := deps.Planner.Run(ctx, tasks, batches); err != nil {
		return state.Patch{}, fmt.Errorf("researcher: %w", err)
	}

	readings := make(map[planner.Source]float64)
	execResults := make(map[string]any, len(tasks))
	var completed []string
	var gaps []string
	var summaryLines []string

	for _, task := range tasks {
		execResults[task.Name] = map[string]any{
			"status": string(task.Status),
			"result": task.Result,
		}
		summaryLines = append(summaryLines, fmt.Sprintf("%s: %s", task.Name, task.Status))

		if task.Status != planner.StatusCompleted {
			for _, src := range task.DataSources {
				gaps = append(gaps, src)
			}
			continue
		}
		completed = append(completed, task.ID)

		if v, ok := floatField(task.Result, "news"); ok {
			readings[planner.SourceNews] = v
		}
		if v, ok := floatField(task.Result, "social"); ok {
			readings[planner.SourceSocial] = v
		}
		if v, ok := floatField(task.Result, "onchain"); ok {
			readings[planner.SourceOnChain] = v
		}
	}

	sentiment := 0.0
	if deps.Aggregator != nil {
		sentiment = deps.Aggregator.Reduce(readings)
	}

	summary := strings.Join(summaryLines, "; ")
	msg := state.Message{Role: "researcher", Content: summary}

	return state.Patch{
		Message:              &msg,
		ResearchSummary:      &summary,
		ResearchData:         execResults,
		SentimentScore:       &sentiment,
		DataGaps:             dedupe(gaps),
		CompletedTaskIDs:     completed,
		TaskExecutionResults: execResults,
		IncrIteration:        true,
	}, nil
}

func floatField(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (d *Deps) validationSources() []string {
	if d == nil || len(d.Validation.RequiredDataSources) == 0 {
		return defaultValidationConfig().RequiredDataSources
	}
	return d.Validation.RequiredDataSources
}

// validatorNode scores data completeness against the required source
// list and decides pass/fail against the configured threshold. Grounded
// on original_source/core/agents/orchestrator.py's validator step plus
// the decided Open Question (validation_passed = score >= threshold,
// rather than "no data gaps" — see DESIGN.md).
func validatorNode(ctx context.Context, deps *Deps, s *state.DecisionState) (state.Patch, error) {
	required := deps.validationSources()
	gapSet := make(map[string]bool, len(s.DataGaps))
	for _, g := range s.DataGaps {
		gapSet[g] = true
	}

	present := 0
	checks := make(map[string]any, len(required))
	for _, src := range required {
		ok := !gapSet[src]
		checks[src] = ok
		if ok {
			present++
		}
	}

	score := 0.0
	if len(required) > 0 {
		score = float64(present) / float64(len(required))
	}

	threshold := deps.Validation.Threshold
	if threshold <= 0 {
		threshold = defaultValidationConfig().Threshold
	}
	passed := score >= threshold

	msg := state.Message{Role: "validator", Content: fmt.Sprintf("validation score %.2f (threshold %.2f)", score, threshold)}

	return state.Patch{
		Message:          &msg,
		ValidationScore:  &score,
		ValidationPassed: &passed,
		ValidationChecks: checks,
	}, nil
}
