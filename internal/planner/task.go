// Package planner builds and executes the per-symbol research task graph:
// a priority-ordered, dependency-aware set of data-gathering tasks batched
// into parallel execution waves, plus the weighted aggregation of their
// results into a single sentiment signal.
//
// Grounded on original_source/core/agents/planner.py.
package planner

import (
	"time"

	"github.com/google/uuid"
)

// Priority mirrors the original's TaskPriority enum; lower values run
// first within a batch.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Task is one unit of research work: a named data-gathering step with a
// priority, declared dependencies, and a cost/timeout budget.
type Task struct {
	ID           string
	Symbol       string
	Name         string
	Priority     Priority
	DataSources  []string
	Dependencies []string
	Cost         float64
	Timeout      time.Duration

	Status    Status
	Result    map[string]any
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

func newTask(symbol, name string, priority Priority, sources []string, cost float64, timeout time.Duration, deps ...string) *Task {
	return &Task{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Name:         name,
		Priority:     priority,
		DataSources:  sources,
		Dependencies: deps,
		Cost:         cost,
		Timeout:      timeout,
		Status:       StatusPending,
	}
}

func (t *Task) markStarted() {
	t.Status = StatusInProgress
	t.StartedAt = time.Now().UTC()
}

func (t *Task) markCompleted(result map[string]any) {
	t.Status = StatusCompleted
	t.Result = result
	t.EndedAt = time.Now().UTC()
}

func (t *Task) markFailed(err error) {
	t.Status = StatusFailed
	t.Err = err
	t.EndedAt = time.Now().UTC()
}

func (t *Task) markSkipped() {
	t.Status = StatusSkipped
	t.EndedAt = time.Now().UTC()
}

// RiskProfile selects which optional tasks CreatePlan includes, matching
// the original's risk_profile parameter.
type RiskProfile string

const (
	RiskProfileConservative RiskProfile = "conservative"
	RiskProfileModerate     RiskProfile = "moderate"
	RiskProfileAggressive   RiskProfile = "aggressive"
)

// CreatePlan builds the task set for symbol under the given risk profile.
// The base set (sentiment, onchain, technical, macro) always runs; the
// profile adds liquidity/correlation (conservative) or momentum
// (aggressive). includeOptionalTasks independently gates the pattern/
// keyword tasks, matching the original's PlanningAgent-level
// `include_optional_tasks` config flag (default true), which is set once
// at agent construction and is orthogonal to the per-call risk_profile.
func CreatePlan(symbol string, profile RiskProfile, includeOptionalTasks bool) []*Task {
	sentiment := newTask(symbol, "task_sentiment", PriorityCritical, []string{"news", "social", "fear_greed"}, 0.05, 30*time.Second)
	onchain := newTask(symbol, "task_onchain", PriorityCritical, []string{"onchain"}, 0.03, 20*time.Second)
	technical := newTask(symbol, "task_technical", PriorityCritical, []string{"technical"}, 0.02, 15*time.Second)
	macro := newTask(symbol, "task_macro", PriorityHigh, []string{"macro"}, 0.03, 20*time.Second)

	tasks := []*Task{sentiment, onchain, technical, macro}

	switch profile {
	case RiskProfileConservative:
		tasks = append(tasks,
			newTask(symbol, "task_liquidity", PriorityHigh, []string{"onchain", "technical"}, 0.02, 15*time.Second),
			newTask(symbol, "task_correlation", PriorityMedium, []string{"technical"}, 0.02, 15*time.Second, technical.ID),
		)
	case RiskProfileAggressive:
		tasks = append(tasks,
			newTask(symbol, "task_momentum", PriorityHigh, []string{"technical"}, 0.02, 15*time.Second, technical.ID),
		)
	}

	if includeOptionalTasks {
		tasks = append(tasks,
			newTask(symbol, "task_patterns", PriorityMedium, []string{"technical"}, 0.02, 15*time.Second, technical.ID),
			newTask(symbol, "task_keywords", PriorityLow, []string{"news", "social"}, 0.01, 10*time.Second, sentiment.ID),
		)
	}

	return tasks
}

// ExecutionBatch is one wave of tasks that may run concurrently.
type ExecutionBatch []*Task

// ExecutionOrder partitions tasks into dependency-respecting batches:
// repeatedly collect tasks whose dependencies are all already scheduled,
// sort the ready set by priority ascending, and cap each batch at
// maxParallel. If parallel execution is disabled, each batch holds a
// single task. A cycle (no task becomes ready) dumps all remaining tasks
// into one final batch, matching the original's defensive fallback.
func ExecutionOrder(tasks []*Task, maxParallel int, parallel bool) []ExecutionBatch {
	byID := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	scheduled := make(map[string]bool, len(tasks))
	remaining := make([]*Task, len(tasks))
	copy(remaining, tasks)

	var batches []ExecutionBatch
	for len(remaining) > 0 {
		var ready []*Task
		var notReady []*Task
		for _, t := range remaining {
			if dependenciesSatisfied(t, scheduled) {
				ready = append(ready, t)
			} else {
				notReady = append(notReady, t)
			}
		}

		if len(ready) == 0 {
			// Cycle: nothing became ready. Dump everything remaining as
			// one final batch rather than looping forever.
			batches = append(batches, ExecutionBatch(remaining))
			break
		}

		sortByPriority(ready)

		batchSize := len(ready)
		if parallel && maxParallel > 0 && batchSize > maxParallel {
			batchSize = maxParallel
		} else if !parallel {
			batchSize = 1
		}

		batch := ready[:batchSize]
		leftover := ready[batchSize:]

		batches = append(batches, ExecutionBatch(batch))
		for _, t := range batch {
			scheduled[t.ID] = true
		}

		remaining = append(append([]*Task{}, leftover...), notReady...)
	}

	return batches
}

func dependenciesSatisfied(t *Task, scheduled map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if !scheduled[dep] {
			return false
		}
	}
	return true
}

func sortByPriority(tasks []*Task) {
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && tasks[j].Priority < tasks[j-1].Priority; j-- {
			tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
		}
	}
}

// EstimateParallelTime sums the slowest task's timeout per batch,
// matching the original's _estimate_parallel_time.
func EstimateParallelTime(batches []ExecutionBatch) time.Duration {
	var total time.Duration
	for _, batch := range batches {
		var slowest time.Duration
		for _, t := range batch {
			if t.Timeout > slowest {
				slowest = t.Timeout
			}
		}
		total += slowest
	}
	return total
}
