package planner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// TaskFunc performs the actual data-gathering for one task.
type TaskFunc func(ctx context.Context, task *Task) (map[string]any, error)

// Config controls Planner construction.
type Config struct {
	MaxParallelTasks int
	ParallelEnabled  bool
	Execute          TaskFunc

	// IncludeOptionalTasks gates the pattern/keyword research tasks,
	// independently of risk profile. Defaults to true, matching the
	// original's PlanningAgent `include_optional_tasks` config default.
	IncludeOptionalTasks *bool

	// MaxResearchTime bounds the cumulative wall-clock time Run spends
	// executing batches; once exceeded, every task not yet started is
	// skipped rather than begun. Zero disables the budget.
	MaxResearchTime time.Duration
}

// Planner builds and runs the research task graph for a symbol.
type Planner struct {
	maxParallel          int
	parallel             bool
	includeOptionalTasks bool
	maxResearchTime      time.Duration
	execute              TaskFunc
	log                  zerolog.Logger
}

// New constructs a Planner. maxParallel defaults to 3, matching the
// original's max_parallel_tasks=3 default. parallel is cfg.ParallelEnabled
// as given, so it is off when unset; the true default for
// planner.parallel_enabled comes from internal/config. IncludeOptionalTasks defaults to true
// when unset, matching the original's include_optional_tasks default.
func New(cfg Config) *Planner {
	maxParallel := cfg.MaxParallelTasks
	if maxParallel <= 0 {
		maxParallel = 3
	}
	includeOptional := true
	if cfg.IncludeOptionalTasks != nil {
		includeOptional = *cfg.IncludeOptionalTasks
	}
	return &Planner{
		maxParallel:          maxParallel,
		parallel:             cfg.ParallelEnabled,
		includeOptionalTasks: includeOptional,
		maxResearchTime:      cfg.MaxResearchTime,
		execute:              cfg.Execute,
		log:                  log.With().Str("component", "research_planner").Logger(),
	}
}

// Plan builds the task set and its execution batches for symbol.
func (p *Planner) Plan(symbol string, profile RiskProfile) (tasks []*Task, batches []ExecutionBatch) {
	tasks = CreatePlan(symbol, profile, p.includeOptionalTasks)
	batches = ExecutionOrder(tasks, p.maxParallel, p.parallel)
	return tasks, batches
}

// Run executes batches in order, fanning each batch out with an errgroup
// capped at the batch size, and propagating SKIPPED status to any task
// whose dependency failed rather than attempting to execute it. Once the
// cumulative elapsed time since Run started exceeds the configured
// MaxResearchTime, every task not yet started in a later batch is skipped
// rather than begun, matching the original's research-budget exit
// condition (distinct from each task's own per-task timeout).
func (p *Planner) Run(ctx context.Context, tasks []*Task, batches []ExecutionBatch) error {
	failed := make(map[string]bool)
	var mu sync.Mutex
	start := time.Now()

	for _, batch := range batches {
		if p.maxResearchTime > 0 && time.Since(start) > p.maxResearchTime {
			for _, task := range batch {
				task.markSkipped()
				p.log.Warn().Str("task", task.Name).Msg("skipped: research time budget exceeded")
			}
			continue
		}

		g, gctx := errgroup.WithContext(ctx)

		for _, task := range batch {
			task := task

			mu.Lock()
			dependencyFailed := false
			for _, dep := range task.Dependencies {
				if failed[dep] {
					dependencyFailed = true
					break
				}
			}
			mu.Unlock()

			if dependencyFailed {
				task.markSkipped()
				mu.Lock()
				failed[task.ID] = true
				mu.Unlock()
				p.log.Warn().Str("task", task.Name).Msg("skipped: upstream dependency failed")
				continue
			}

			g.Go(func() error {
				return p.runOne(gctx, task, &mu, failed)
			})
		}

		// errgroup aggregates the first error but task-level failures are
		// recorded on the Task itself and never abort sibling tasks; Wait
		// only surfaces context cancellation.
		if err := g.Wait(); err != nil && ctx.Err() != nil {
			return err
		}
	}
	return nil
}

func (p *Planner) runOne(ctx context.Context, task *Task, mu *sync.Mutex, failed map[string]bool) error {
	task.markStarted()

	timeout := task.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := p.execute(tctx, task)
	if err != nil {
		task.markFailed(err)
		mu.Lock()
		failed[task.ID] = true
		mu.Unlock()
		p.log.Error().Err(err).Str("task", task.Name).Msg("research task failed")
		return nil
	}

	task.markCompleted(result)
	return nil
}
