package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllTasksCompleteOnSuccess(t *testing.T) {
	p := New(Config{
		ParallelEnabled: true,
		Execute: func(ctx context.Context, task *Task) (map[string]any, error) {
			return map[string]any{"ok": true}, nil
		},
	})

	tasks, batches := p.Plan("BTC", RiskProfileModerate)
	err := p.Run(context.Background(), tasks, batches)
	require.NoError(t, err)

	for _, task := range tasks {
		assert.Equal(t, StatusCompleted, task.Status)
	}
}

func TestRun_DependentTaskSkippedWhenDependencyFails(t *testing.T) {
	p := New(Config{
		ParallelEnabled: true,
		Execute: func(ctx context.Context, task *Task) (map[string]any, error) {
			if task.Name == "task_technical" {
				return nil, errors.New("data source unavailable")
			}
			return map[string]any{"ok": true}, nil
		},
	})

	tasks, batches := p.Plan("BTC", RiskProfileConservative)
	err := p.Run(context.Background(), tasks, batches)
	require.NoError(t, err)

	byName := make(map[string]*Task)
	for _, task := range tasks {
		byName[task.Name] = task
	}

	assert.Equal(t, StatusFailed, byName["task_technical"].Status)
	assert.Equal(t, StatusSkipped, byName["task_correlation"].Status)
}

func TestRun_IndependentTasksUnaffectedByUnrelatedFailure(t *testing.T) {
	p := New(Config{
		ParallelEnabled: true,
		Execute: func(ctx context.Context, task *Task) (map[string]any, error) {
			if task.Name == "task_macro" {
				return nil, errors.New("timeout")
			}
			return map[string]any{"ok": true}, nil
		},
	})

	tasks, batches := p.Plan("BTC", RiskProfileModerate)
	err := p.Run(context.Background(), tasks, batches)
	require.NoError(t, err)

	byName := make(map[string]*Task)
	for _, task := range tasks {
		byName[task.Name] = task
	}
	assert.Equal(t, StatusFailed, byName["task_macro"].Status)
	assert.Equal(t, StatusCompleted, byName["task_sentiment"].Status)
}
