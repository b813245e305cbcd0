package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlan_BaseTasksAlwaysPresent(t *testing.T) {
	tasks := CreatePlan("BTC", RiskProfileModerate, true)
	names := taskNames(tasks)
	assert.Contains(t, names, "task_sentiment")
	assert.Contains(t, names, "task_onchain")
	assert.Contains(t, names, "task_technical")
	assert.Contains(t, names, "task_macro")
}

func TestCreatePlan_ConservativeAddsLiquidityAndCorrelation(t *testing.T) {
	tasks := CreatePlan("BTC", RiskProfileConservative, true)
	names := taskNames(tasks)
	assert.Contains(t, names, "task_liquidity")
	assert.Contains(t, names, "task_correlation")
	assert.Contains(t, names, "task_patterns")
	assert.Contains(t, names, "task_keywords")
}

func TestCreatePlan_AggressiveStillIncludesOptionalWhenFlagSet(t *testing.T) {
	tasks := CreatePlan("BTC", RiskProfileAggressive, true)
	names := taskNames(tasks)
	assert.Contains(t, names, "task_momentum")
	assert.Contains(t, names, "task_patterns")
	assert.Contains(t, names, "task_keywords")
}

func TestCreatePlan_OptionalTasksGatedIndependentlyOfRiskProfile(t *testing.T) {
	tasks := CreatePlan("BTC", RiskProfileConservative, false)
	names := taskNames(tasks)
	assert.NotContains(t, names, "task_patterns")
	assert.NotContains(t, names, "task_keywords")
}

func TestExecutionOrder_RespectsDependencies(t *testing.T) {
	tasks := CreatePlan("BTC", RiskProfileConservative, true)
	batches := ExecutionOrder(tasks, 3, true)

	var correlationBatch, technicalBatch int
	for i, batch := range batches {
		for _, task := range batch {
			if task.Name == "task_technical" {
				technicalBatch = i
			}
			if task.Name == "task_correlation" {
				correlationBatch = i
			}
		}
	}
	assert.Greater(t, correlationBatch, technicalBatch)
}

func TestExecutionOrder_CapsBatchSizeAtMaxParallel(t *testing.T) {
	tasks := CreatePlan("BTC", RiskProfileModerate, true)
	batches := ExecutionOrder(tasks, 2, true)
	for _, batch := range batches {
		assert.LessOrEqual(t, len(batch), 2)
	}
}

func TestExecutionOrder_SerialModeOneTaskPerBatch(t *testing.T) {
	tasks := CreatePlan("BTC", RiskProfileModerate, true)
	batches := ExecutionOrder(tasks, 3, false)
	for _, batch := range batches {
		assert.Len(t, batch, 1)
	}
}

func TestExecutionOrder_PriorityOrderedWithinBatch(t *testing.T) {
	tasks := CreatePlan("BTC", RiskProfileModerate, true)
	batches := ExecutionOrder(tasks, 10, true)
	require.NotEmpty(t, batches)
	first := batches[0]
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].Priority, first[i].Priority)
	}
}

func TestEstimateParallelTime_SumsSlowestPerBatch(t *testing.T) {
	tasks := CreatePlan("BTC", RiskProfileModerate, true)
	batches := ExecutionOrder(tasks, 3, true)
	estimate := EstimateParallelTime(batches)
	assert.Positive(t, estimate)
}

func taskNames(tasks []*Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Name
	}
	return out
}
