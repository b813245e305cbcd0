package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReplay_RejectsLiveGateway(t *testing.T) {
	gw := New(Config{Mode: ModeLive})
	_, err := NewReplay(gw, time.Now(), time.Now().Add(time.Hour), FrequencyHourly, nil)
	assert.Error(t, err)
}

func TestNewReplay_RejectsBadWindow(t *testing.T) {
	gw := New(Config{Mode: ModeStrict, SimulationTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	_, err := NewReplay(gw, time.Now(), time.Now().Add(-time.Hour), FrequencyHourly, func(ctx context.Context, gw *Gateway, step ReplayStep) (any, error) {
		return nil, nil
	})
	assert.Error(t, err)
}

func TestReplay_StepsCoversWindowAtFrequency(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	gw := New(Config{Mode: ModeStrict, SimulationTime: start})
	r, err := NewReplay(gw, start, end, FrequencyHourly, nil)
	require.NoError(t, err)

	steps := r.Steps()
	assert.Len(t, steps, 4)
	assert.Equal(t, start, steps[0].StepTime)
	assert.Equal(t, end, steps[3].StepTime)
}

func TestReplay_RunPinsGatewayBeforeEachDecision(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	gw := New(Config{Mode: ModeStrict, SimulationTime: start})

	var seen []time.Time
	decide := func(ctx context.Context, gw *Gateway, step ReplayStep) (any, error) {
		seen = append(seen, gw.SimulationTime())
		return step.Index, nil
	}

	r, err := NewReplay(gw, start, end, FrequencyHourly, decide)
	require.NoError(t, err)

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, seen, []time.Time{start, start.Add(time.Hour), start.Add(2 * time.Hour)})
	assert.Equal(t, 0, results[0].Decision)
	assert.Equal(t, 2, results[2].Decision)
}

func TestReplay_DecisionErrorDoesNotHaltRun(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	gw := New(Config{Mode: ModeStrict, SimulationTime: start})

	decide := func(ctx context.Context, gw *Gateway, step ReplayStep) (any, error) {
		if step.Index == 0 {
			return nil, assertErr{"transient failure"}
		}
		return "ok", nil
	}

	r, err := NewReplay(gw, start, end, FrequencyHourly, decide)
	require.NoError(t, err)

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.Equal(t, "ok", results[1].Decision)
}
