package temporal

import (
	"context"
	"fmt"
	"time"
)

// StepFrequency names the historical replay cadence, matching the
// original's step_sizes dict.
type StepFrequency string

const (
	FrequencyDaily  StepFrequency = "1d"
	FrequencyHourly StepFrequency = "1h"
	Frequency4Hour  StepFrequency = "4h"
	Frequency15Min  StepFrequency = "15m"
)

var stepSizes = map[StepFrequency]time.Duration{
	FrequencyDaily:  24 * time.Hour,
	FrequencyHourly: time.Hour,
	Frequency4Hour:  4 * time.Hour,
	Frequency15Min:  15 * time.Minute,
}

// ReplayStep is one tick of a historical replay: the gateway is pinned to
// StepTime before Decide runs, so every read inside Decide is bounded by
// that instant.
type ReplayStep struct {
	Index    int
	StepTime time.Time
}

// ReplayResult pairs a step with whatever the caller's decision function
// returned for it.
type ReplayResult struct {
	Step     ReplayStep
	Decision any
	Err      error
}

// DecideFunc runs one tick of decision logic against a Gateway already
// pinned to the step's simulation time.
type DecideFunc func(ctx context.Context, gw *Gateway, step ReplayStep) (any, error)

// Replay drives a Gateway across a historical window at a fixed cadence,
// invoking decide once per step. Grounded on the original's
// HistoricalReplay/ReplayStep: a fresh gateway state per step (simulation
// time advances, audit log accumulates), record_decision/get_results
// equivalent to accumulating ReplayResults.
type Replay struct {
	gateway   *Gateway
	start     time.Time
	end       time.Time
	frequency StepFrequency
	decide    DecideFunc

	results []ReplayResult
}

// NewReplay constructs a Replay over [start, end] at the given frequency.
// The Gateway must already be configured in non-live mode (strict or lax);
// Replay takes ownership of advancing its simulation time.
func NewReplay(gw *Gateway, start, end time.Time, freq StepFrequency, decide DecideFunc) (*Replay, error) {
	if gw.IsLive() {
		return nil, fmt.Errorf("temporal: replay requires a non-live gateway")
	}
	if !end.After(start) {
		return nil, fmt.Errorf("temporal: replay end must be after start")
	}
	if _, ok := stepSizes[freq]; !ok {
		return nil, fmt.Errorf("temporal: unknown replay frequency %q", freq)
	}
	return &Replay{
		gateway:   gw,
		start:     start,
		end:       end,
		frequency: freq,
		decide:    decide,
	}, nil
}

// Steps enumerates the replay schedule without running it, for dry-run
// planning and estimated step counts.
func (r *Replay) Steps() []ReplayStep {
	step := stepSizes[r.frequency]
	var out []ReplayStep
	i := 0
	for t := r.start; !t.After(r.end); t = t.Add(step) {
		out = append(out, ReplayStep{Index: i, StepTime: t})
		i++
	}
	return out
}

// Run executes the full replay schedule sequentially, pinning the
// gateway's simulation time before each decide call. It stops early and
// returns the first error encountered from SetSimulationTime (decide
// errors are recorded per-step but do not halt the run, matching the
// original's per-step try/except).
func (r *Replay) Run(ctx context.Context) ([]ReplayResult, error) {
	r.results = r.results[:0]
	for _, step := range r.Steps() {
		if err := ctx.Err(); err != nil {
			return r.results, err
		}
		if err := r.gateway.SetSimulationTime(ctx, step.StepTime); err != nil {
			return r.results, fmt.Errorf("temporal: replay step %d: %w", step.Index, err)
		}
		decision, err := r.decide(ctx, r.gateway, step)
		r.results = append(r.results, ReplayResult{Step: step, Decision: decision, Err: err})
	}
	return r.results, nil
}

// Results returns the accumulated results of the last Run call.
func (r *Replay) Results() []ReplayResult {
	return r.results
}
