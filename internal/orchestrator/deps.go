package orchestrator

import (
	"context"

	"github.com/cryptofunk/engine/internal/planner"
	"github.com/cryptofunk/engine/internal/safety"
	"github.com/cryptofunk/engine/internal/state"
	"github.com/cryptofunk/engine/internal/temporal"
)

// LanguageModelAdapter narrates a bull or bear argument from the research
// context accumulated so far. A supplemented capability (SPEC_FULL.md
// DOMAIN STACK) over the internal/llm client; nil is valid and
// falls back to a deterministic templated argument so the graph runs
// end-to-end without one wired.
type LanguageModelAdapter interface {
	Argue(ctx context.Context, role string, s *state.DecisionState) (string, error)
}

// Publisher announces a completed decision, e.g. over NATS.
type Publisher interface {
	PublishDecision(ctx context.Context, s *state.DecisionState) error
}

// SafetyStatus is the snapshot of Safety Enforcer state the decide node
// consults, matching internal/safety.Status.
type SafetyStatus struct {
	Paused      bool
	PauseReason string
}

// SafetyChecker reports the current auto-pause state, satisfied by
// internal/safety.Enforcer.Status.
type SafetyChecker interface {
	Status() SafetyStatus
}

// SafetyEnforcerAdapter adapts a *safety.Enforcer to SafetyChecker.
type SafetyEnforcerAdapter struct {
	Enforcer *safety.Enforcer
}

func (a SafetyEnforcerAdapter) Status() SafetyStatus {
	status := a.Enforcer.Status()
	return SafetyStatus{Paused: status.Paused, PauseReason: status.PauseReason}
}

// RiskConfig holds the risk node's configurable policy thresholds,
// matching the original's env-configured RiskAgent defaults.
type RiskConfig struct {
	MaxPositionSizePct float64 // default 15
	MaxDailyLossPct    float64 // default 10
	StopLossPct        float64 // default 1.5
	MaxLeverage        float64 // default 1
}

func defaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxPositionSizePct: 15,
		MaxDailyLossPct:    10,
		StopLossPct:        1.5,
		MaxLeverage:        1,
	}
}

// ValidationConfig holds the validator node's thresholds.
type ValidationConfig struct {
	Threshold           float64 // default 0.7
	RequiredDataSources []string
}

func defaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		Threshold:           0.7,
		RequiredDataSources: []string{"news", "social", "onchain", "technical"},
	}
}

// Deps bundles every collaborator a node may call into. All fields are
// optional; nodes degrade to a neutral/default behavior when a
// collaborator is absent, matching the original's defensive per-agent
// error handling.
type Deps struct {
	Planner    *planner.Planner
	Aggregator *planner.Aggregator
	Gateway    *temporal.Gateway
	LLM        LanguageModelAdapter
	Publisher  Publisher

	// Safety reports the Safety Enforcer's auto-pause state. Nil is valid
	// and treated as never-paused; decideNode consults it before the
	// risk/compliance check so an active pause dominates every other
	// signal, matching the original's pause-takes-priority semantics.
	Safety SafetyChecker

	RiskProfile planner.RiskProfile
	Risk        RiskConfig
	Validation  ValidationConfig

	// HistoricalPrices supplies the close-price series the analyzer node
	// feeds to the indicators package. It is set by whoever builds Deps;
	// cmd/engine does not set it, so there the analyzer sees no prices.
	HistoricalPrices []float64
}

// NewDeps constructs Deps with the original's default thresholds.
func NewDeps() *Deps {
	return &Deps{
		RiskProfile: planner.RiskProfileModerate,
		Risk:        defaultRiskConfig(),
		Validation:  defaultValidationConfig(),
	}
}
