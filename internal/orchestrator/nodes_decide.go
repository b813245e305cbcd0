package orchestrator

import (
	"context"
	"time"

	"github.com/cryptofunk/engine/internal/state"
)

// decideNode ports original_source/core/agents/orchestrator.py's
// _decision_node: an active Safety Enforcer pause dominates every other
// signal and always forces a hold with zero confidence; otherwise a failed
// risk or compliance check does the same; otherwise the combined sentiment
// score and a confidence floor of 0.6 pick buy/sell, defaulting to hold.
func decideNode(ctx context.Context, deps *Deps, s *state.DecisionState) (state.Patch, error) {
	if deps.Safety != nil {
		if status := deps.Safety.Status(); status.Paused {
			decision := &state.FinalDecision{
				Action:     "hold",
				Symbol:     s.Symbol,
				Confidence: 0,
				Sentiment:  s.SentimentScore,
				Reason:     status.PauseReason,
				Timestamp:  time.Now().UTC(),
			}
			msg := state.Message{Role: "decide", Content: decision.Reason}
			return state.Patch{Message: &msg, FinalDecision: decision}, nil
		}
	}

	if !s.RiskAssessment.Approved || !s.ComplianceCheck.Approved {
		decision := &state.FinalDecision{
			Action:     "hold",
			Symbol:     s.Symbol,
			Confidence: 0,
			Sentiment:  s.SentimentScore,
			Reason:     "failed risk or compliance check",
			Timestamp:  time.Now().UTC(),
		}
		msg := state.Message{Role: "decide", Content: decision.Reason}
		return state.Patch{Message: &msg, FinalDecision: decision}, nil
	}

	action := "hold"
	switch {
	case s.SentimentScore > signalBuySell && s.Confidence > 0.6:
		action = "buy"
	case s.SentimentScore < -signalBuySell && s.Confidence > 0.6:
		action = "sell"
	}

	decision := &state.FinalDecision{
		Action:     action,
		Symbol:     s.Symbol,
		Confidence: s.Confidence,
		Sentiment:  s.SentimentScore,
		Timestamp:  time.Now().UTC(),
		Reasoning: map[string]any{
			"validation_score": s.ValidationScore,
			"technical":        s.TechnicalAnalysis,
		},
	}
	msg := state.Message{Role: "decide", Content: action}
	return state.Patch{Message: &msg, FinalDecision: decision}, nil
}
