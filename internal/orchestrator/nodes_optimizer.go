package orchestrator

import (
	"context"
	"fmt"
	"math"

	"github.com/cryptofunk/engine/internal/state"
)

const (
	kellyAvgWin      = 1.03
	kellyAvgLoss     = 0.98
	maxPositionSize  = 0.10
	signalBuySell    = 0.3
)

// optimizerNode ports original_source/core/agents/optimizer.py's
// OptimizerAgent._classical_optimize and _calculate_confidence: a
// half-Kelly position size derived from the combined bull/bear signal,
// and a confidence score adjusted for risk approval and volatility. The
// original's quantum_module path is out of scope (Non-goal: ML model
// architectures); only the classical path is implemented.
func optimizerNode(ctx context.Context, deps *Deps, s *state.DecisionState) (state.Patch, error) {
	bullScore := extractScore(s.BullArgument)
	bearScore := extractScore(s.BearArgument)
	netSignal := bullScore + bearScore

	winRate := clamp(0.5+netSignal*0.2, 0.3, 0.7)
	kelly := (winRate*kellyAvgWin - (1-winRate)*kellyAvgLoss) / kellyAvgWin
	positionSize := clamp(kelly/2, 0, maxPositionSize)

	confidence := math.Abs(netSignal) * 0.5
	if s.RiskAssessment.Approved {
		confidence += 0.3
	}
	if level, _ := s.RiskAssessment.MarketRisk["level"].(string); level == "high" || level == "extreme" {
		confidence *= 0.7
	}
	confidence = clamp(confidence, 0, 1)

	msg := state.Message{
		Role: "optimizer",
		Content: fmt.Sprintf("net_signal=%.3f win_rate=%.3f position_size=%.3f confidence=%.3f",
			netSignal, winRate, positionSize, confidence),
	}

	return state.Patch{
		Message:    &msg,
		Confidence: &confidence,
	}, nil
}
