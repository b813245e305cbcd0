package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofunk/engine/internal/state"
)

func TestOptimizerNode_PositiveSignalRaisesConfidence(t *testing.T) {
	deps := NewDeps()
	s := state.New("BTC", nil, 3)
	s.BullArgument = "score: 0.8 strongly bullish setup"
	s.BearArgument = "score: 0.2 minor downside risk"
	s.RiskAssessment = state.RiskAssessment{Approved: true, MarketRisk: map[string]any{"level": "low"}}

	patch, err := optimizerNode(context.Background(), deps, s)
	require.NoError(t, err)
	require.NotNil(t, patch.Confidence)
	assert.Greater(t, *patch.Confidence, 0.0)
	assert.LessOrEqual(t, *patch.Confidence, 1.0)
}

func TestOptimizerNode_HighVolatilityDampensConfidence(t *testing.T) {
	deps := NewDeps()
	sCalm := state.New("BTC", nil, 3)
	sCalm.BullArgument = "score: 0.7"
	sCalm.BearArgument = "score: 0.1"
	sCalm.RiskAssessment = state.RiskAssessment{Approved: true, MarketRisk: map[string]any{"level": "low"}}

	sVolatile := state.New("BTC", nil, 3)
	sVolatile.BullArgument = "score: 0.7"
	sVolatile.BearArgument = "score: 0.1"
	sVolatile.RiskAssessment = state.RiskAssessment{Approved: true, MarketRisk: map[string]any{"level": "extreme"}}

	calmPatch, err := optimizerNode(context.Background(), deps, sCalm)
	require.NoError(t, err)
	volatilePatch, err := optimizerNode(context.Background(), deps, sVolatile)
	require.NoError(t, err)

	assert.Less(t, *volatilePatch.Confidence, *calmPatch.Confidence)
}

func TestOptimizerNode_UnapprovedRiskLowersConfidence(t *testing.T) {
	deps := NewDeps()
	s := state.New("BTC", nil, 3)
	s.BullArgument = "score: 0.5"
	s.BearArgument = "score: 0.1"
	s.RiskAssessment = state.RiskAssessment{Approved: false}

	patch, err := optimizerNode(context.Background(), deps, s)
	require.NoError(t, err)
	assert.Less(t, *patch.Confidence, 0.8)
}
