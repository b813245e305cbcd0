package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractScore_ExplicitScoreField(t *testing.T) {
	assert.InDelta(t, 0.6, extractScore("score: 0.6 based on momentum"), 1e-9)
}

func TestExtractScore_FractionOutOfTen(t *testing.T) {
	assert.InDelta(t, 0.6, extractScore("rating 8/10 for this setup"), 1e-9)
}

func TestExtractScore_PercentileScaleNormalized(t *testing.T) {
	assert.InDelta(t, 0.6, extractScore("confidence: 80"), 1e-9)
}

func TestExtractScore_SentencePolarityFallback(t *testing.T) {
	score := extractScore("This looks very bullish and strong. Momentum is excellent.")
	assert.Greater(t, score, 0.0)
}

func TestExtractScore_NegationFlipsPolarity(t *testing.T) {
	score := extractScore("This is not bullish at all.")
	assert.LessOrEqual(t, score, 0.0)
}

func TestExtractScore_NoSignalYieldsZero(t *testing.T) {
	assert.Zero(t, extractScore("The weather today is mild."))
}

func TestExtractScore_ClampsToUnitRange(t *testing.T) {
	assert.LessOrEqual(t, extractScore("score: 500"), 1.0)
	assert.GreaterOrEqual(t, extractScore("score: -500"), -1.0)
}
