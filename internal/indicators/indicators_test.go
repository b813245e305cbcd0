package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_InsufficientHistoryUsesNeutralDefaults(t *testing.T) {
	snap := Calculate([]float64{100}, 102)
	assert.Equal(t, 50.0, snap.RSI)
	assert.Equal(t, 0.0, snap.MACD)
	assert.InDelta(t, 102*1.02, snap.BollingerUpper, 1e-9)
	assert.InDelta(t, 102*0.98, snap.BollingerLower, 1e-9)
	assert.Equal(t, 102.0, snap.EMA)
	assert.Equal(t, 102.0, snap.SMA)
}

func TestCalculate_MACDSignalEqualsLine(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.5
	}
	snap := Calculate(prices[:len(prices)-1], prices[len(prices)-1])
	assert.Equal(t, snap.MACD, snap.MACDSignal)
	assert.Zero(t, snap.MACDHistogram)
}

func TestCalculate_RSIWithinBounds(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	snap := Calculate(prices[:len(prices)-1], prices[len(prices)-1])
	assert.GreaterOrEqual(t, snap.RSI, 0.0)
	assert.LessOrEqual(t, snap.RSI, 100.0)
}

func TestCalculateSMA_IsArithmeticMean(t *testing.T) {
	assert.Equal(t, 2.0, calculateSMA([]float64{1, 2, 3}, 3))
}

func TestTechnicalSentiment_OverboughtIsBearish(t *testing.T) {
	assert.Equal(t, -0.5, TechnicalSentiment(75))
}

func TestTechnicalSentiment_OversoldIsBullish(t *testing.T) {
	assert.Equal(t, 0.5, TechnicalSentiment(20))
}

func TestTechnicalSentiment_NeutralInterpolatesAroundMidpoint(t *testing.T) {
	assert.InDelta(t, 0.1, TechnicalSentiment(40), 1e-9)
}
