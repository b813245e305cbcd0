// Package indicators computes the technical-analysis feature set consumed
// by the analyzer node: momentum, trend, and volatility indicators plus
// chart-pattern detection.
//
// Grounded on original_source/core/agents/analyzer.py, with the EMA/MACD
// line math delegated to cinar/indicator/v2 in the idiom already
// established by the teacher's internal/indicators package
// (channel-based Compute calls).
package indicators

import (
	"math"

	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
)

// Snapshot is the full indicator set for one symbol at one point in time.
type Snapshot struct {
	RSI             float64
	MACD            float64
	MACDSignal      float64
	MACDHistogram   float64
	BollingerUpper  float64
	BollingerMiddle float64
	BollingerLower  float64
	EMA             float64
	SMA             float64
	ATR             float64
}

const (
	rsiPeriod       = 14
	macdFastPeriod  = 12
	macdSlowPeriod  = 26
	macdSignalSpan  = 9
	bollingerPeriod = 20
	bollingerStdDev = 2.0
	emaDefaultSpan  = 20
	atrPeriod       = 14
)

// Calculate derives the full indicator Snapshot from a historical close
// price series (oldest first) plus the current price. With fewer than two
// historical prices it falls back to the original's neutral defaults
// (rsi=50, macd=0, bands at current_price±2%, ema/sma=current_price,
// atr=2% of price) rather than computing on insufficient data.
func Calculate(historicalPrices []float64, currentPrice float64) Snapshot {
	if len(historicalPrices) < 2 {
		band := currentPrice * 0.02
		return Snapshot{
			RSI:             50,
			MACD:            0,
			MACDSignal:      0,
			MACDHistogram:   0,
			BollingerUpper:  currentPrice + band,
			BollingerMiddle: currentPrice,
			BollingerLower:  currentPrice - band,
			EMA:             currentPrice,
			SMA:             currentPrice,
			ATR:             band,
		}
	}

	prices := append(append([]float64{}, historicalPrices...), currentPrice)

	return Snapshot{
		RSI:             calculateRSI(prices),
		MACD:            macdLine(prices),
		MACDSignal:      macdLine(prices), // decided: signal == line, see DESIGN.md Open Questions
		MACDHistogram:   0,
		BollingerUpper:  bollinger(prices).upper,
		BollingerMiddle: bollinger(prices).middle,
		BollingerLower:  bollinger(prices).lower,
		EMA:             calculateEMA(prices, emaPeriodFor(len(prices))),
		SMA:             calculateSMA(prices, smaPeriodFor(len(prices))),
		ATR:             calculateATR(prices),
	}
}

func emaPeriodFor(n int) int {
	if n < emaDefaultSpan {
		return n
	}
	return emaDefaultSpan
}

func smaPeriodFor(n int) int {
	if n < emaDefaultSpan {
		return n
	}
	return emaDefaultSpan
}

func toChannel(values []float64) chan float64 {
	ch := make(chan float64, len(values))
	for _, v := range values {
		ch <- v
	}
	close(ch)
	return ch
}

func drain(ch chan float64) []float64 {
	var out []float64
	for v := range ch {
		out = append(out, v)
	}
	return out
}

// calculateRSI computes a period-14 Wilder RSI, defaulting to the neutral
// midpoint when there isn't enough history for the library to produce a
// value.
func calculateRSI(prices []float64) float64 {
	if len(prices) <= rsiPeriod {
		return 50
	}
	rsi := momentum.NewRsiWithPeriod[float64](rsiPeriod)
	values := drain(rsi.Compute(toChannel(prices)))
	if len(values) == 0 {
		return 50
	}
	return values[len(values)-1]
}

// macdLine returns only the MACD line (fast EMA - slow EMA, smoothed by
// the library's internal EMA crossover); the signal line is discarded at
// the call site per the decided Open Question — the original computes a
// "simplified" signal that is literally the MACD line itself.
func macdLine(prices []float64) float64 {
	if len(prices) <= macdSlowPeriod+macdSignalSpan {
		return 0
	}
	macd := trend.NewMacdWithPeriod[float64](macdFastPeriod, macdSlowPeriod, macdSignalSpan)
	macdChan, signalChan := macd.Compute(toChannel(prices))

	var macdValues []float64
	for {
		m, mok := <-macdChan
		_, sok := <-signalChan // original signal output intentionally discarded
		if !mok || !sok {
			break
		}
		macdValues = append(macdValues, m)
	}
	if len(macdValues) == 0 {
		return 0
	}
	return macdValues[len(macdValues)-1]
}

type bands struct{ upper, middle, lower float64 }

func bollinger(prices []float64) bands {
	if len(prices) < bollingerPeriod {
		mean := calculateSMA(prices, len(prices))
		stddev := stddevOf(prices, mean)
		return bands{
			upper:  mean + bollingerStdDev*stddev,
			middle: mean,
			lower:  mean - bollingerStdDev*stddev,
		}
	}
	bb := volatility.NewBollingerBandsWithPeriod[float64](bollingerPeriod)
	lowerChan, middleChan, upperChan := bb.Compute(toChannel(prices))

	var lower, middle, upper []float64
	for {
		l, lok := <-lowerChan
		m, mok := <-middleChan
		u, uok := <-upperChan
		if !lok || !mok || !uok {
			break
		}
		lower = append(lower, l)
		middle = append(middle, m)
		upper = append(upper, u)
	}
	if len(middle) == 0 {
		mean := calculateSMA(prices, len(prices))
		stddev := stddevOf(prices, mean)
		return bands{upper: mean + bollingerStdDev*stddev, middle: mean, lower: mean - bollingerStdDev*stddev}
	}
	return bands{upper: upper[len(upper)-1], middle: middle[len(middle)-1], lower: lower[len(lower)-1]}
}

func stddevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func calculateEMA(prices []float64, period int) float64 {
	if period < 1 {
		period = 1
	}
	if len(prices) < period {
		period = len(prices)
	}
	ema := trend.NewEmaWithPeriod[float64](period)
	values := drain(ema.Compute(toChannel(prices)))
	if len(values) == 0 {
		return prices[len(prices)-1]
	}
	return values[len(values)-1]
}

// calculateSMA is a direct arithmetic mean over the trailing period,
// matching the original's numpy mean.
func calculateSMA(prices []float64, period int) float64 {
	if period < 1 {
		period = 1
	}
	if period > len(prices) {
		period = len(prices)
	}
	window := prices[len(prices)-period:]
	var sum float64
	for _, p := range window {
		sum += p
	}
	return sum / float64(len(window))
}

// calculateATR is the original's simplified ATR: the mean absolute
// day-over-day price difference over the trailing window, not a true
// Wilder true-range average (no high/low series is threaded through the
// analyzer's close-only data model).
func calculateATR(prices []float64) float64 {
	period := atrPeriod
	if period >= len(prices) {
		period = len(prices) - 1
	}
	if period < 1 {
		return 0
	}
	window := prices[len(prices)-period-1:]
	var sum float64
	for i := 1; i < len(window); i++ {
		sum += math.Abs(window[i] - window[i-1])
	}
	return sum / float64(len(window)-1)
}

// TechnicalSentiment derives a directional sentiment scalar in [-1, 1]
// from RSI alone, matching the original's _calculate_technical_sentiment:
// overbought (rsi>70) skews bearish, oversold (rsi<30) skews bullish,
// otherwise a linear interpolation around the neutral midpoint.
func TechnicalSentiment(rsi float64) float64 {
	if rsi > 70 {
		return -0.5
	}
	if rsi < 30 {
		return 0.5
	}
	return (50 - rsi) / 100
}
