package indicators

import "math"

// SwingPoint is a local extremum in a price series.
type SwingPoint struct {
	Index int
	Price float64
	IsMax bool
}

const swingWindow = 3

// FindSwingPoints locates local maxima/minima using a fixed window,
// matching the original's _find_swing_points.
func FindSwingPoints(prices []float64) []SwingPoint {
	var points []SwingPoint
	for i := swingWindow; i < len(prices)-swingWindow; i++ {
		isMax, isMin := true, true
		for j := i - swingWindow; j <= i+swingWindow; j++ {
			if j == i {
				continue
			}
			if prices[j] >= prices[i] {
				isMax = false
			}
			if prices[j] <= prices[i] {
				isMin = false
			}
		}
		if isMax {
			points = append(points, SwingPoint{Index: i, Price: prices[i], IsMax: true})
		} else if isMin {
			points = append(points, SwingPoint{Index: i, Price: prices[i], IsMax: false})
		}
	}
	return points
}

const (
	peakSimilarityPct    = 0.02
	shoulderSimilarityPct = 0.05
	breakoutMarginPct     = 0.02
	breakoutLookback      = 20
	breakoutExcludeRecent = 5
	trendWindow           = 20
	consolidationWindow   = 10
	consolidationVolPct   = 0.02
	strongTrendPct        = 0.5
	weakTrendPct          = 0.1
)

func within(a, b, pct float64) bool {
	if b == 0 {
		return a == 0
	}
	return math.Abs(a-b)/math.Abs(b) <= pct
}

// DetectDoubleTop flags two similar peaks followed by a current price at
// least 5% below them.
func DetectDoubleTop(prices []float64) bool {
	peaks := peaksOf(prices)
	if len(peaks) < 2 {
		return false
	}
	p1, p2 := peaks[len(peaks)-2], peaks[len(peaks)-1]
	if !within(p1.Price, p2.Price, peakSimilarityPct) {
		return false
	}
	current := prices[len(prices)-1]
	return current < p2.Price*(1-breakoutMarginPct*2.5) // 5% below
}

// DetectDoubleBottom flags two similar troughs followed by a current
// price at least 5% above them.
func DetectDoubleBottom(prices []float64) bool {
	troughs := troughsOf(prices)
	if len(troughs) < 2 {
		return false
	}
	t1, t2 := troughs[len(troughs)-2], troughs[len(troughs)-1]
	if !within(t1.Price, t2.Price, peakSimilarityPct) {
		return false
	}
	current := prices[len(prices)-1]
	return current > t2.Price*(1+breakoutMarginPct*2.5)
}

// DetectHeadAndShoulders flags three consecutive peaks where the middle
// one is highest and the outer two ("shoulders") are within 5% of each
// other.
func DetectHeadAndShoulders(prices []float64) bool {
	peaks := peaksOf(prices)
	if len(peaks) < 3 {
		return false
	}
	left, head, right := peaks[len(peaks)-3], peaks[len(peaks)-2], peaks[len(peaks)-1]
	return head.Price > left.Price && head.Price > right.Price && within(left.Price, right.Price, shoulderSimilarityPct)
}

// DetectInverseHeadAndShoulders is the trough-side mirror of
// DetectHeadAndShoulders.
func DetectInverseHeadAndShoulders(prices []float64) bool {
	troughs := troughsOf(prices)
	if len(troughs) < 3 {
		return false
	}
	left, head, right := troughs[len(troughs)-3], troughs[len(troughs)-2], troughs[len(troughs)-1]
	return head.Price < left.Price && head.Price < right.Price && within(left.Price, right.Price, shoulderSimilarityPct)
}

// DetectTriangle fits one least-squares line to the trailing 20 prices
// and flags the window when the slope magnitude is under 0.001. Only a
// single price series is available, so the "high" and "low" trends are
// the same line: a converging range is not told apart from a flat one.
func DetectTriangle(prices []float64) bool {
	window := tail(prices, trendWindow)
	if len(window) < trendWindow {
		return false
	}
	highSlope := slopeOf(window)
	lowSlope := slopeOf(window)
	return math.Abs(highSlope) < 0.001 && math.Abs(lowSlope) < 0.001
}

// DetectBreakout flags the current price moving more than 2% beyond the
// high/low range of the trailing window, excluding the most recent 5
// prices from that range (so the breakout itself isn't self-referential).
func DetectBreakout(prices []float64) (breakoutUp, breakoutDown bool) {
	if len(prices) <= breakoutLookback {
		return false, false
	}
	rangeEnd := len(prices) - breakoutExcludeRecent
	rangeStart := rangeEnd - breakoutLookback
	if rangeStart < 0 {
		rangeStart = 0
	}
	window := prices[rangeStart:rangeEnd]
	if len(window) == 0 {
		return false, false
	}

	hi, lo := window[0], window[0]
	for _, p := range window {
		if p > hi {
			hi = p
		}
		if p < lo {
			lo = p
		}
	}

	current := prices[len(prices)-1]
	breakoutUp = current > hi*(1+breakoutMarginPct)
	breakoutDown = current < lo*(1-breakoutMarginPct)
	return breakoutUp, breakoutDown
}

// TrendDirection classifies the linear-regression slope of the trailing
// window into strong/weak bullish or bearish, or sideways.
type TrendDirection string

const (
	TrendStrongBullish TrendDirection = "strong_bullish"
	TrendWeakBullish   TrendDirection = "weak_bullish"
	TrendSideways      TrendDirection = "sideways"
	TrendWeakBearish   TrendDirection = "weak_bearish"
	TrendStrongBearish TrendDirection = "strong_bearish"
)

// DetectTrend computes the percentage slope of a linear regression over
// the trailing window and classifies it against the original's ±0.5
// (strong) / ±0.1 (weak) thresholds.
func DetectTrend(prices []float64) TrendDirection {
	window := tail(prices, trendWindow)
	if len(window) < 2 {
		return TrendSideways
	}
	slope := slopeOf(window)
	mean := calculateSMA(window, len(window))
	if mean == 0 {
		return TrendSideways
	}
	slopePct := (slope / mean) * 100

	switch {
	case slopePct >= strongTrendPct:
		return TrendStrongBullish
	case slopePct >= weakTrendPct:
		return TrendWeakBullish
	case slopePct <= -strongTrendPct:
		return TrendStrongBearish
	case slopePct <= -weakTrendPct:
		return TrendWeakBearish
	default:
		return TrendSideways
	}
}

// DetectConsolidation flags low volatility (stddev/mean under 2%) over
// the trailing 10 prices.
func DetectConsolidation(prices []float64) bool {
	window := tail(prices, consolidationWindow)
	if len(window) < 2 {
		return false
	}
	mean := calculateSMA(window, len(window))
	if mean == 0 {
		return false
	}
	stddev := stddevOf(window, mean)
	return stddev/mean < consolidationVolPct
}

func peaksOf(prices []float64) []SwingPoint {
	var out []SwingPoint
	for _, p := range FindSwingPoints(prices) {
		if p.IsMax {
			out = append(out, p)
		}
	}
	return out
}

func troughsOf(prices []float64) []SwingPoint {
	var out []SwingPoint
	for _, p := range FindSwingPoints(prices) {
		if !p.IsMax {
			out = append(out, p)
		}
	}
	return out
}

func tail(prices []float64, n int) []float64 {
	if len(prices) <= n {
		return prices
	}
	return prices[len(prices)-n:]
}

// slopeOf fits a simple linear regression (least squares) over an
// evenly-spaced x-axis and returns the slope, standing in for the
// original's numpy polyfit(degree=1) calls.
func slopeOf(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// Patterns is the full set of chart-pattern flags for one analysis pass.
type Patterns struct {
	DoubleTop               bool
	DoubleBottom            bool
	HeadAndShoulders        bool
	InverseHeadAndShoulders bool
	Triangle                bool
	BreakoutUp              bool
	BreakoutDown            bool
	Trend                   TrendDirection
	Consolidation           bool
}

// DetectPatterns runs every pattern detector over the price series.
func DetectPatterns(prices []float64) Patterns {
	breakoutUp, breakoutDown := DetectBreakout(prices)
	return Patterns{
		DoubleTop:               DetectDoubleTop(prices),
		DoubleBottom:            DetectDoubleBottom(prices),
		HeadAndShoulders:        DetectHeadAndShoulders(prices),
		InverseHeadAndShoulders: DetectInverseHeadAndShoulders(prices),
		Triangle:                DetectTriangle(prices),
		BreakoutUp:              breakoutUp,
		BreakoutDown:            breakoutDown,
		Trend:                   DetectTrend(prices),
		Consolidation:           DetectConsolidation(prices),
	}
}
