package orchestrator

import (
	"context"
	"fmt"

	"github.com/cryptofunk/engine/internal/indicators"
	"github.com/cryptofunk/engine/internal/state"
)

// analyzerNode computes the technical indicator and chart-pattern set for
// the symbol and folds a technical sentiment contribution into the
// running score. Grounded on
// original_source/core/agents/analyzer.py's AnalyzerAgent.analyze.
func analyzerNode(ctx context.Context, deps *Deps, s *state.DecisionState) (state.Patch, error) {
	history := deps.historicalPrices()
	snapshot := indicators.Calculate(history, s.CurrentPrice)
	patterns := indicators.DetectPatterns(append(history, s.CurrentPrice))

	technicalSentiment := indicators.TechnicalSentiment(snapshot.RSI)
	combined := (s.SentimentScore + technicalSentiment) / 2

	summary := fmt.Sprintf(
		"RSI %.1f, MACD %.4f (signal=line), BB[%.2f/%.2f/%.2f], trend=%s, consolidation=%v",
		snapshot.RSI, snapshot.MACD, snapshot.BollingerLower, snapshot.BollingerMiddle, snapshot.BollingerUpper,
		patterns.Trend, patterns.Consolidation,
	)

	msg := state.Message{Role: "analyzer", Content: summary}
	return state.Patch{
		Message:           &msg,
		TechnicalAnalysis: &summary,
		SentimentScore:    &combined,
	}, nil
}

func (d *Deps) historicalPrices() []float64 {
	if d == nil || len(d.HistoricalPrices) == 0 {
		return nil
	}
	return d.HistoricalPrices
}
