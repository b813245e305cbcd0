package orchestrator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cryptofunk/engine/internal/state"
)

var redFlagKeywords = []string{
	"scam", "rug pull", "pump and dump", "ponzi", "extreme risk", "unverified", "suspicious",
}

var majorSymbols = map[string]bool{"BTC": true, "ETH": true}

// riskNode ports original_source/core/agents/risk.py's RiskAgent.assess:
// a policy check (position size / leverage bounds against RiskConfig), a
// market-risk read (volatility from historical returns, falling back to
// an asset-class heuristic), and a keyword scan for red flags across the
// accumulated debate messages. approved requires all three to pass.
func riskNode(ctx context.Context, deps *Deps, s *state.DecisionState) (state.Patch, error) {
	cfg := deps.riskConfig()

	volatilityPct, riskLevel := marketRisk(deps.historicalPrices(), s.Symbol)
	redFlagged, flagReason := scanRedFlags(s)

	policyOK := cfg.MaxPositionSizePct > 0 && cfg.MaxLeverage >= 1
	approved := policyOK && !redFlagged && riskLevel != "extreme"

	reason := "risk checks passed"
	if !approved {
		switch {
		case redFlagged:
			reason = flagReason
		case riskLevel == "extreme":
			reason = fmt.Sprintf("extreme market risk (volatility %.1f%%)", volatilityPct)
		default:
			reason = "policy check failed"
		}
	}

	assessment := state.RiskAssessment{
		Approved: approved,
		Reason:   reason,
		PolicyCheck: map[string]any{
			"max_position_size_pct": cfg.MaxPositionSizePct,
			"max_leverage":          cfg.MaxLeverage,
			"policy_ok":             policyOK,
		},
		MarketRisk: map[string]any{
			"volatility_pct": volatilityPct,
			"level":          riskLevel,
		},
		RedFlags: redFlagged,
	}

	msg := state.Message{Role: "risk", Content: reason}
	return state.Patch{Message: &msg, RiskAssessment: &assessment}, nil
}

func (d *Deps) riskConfig() RiskConfig {
	if d == nil || d.Risk.MaxLeverage == 0 {
		return defaultRiskConfig()
	}
	return d.Risk
}

// marketRisk estimates annualized volatility from historical close-price
// returns; with no history it falls back to a coarse asset-class
// heuristic, matching the original's dual-path volatility estimate.
func marketRisk(prices []float64, symbol string) (volatilityPct float64, level string) {
	if len(prices) >= 2 {
		var returns []float64
		for i := 1; i < len(prices); i++ {
			if prices[i-1] == 0 {
				continue
			}
			returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
		}
		if len(returns) > 0 {
			mean := 0.0
			for _, r := range returns {
				mean += r
			}
			mean /= float64(len(returns))
			var sumSq float64
			for _, r := range returns {
				d := r - mean
				sumSq += d * d
			}
			stddev := math.Sqrt(sumSq / float64(len(returns)))
			volatilityPct = stddev * math.Sqrt(365) * 100
			return volatilityPct, levelFromVolatility(volatilityPct)
		}
	}

	if majorSymbols[strings.ToUpper(symbol)] {
		return 40, "medium"
	}
	return 80, "high"
}

func levelFromVolatility(pct float64) string {
	switch {
	case pct < 30:
		return "low"
	case pct < 60:
		return "medium"
	case pct < 100:
		return "high"
	default:
		return "extreme"
	}
}

func scanRedFlags(s *state.DecisionState) (bool, string) {
	haystacks := []string{s.BullArgument, s.BearArgument, s.ResearchSummary}
	for _, msg := range s.Messages {
		haystacks = append(haystacks, msg.Content)
	}
	lower := strings.ToLower(strings.Join(haystacks, " "))
	for _, kw := range redFlagKeywords {
		if strings.Contains(lower, kw) {
			return true, fmt.Sprintf("red flag detected: %q", kw)
		}
	}
	return false, ""
}
