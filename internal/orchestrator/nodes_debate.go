package orchestrator

import (
	"context"
	"fmt"

	"github.com/cryptofunk/engine/internal/state"
)

// bullNode narrates the case for the trade via the configured language
// model adapter, falling back to a templated argument built from the
// research summary when none is wired. Grounded on
// original_source/core/agents/orchestrator.py's _bull_node /
// BullAgent.analyze.
func bullNode(ctx context.Context, deps *Deps, s *state.DecisionState) (state.Patch, error) {
	argument, err := narrate(ctx, deps, "bull", s)
	if err != nil {
		return state.Patch{}, fmt.Errorf("bull: %w", err)
	}
	msg := state.Message{Role: "bull", Content: argument}
	return state.Patch{Message: &msg, BullArgument: &argument}, nil
}

// bearNode is the bull node's mirror, narrating the case against the
// trade. Grounded on the same original's _bear_node / BearAgent.analyze.
func bearNode(ctx context.Context, deps *Deps, s *state.DecisionState) (state.Patch, error) {
	argument, err := narrate(ctx, deps, "bear", s)
	if err != nil {
		return state.Patch{}, fmt.Errorf("bear: %w", err)
	}
	msg := state.Message{Role: "bear", Content: argument}
	return state.Patch{Message: &msg, BearArgument: &argument}, nil
}

func narrate(ctx context.Context, deps *Deps, role string, s *state.DecisionState) (string, error) {
	if deps != nil && deps.LLM != nil {
		return deps.LLM.Argue(ctx, role, s)
	}
	sentimentWord := "mixed"
	switch {
	case s.SentimentScore > 0.3:
		sentimentWord = "positive"
	case s.SentimentScore < -0.3:
		sentimentWord = "negative"
	}
	if role == "bull" {
		return fmt.Sprintf("Research sentiment for %s is %s (score %.2f); confidence: moderate.", s.Symbol, sentimentWord, s.SentimentScore), nil
	}
	return fmt.Sprintf("Counterpoint for %s given %s sentiment (score %.2f): downside risk remains.", s.Symbol, sentimentWord, s.SentimentScore), nil
}
