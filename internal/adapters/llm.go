package adapters

import (
	"context"
	"fmt"

	"github.com/cryptofunk/engine/internal/llm"
	"github.com/cryptofunk/engine/internal/risk"
	"github.com/cryptofunk/engine/internal/state"
)

// rolePrompts are the system prompts for each debate role, grounded on
// original_source/core/agents/bull.py and bear.py's persona instructions.
var rolePrompts = map[string]string{
	"bull": "You are a bullish crypto trading analyst. Given the research summary, " +
		"argue the case FOR taking a long position. Be concise and specific.",
	"bear": "You are a bearish crypto trading analyst. Given the research summary, " +
		"argue the case AGAINST taking a long position. Be concise and specific.",
}

// LanguageModelAdapter implements orchestrator.LanguageModelAdapter over
// internal/llm's chat-completion client, giving the bull/bear debate nodes
// a real narration backend instead of the templated fallback. Calls run
// through the LLM circuit breaker so a struggling provider trips open
// instead of stalling every decision tick behind its own timeout.
type LanguageModelAdapter struct {
	client  llm.LLMClient
	breaker *risk.CircuitBreakerManager
}

// NewLanguageModelAdapter constructs a LanguageModelAdapter guarded by the
// default LLM circuit breaker settings (3 requests before tripping, 60s
// open timeout, matching internal/risk's longer-recovery LLM profile).
func NewLanguageModelAdapter(client llm.LLMClient) *LanguageModelAdapter {
	return &LanguageModelAdapter{client: client, breaker: risk.NewCircuitBreakerManager()}
}

// Argue asks the LLM to produce a role's argument given the accumulated
// research context on s.
func (a *LanguageModelAdapter) Argue(ctx context.Context, role string, s *state.DecisionState) (string, error) {
	prompt, ok := rolePrompts[role]
	if !ok {
		return "", fmt.Errorf("adapters: unknown debate role %q", role)
	}
	userPrompt := fmt.Sprintf(
		"Symbol: %s\nCurrent price: %.2f\nResearch summary: %s\nSentiment score: %.2f",
		s.Symbol, s.CurrentPrice, s.ResearchSummary, s.SentimentScore,
	)

	result, err := a.breaker.LLM().Execute(func() (interface{}, error) {
		return a.client.CompleteWithSystem(ctx, prompt, userPrompt)
	})
	if err != nil {
		return "", fmt.Errorf("adapters: %s argument: %w", role, err)
	}
	return result.(string), nil
}
