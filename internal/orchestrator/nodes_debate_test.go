package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofunk/engine/internal/state"
)

type fakeLLM struct {
	argument string
	err      error
	lastRole string
}

func (f *fakeLLM) Argue(ctx context.Context, role string, s *state.DecisionState) (string, error) {
	f.lastRole = role
	return f.argument, f.err
}

func TestBullNode_UsesTemplateWhenNoLLM(t *testing.T) {
	deps := NewDeps()
	s := state.New("BTC", nil, 3)
	s.SentimentScore = 0.6

	patch, err := bullNode(context.Background(), deps, s)
	require.NoError(t, err)
	require.NotNil(t, patch.BullArgument)
	assert.Contains(t, *patch.BullArgument, "positive")
}

func TestBearNode_UsesTemplateWhenNoLLM(t *testing.T) {
	deps := NewDeps()
	s := state.New("BTC", nil, 3)
	s.SentimentScore = -0.6

	patch, err := bearNode(context.Background(), deps, s)
	require.NoError(t, err)
	require.NotNil(t, patch.BearArgument)
	assert.Contains(t, *patch.BearArgument, "negative")
}

func TestBullNode_DelegatesToLLM(t *testing.T) {
	llm := &fakeLLM{argument: "strong bull case"}
	deps := NewDeps()
	deps.LLM = llm
	s := state.New("BTC", nil, 3)

	patch, err := bullNode(context.Background(), deps, s)
	require.NoError(t, err)
	assert.Equal(t, "bull", llm.lastRole)
	assert.Equal(t, "strong bull case", *patch.BullArgument)
}

func TestBearNode_PropagatesLLMError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("llm unavailable")}
	deps := NewDeps()
	deps.LLM = llm
	s := state.New("BTC", nil, 3)

	_, err := bearNode(context.Background(), deps, s)
	assert.Error(t, err)
}
