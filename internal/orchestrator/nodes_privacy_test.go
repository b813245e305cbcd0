package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofunk/engine/internal/state"
)

func TestPrivacyNode_ApprovesCleanMessages(t *testing.T) {
	deps := NewDeps()
	s := state.New("BTC", nil, 3)
	s.BullArgument = "Momentum looks solid given recent volume trends."
	s.BearArgument = "Some resistance remains near the prior high."

	patch, err := privacyNode(context.Background(), deps, s)
	require.NoError(t, err)
	assert.True(t, patch.ComplianceCheck.Approved)
	assert.False(t, patch.ComplianceCheck.PIIFound)
}

func TestPrivacyNode_FlagsEmailPII(t *testing.T) {
	deps := NewDeps()
	s := state.New("BTC", nil, 3)
	s.BullArgument = "Contact trader@example.com for the full thesis."

	patch, err := privacyNode(context.Background(), deps, s)
	require.NoError(t, err)
	assert.False(t, patch.ComplianceCheck.Approved)
	assert.True(t, patch.ComplianceCheck.PIIFound)
}

func TestPrivacyNode_FlagsInsiderLanguage(t *testing.T) {
	deps := NewDeps()
	s := state.New("BTC", nil, 3)
	s.BearArgument = "We have early access to confidential news before announcement."

	patch, err := privacyNode(context.Background(), deps, s)
	require.NoError(t, err)
	assert.False(t, patch.ComplianceCheck.Approved)
	assert.True(t, patch.ComplianceCheck.Insider)
}

func TestPrivacyNode_FlagsCollusionLanguage(t *testing.T) {
	deps := NewDeps()
	s := state.New("BTC", nil, 3)
	s.ResearchSummary = "Plan to coordinate and pump together across channels."

	patch, err := privacyNode(context.Background(), deps, s)
	require.NoError(t, err)
	assert.False(t, patch.ComplianceCheck.Approved)
	assert.True(t, patch.ComplianceCheck.Collusion)
}
