package orchestrator

import (
	"context"
	"regexp"
	"strings"

	"github.com/cryptofunk/engine/internal/state"
)

var piiPatterns = map[string]*regexp.Regexp{
	"email":       regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	"phone":       regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
	"ssn":         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	"credit_card": regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`),
	"api_key":     regexp.MustCompile(`\b[A-Za-z0-9]{32,}\b`),
	"private_key": regexp.MustCompile(`\b0x[a-fA-F0-9]{64}\b`),
}

var collusionKeywords = []string{"coordinate", "pump together", "dump together", "insider", "confidential", "secret signal"}
var insiderKeywords = []string{"insider information", "confidential news", "unreleased", "before announcement", "early access"}

// privacyNode ports original_source/core/agents/privacy.py's
// PrivacyAgent.check: a PII regex scan, a collusion-keyword scan, and an
// insider-signal keyword scan over every accumulated debate message.
// approved requires all three to come back clean.
func privacyNode(ctx context.Context, deps *Deps, s *state.DecisionState) (state.Patch, error) {
	text := messageText(s)
	lower := strings.ToLower(text)

	piiFound, piiTypes := detectPII(text)
	collusion := containsAny(lower, collusionKeywords)
	insider := containsAny(lower, insiderKeywords)

	approved := !piiFound && !collusion && !insider

	var issues []string
	issues = append(issues, piiTypes...)
	if collusion {
		issues = append(issues, "collusion language detected")
	}
	if insider {
		issues = append(issues, "insider-signal language detected")
	}

	reason := "no privacy or compliance issues detected"
	if !approved {
		reason = strings.Join(issues, "; ")
	}

	check := state.ComplianceCheck{
		Approved:  approved,
		Reason:    reason,
		PIIFound:  piiFound,
		Collusion: collusion,
		Insider:   insider,
		Issues:    issues,
	}

	msg := state.Message{Role: "privacy", Content: reason}
	return state.Patch{Message: &msg, ComplianceCheck: &check}, nil
}

func messageText(s *state.DecisionState) string {
	parts := []string{s.BullArgument, s.BearArgument, s.ResearchSummary}
	for _, msg := range s.Messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, " ")
}

func detectPII(text string) (bool, []string) {
	var found []string
	for name, pattern := range piiPatterns {
		if pattern.MatchString(text) {
			found = append(found, "pii:"+name)
		}
	}
	return len(found) > 0, found
}
