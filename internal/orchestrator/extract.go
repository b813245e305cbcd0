package orchestrator

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	scoreRe      = regexp.MustCompile(`(?i)score\s*[:=]\s*(-?\d+(?:\.\d+)?)`)
	confidenceRe = regexp.MustCompile(`(?i)confidence\s*[:=]\s*(-?\d+(?:\.\d+)?)`)
	ratingRe     = regexp.MustCompile(`(?i)rating\s*[:=]\s*(-?\d+(?:\.\d+)?)`)
	fractionRe   = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*/\s*10`)
)

var strongPositive = []string{"excellent", "strongly bullish", "highly confident", "very strong", "exceptional"}
var moderatePositive = []string{"bullish", "positive", "favorable", "good", "confident", "strong"}
var strongNegative = []string{"terrible", "strongly bearish", "highly risky", "very weak", "severe"}
var moderateNegative = []string{"bearish", "negative", "unfavorable", "poor", "weak", "risky"}
var negationWords = []string{"not", "no", "hardly", "barely", "neither", "isn't", "aren't", "won't"}

// extractScore ports the original's _extract_score: a regex cascade for
// explicit numeric scores, falling back to a sentence-level polarity vote
// over a small positive/negative lexicon with negation handling, and
// finally clamping to [-1, 1].
func extractScore(argument string) float64 {
	if v, ok := extractExplicitScore(argument); ok {
		return clamp(v, -1, 1)
	}
	return clamp(sentencePolarityVote(argument), -1, 1)
}

func extractExplicitScore(argument string) (float64, bool) {
	for _, re := range []*regexp.Regexp{scoreRe, confidenceRe, ratingRe} {
		if m := re.FindStringSubmatch(argument); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return normalizeExplicit(v), true
			}
		}
	}
	if m := fractionRe.FindStringSubmatch(argument); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return (v/10)*2 - 1, true
		}
	}
	return 0, false
}

// normalizeExplicit maps a score/confidence/rating value into [-1, 1].
// Values already in [-1, 1] pass through; values that look like a 0-10 or
// 0-100 scale are rescaled.
func normalizeExplicit(v float64) float64 {
	switch {
	case v >= -1 && v <= 1:
		return v
	case v >= 0 && v <= 10:
		return (v/10)*2 - 1
	case v >= 0 && v <= 100:
		return (v/100)*2 - 1
	default:
		return clamp(v, -1, 1)
	}
}

func sentencePolarityVote(argument string) float64 {
	sentences := splitSentences(argument)
	if len(sentences) == 0 {
		return 0
	}

	var total float64
	var scored int
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		negated := containsAny(lower, negationWords)

		score, matched := 0.0, false
		switch {
		case containsAny(lower, strongPositive):
			score, matched = 1.0, true
		case containsAny(lower, strongNegative):
			score, matched = -1.0, true
		case containsAny(lower, moderatePositive):
			score, matched = 0.5, true
		case containsAny(lower, moderateNegative):
			score, matched = -0.5, true
		}
		if !matched {
			continue
		}
		if negated {
			score = -score
		}
		total += score
		scored++
	}

	if scored == 0 {
		return 0
	}
	return total / float64(scored)
}

func splitSentences(text string) []string {
	raw := regexp.MustCompile(`[.!?]+`).Split(text, -1)
	var out []string
	for _, s := range raw {
		trimmed := strings.TrimSpace(s)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
