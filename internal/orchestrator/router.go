package orchestrator

import "github.com/cryptofunk/engine/internal/state"

// validationRouter ports the original's _validation_router: proceed once
// validation passes; proceed anyway once the iteration budget is
// exhausted (so the graph always terminates); otherwise re-research when
// data gaps remain, and proceed as the fallback.
func validationRouter(s *state.DecisionState) string {
	if s.ValidationPassed {
		return "bull"
	}
	if s.Iteration >= s.MaxIterations {
		return "bull"
	}
	if len(s.DataGaps) > 0 {
		return "researcher"
	}
	return "bull"
}

// continuationRouter ports the original's _should_continue_enhanced:
// iteration budget exhaustion always ends the run; a confident,
// well-validated decision ends early; low confidence triggers a full
// iterate (back through research); a middling validation score triggers
// refine_research; otherwise end.
func continuationRouter(s *state.DecisionState) string {
	if s.Iteration >= s.MaxIterations {
		return endNode
	}
	if s.Confidence > 0.85 && s.ValidationScore > 0.8 {
		return endNode
	}
	if s.Confidence < 0.5 {
		return "researcher"
	}
	if s.ValidationScore < 0.6 {
		return "researcher"
	}
	return endNode
}
