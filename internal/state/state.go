// Package state defines the shared decision state threaded through the
// orchestration graph, replacing the donor's ad-hoc map with a fixed,
// typed record whose fields are enumerated by the specification.
package state

import "time"

// Message is one stage's contribution to the append-only debate log.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RiskAssessment is the risk node's verdict.
type RiskAssessment struct {
	Approved     bool           `json:"approved"`
	Reason       string         `json:"reason"`
	PolicyCheck  map[string]any `json:"policy_check,omitempty"`
	MarketRisk   map[string]any `json:"market_risk,omitempty"`
	RedFlags     bool           `json:"red_flags"`
}

// ComplianceCheck is the privacy node's verdict.
type ComplianceCheck struct {
	Approved  bool     `json:"approved"`
	Reason    string   `json:"reason"`
	PIIFound  bool     `json:"pii_found"`
	Collusion bool     `json:"collusion"`
	Insider   bool     `json:"insider"`
	Issues    []string `json:"issues,omitempty"`
}

// FinalDecision is the synthesized recommendation.
type FinalDecision struct {
	Action     string         `json:"action"`
	Symbol     string         `json:"symbol"`
	Confidence float64        `json:"confidence"`
	Sentiment  float64        `json:"sentiment"`
	Reason     string         `json:"reason,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Reasoning  map[string]any `json:"reasoning,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// DecisionState is the one-per-tick record owned by the orchestrator for
// the duration of a single decision tick. Invariant: once FinalDecision is
// non-nil, no stage may mutate it further; Iteration never decreases.
type DecisionState struct {
	Symbol       string
	CurrentPrice float64
	MarketData   map[string]any

	ResearchSummary string
	ResearchData    map[string]any
	SentimentScore  float64

	BullArgument      string
	BearArgument      string
	TechnicalAnalysis string

	RiskAssessment  RiskAssessment
	ComplianceCheck ComplianceCheck

	ValidationScore  float64
	ValidationPassed bool
	DataGaps         []string
	ValidationChecks map[string]any

	Confidence     float64
	FinalDecision  *FinalDecision
	Iteration      int
	MaxIterations  int

	PlannedTasks        []string
	CompletedTaskIDs    []string
	TaskExecutionResults map[string]any

	Messages []Message
}

// New returns a DecisionState seeded with the given symbol and iteration
// budget, matching the orchestrator original's initial_state construction.
func New(symbol string, marketData map[string]any, maxIterations int) *DecisionState {
	if maxIterations <= 0 {
		maxIterations = 3
	}
	price := 0.0
	if marketData != nil {
		if p, ok := marketData["price"].(float64); ok {
			price = p
		}
	}
	return &DecisionState{
		Symbol:               symbol,
		CurrentPrice:         price,
		MarketData:           marketData,
		MaxIterations:        maxIterations,
		ValidationChecks:     map[string]any{},
		TaskExecutionResults: map[string]any{},
	}
}

// AppendMessage records one stage's output. Messages are append-only: no
// node may remove or reorder an existing entry.
func (s *DecisionState) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// Patch is the union of fields a single node may update. A node returns a
// Patch rather than mutating DecisionState directly; the graph runner
// applies it by deep merge (messages append, primitives overwrite, maps
// replace wholesale), per the "runtime-typed shared state" re-architecture
// note.
type Patch struct {
	Message *Message

	ResearchSummary *string
	ResearchData    map[string]any
	SentimentScore  *float64

	BullArgument      *string
	BearArgument      *string
	TechnicalAnalysis *string

	RiskAssessment  *RiskAssessment
	ComplianceCheck *ComplianceCheck

	ValidationScore  *float64
	ValidationPassed *bool
	DataGaps         []string
	ValidationChecks map[string]any

	Confidence    *float64
	FinalDecision *FinalDecision
	IncrIteration bool

	PlannedTasks         []string
	CompletedTaskIDs     []string
	TaskExecutionResults map[string]any
}

// Apply merges a Patch into the state following the deep-merge discipline
// of §4.5: messages append, primitives overwrite, nested maps replace
// wholesale. Once FinalDecision has been set, a patch without its own
// FinalDecision only has its Message appended; every other field of it is
// ignored. A patch that carries a FinalDecision is applied in full.
func (s *DecisionState) Apply(p Patch) {
	if p.Message != nil {
		s.Messages = append(s.Messages, *p.Message)
	}
	if s.FinalDecision != nil && p.FinalDecision == nil {
		// A final decision has already been recorded; only the decide
		// node (which always supplies FinalDecision) may act past this
		// point in one tick, so further non-decision patches are ignored.
		return
	}
	if p.ResearchSummary != nil {
		s.ResearchSummary = *p.ResearchSummary
	}
	if p.ResearchData != nil {
		s.ResearchData = p.ResearchData
	}
	if p.SentimentScore != nil {
		s.SentimentScore = *p.SentimentScore
	}
	if p.BullArgument != nil {
		s.BullArgument = *p.BullArgument
	}
	if p.BearArgument != nil {
		s.BearArgument = *p.BearArgument
	}
	if p.TechnicalAnalysis != nil {
		s.TechnicalAnalysis = *p.TechnicalAnalysis
	}
	if p.RiskAssessment != nil {
		s.RiskAssessment = *p.RiskAssessment
	}
	if p.ComplianceCheck != nil {
		s.ComplianceCheck = *p.ComplianceCheck
	}
	if p.ValidationScore != nil {
		s.ValidationScore = *p.ValidationScore
	}
	if p.ValidationPassed != nil {
		s.ValidationPassed = *p.ValidationPassed
	}
	if p.DataGaps != nil {
		s.DataGaps = p.DataGaps
	}
	if p.ValidationChecks != nil {
		s.ValidationChecks = p.ValidationChecks
	}
	if p.Confidence != nil {
		s.Confidence = *p.Confidence
	}
	if p.IncrIteration {
		s.Iteration++
	}
	if p.FinalDecision != nil {
		s.FinalDecision = p.FinalDecision
	}
	if p.PlannedTasks != nil {
		s.PlannedTasks = p.PlannedTasks
	}
	if p.CompletedTaskIDs != nil {
		s.CompletedTaskIDs = p.CompletedTaskIDs
	}
	if p.TaskExecutionResults != nil {
		s.TaskExecutionResults = p.TaskExecutionResults
	}
}
