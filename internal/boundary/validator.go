// Package boundary implements backtest-integrity checks distinct from the
// temporal Gateway's live read-gating: it audits whole datasets and
// indicator windows for look-ahead bias after the fact, and produces a
// human-readable report.
//
// Grounded on original_source/core/utils/data_boundary_validator.py.
package boundary

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ViolationType classifies a detected boundary breach.
type ViolationType string

const (
	ViolationFuturePrice        ViolationType = "FUTURE_PRICE"
	ViolationFutureNews         ViolationType = "FUTURE_NEWS"
	ViolationFutureFinancials   ViolationType = "FUTURE_FINANCIALS"
	ViolationLookaheadIndicator ViolationType = "LOOKAHEAD_INDICATOR"
	ViolationDataSnooping       ViolationType = "DATA_SNOOPING"
	ViolationSurvivorshipBias   ViolationType = "SURVIVORSHIP_BIAS"
)

// Severity distinguishes violations that must block a backtest run from
// ones that merely deserve a warning.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Violation is one recorded breach.
type Violation struct {
	Type           ViolationType
	Timestamp      time.Time
	SimulationTime time.Time
	Description    string
	Severity       Severity
	DataAccessed   string
}

// Result summarizes a completed validation pass.
type Result struct {
	Passed          bool
	Violations      []Violation
	Recommendations []string
}

// CriticalViolations returns only the blocking violations.
func (r Result) CriticalViolations() []Violation {
	return filterBySeverity(r.Violations, SeverityCritical)
}

// WarningCount returns the number of non-blocking violations.
func (r Result) WarningCount() int {
	return len(filterBySeverity(r.Violations, SeverityWarning))
}

func filterBySeverity(violations []Violation, sev Severity) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Severity == sev {
			out = append(out, v)
		}
	}
	return out
}

// indicatorKey dedupes repeated LOOKAHEAD_INDICATOR flags for the same
// (name, lookback) pair, matching the original's "flag once" behavior.
type indicatorKey struct {
	name     string
	lookback int
}

// Validator accumulates violations across a single backtest run.
type Validator struct {
	mu             sync.Mutex
	simulationTime time.Time
	strict         bool
	violations     []Violation
	flaggedIndic   map[indicatorKey]bool
	delistDates    map[string]time.Time
}

// NewValidator constructs a Validator. strict=true makes TrackDataAccess
// return an error on violation instead of only recording it.
func NewValidator(strict bool) *Validator {
	return &Validator{
		strict:       strict,
		flaggedIndic: make(map[indicatorKey]bool),
		delistDates:  make(map[string]time.Time),
	}
}

// SetSimulationTime pins the boundary for subsequent checks.
func (v *Validator) SetSimulationTime(t time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.simulationTime = t
}

// SetDelistDate records when a symbol was delisted, for survivorship
// bias checks.
func (v *Validator) SetDelistDate(symbol string, t time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.delistDates[symbol] = t
}

// ErrLookAheadBias is returned by TrackDataAccess in strict mode.
type ErrLookAheadBias struct {
	Violation Violation
}

func (e ErrLookAheadBias) Error() string {
	return fmt.Sprintf("look-ahead bias: %s", e.Violation.Description)
}

// TrackDataAccess records one read of dataType for symbol with the given
// declared timestamp, flagging a violation if it exceeds the simulation
// boundary.
func (v *Validator) TrackDataAccess(dataType ViolationType, symbol string, dataTimestamp time.Time) error {
	v.mu.Lock()
	simTime := v.simulationTime
	v.mu.Unlock()

	if !dataTimestamp.After(simTime) {
		return nil
	}

	violation := Violation{
		Type:           dataType,
		Timestamp:      time.Now().UTC(),
		SimulationTime: simTime,
		Description: fmt.Sprintf("accessed %s data for %s dated %s while simulating %s",
			dataType, symbol, dataTimestamp.Format(time.RFC3339), simTime.Format(time.RFC3339)),
		Severity:     SeverityCritical,
		DataAccessed: symbol,
	}
	v.addViolation(violation)

	if v.strict {
		return ErrLookAheadBias{Violation: violation}
	}
	return nil
}

func (v *Validator) addViolation(vi Violation) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.violations = append(v.violations, vi)
}

// OHLCVBar is a minimal candle shape for dataset-wide validation.
type OHLCVBar struct {
	Timestamp time.Time
}

// ValidateOHLCV scans a full bar series for any timestamp beyond the
// simulation boundary, matching the original's "compare max timestamp"
// check.
func (v *Validator) ValidateOHLCV(symbol string, bars []OHLCVBar) {
	v.mu.Lock()
	simTime := v.simulationTime
	v.mu.Unlock()

	var maxTS time.Time
	for _, bar := range bars {
		if bar.Timestamp.After(maxTS) {
			maxTS = bar.Timestamp
		}
	}
	if maxTS.After(simTime) {
		v.addViolation(Violation{
			Type:           ViolationFuturePrice,
			Timestamp:      time.Now().UTC(),
			SimulationTime: simTime,
			Description: fmt.Sprintf("OHLCV dataset for %s contains bars up to %s, beyond simulation time %s",
				symbol, maxTS.Format(time.RFC3339), simTime.Format(time.RFC3339)),
			Severity:     SeverityCritical,
			DataAccessed: symbol,
		})
	}
}

// ValidateIndicator flags an indicator computation whose lookback window
// would have needed data past currentIndex, at most once per (name,
// lookback) pair.
func (v *Validator) ValidateIndicator(name string, lookbackPeriod, currentIndex, dataLength int) {
	if currentIndex+lookbackPeriod <= dataLength {
		return
	}
	key := indicatorKey{name: name, lookback: lookbackPeriod}

	v.mu.Lock()
	if v.flaggedIndic[key] {
		v.mu.Unlock()
		return
	}
	v.flaggedIndic[key] = true
	simTime := v.simulationTime
	v.mu.Unlock()

	v.addViolation(Violation{
		Type:           ViolationLookaheadIndicator,
		Timestamp:      time.Now().UTC(),
		SimulationTime: simTime,
		Description: fmt.Sprintf("indicator %s with lookback %d at index %d exceeds data length %d",
			name, lookbackPeriod, currentIndex, dataLength),
		Severity: SeverityWarning,
	})
}

// CheckSurvivorshipBias flags symbols queried after their recorded
// delisting date.
func (v *Validator) CheckSurvivorshipBias(symbol string, queryTime time.Time) {
	v.mu.Lock()
	delist, known := v.delistDates[symbol]
	v.mu.Unlock()
	if !known || !queryTime.After(delist) {
		return
	}
	v.addViolation(Violation{
		Type:      ViolationSurvivorshipBias,
		Timestamp: time.Now().UTC(),
		Description: fmt.Sprintf("symbol %s queried at %s, after its delisting date %s",
			symbol, queryTime.Format(time.RFC3339), delist.Format(time.RFC3339)),
		Severity:     SeverityWarning,
		DataAccessed: symbol,
	})
}

// Result computes the validation outcome. Passed is true iff there are no
// critical violations — warnings alone do not fail a backtest.
func (v *Validator) Result() Result {
	v.mu.Lock()
	violations := make([]Violation, len(v.violations))
	copy(violations, v.violations)
	v.mu.Unlock()

	critical := filterBySeverity(violations, SeverityCritical)
	return Result{
		Passed:          len(critical) == 0,
		Violations:      violations,
		Recommendations: recommendationsFor(violations),
	}
}

func recommendationsFor(violations []Violation) []string {
	present := make(map[ViolationType]bool)
	for _, v := range violations {
		present[v.Type] = true
	}

	var recs []string
	if present[ViolationFuturePrice] {
		recs = append(recs, "re-filter OHLCV sources to exclude bars beyond the backtest window")
	}
	if present[ViolationFutureNews] {
		recs = append(recs, "filter news items by published_at, not ingestion time")
	}
	if present[ViolationFutureFinancials] {
		recs = append(recs, "filter financial reports by release date, not fetch time")
	}
	if present[ViolationLookaheadIndicator] {
		recs = append(recs, "shorten indicator lookback windows or pad the warmup period")
	}
	if present[ViolationDataSnooping] {
		recs = append(recs, "re-derive strategy parameters using only in-sample data")
	}
	if present[ViolationSurvivorshipBias] {
		recs = append(recs, "include delisted symbols in the historical universe")
	}
	return recs
}

// GenerateReport renders a box-drawn plaintext summary, matching the
// original's report format.
func (v *Validator) GenerateReport() string {
	result := v.Result()

	var b strings.Builder
	width := 70
	b.WriteString("╔" + strings.Repeat("═", width) + "╗\n")
	title := "TEMPORAL BOUNDARY VALIDATION REPORT"
	b.WriteString(fmt.Sprintf("║%s║\n", center(title, width)))
	b.WriteString("╠" + strings.Repeat("═", width) + "╣\n")

	status := "PASSED"
	if !result.Passed {
		status = "FAILED"
	}
	b.WriteString(fmt.Sprintf("║%s║\n", center(fmt.Sprintf("Status: %s", status), width)))
	b.WriteString(fmt.Sprintf("║%s║\n", center(fmt.Sprintf("Critical violations: %d", len(result.CriticalViolations())), width)))
	b.WriteString(fmt.Sprintf("║%s║\n", center(fmt.Sprintf("Warnings: %d", result.WarningCount()), width)))
	b.WriteString("╠" + strings.Repeat("═", width) + "╣\n")

	sorted := make([]Violation, len(result.Violations))
	copy(sorted, result.Violations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	for _, vi := range sorted {
		line := fmt.Sprintf("[%s] %s: %s", vi.Severity, vi.Type, vi.Description)
		for _, wrapped := range wrap(line, width-2) {
			b.WriteString(fmt.Sprintf("║ %-*s║\n", width-1, wrapped))
		}
	}

	if len(result.Recommendations) > 0 {
		b.WriteString("╠" + strings.Repeat("═", width) + "╣\n")
		b.WriteString(fmt.Sprintf("║%s║\n", center("Recommendations", width)))
		for _, rec := range result.Recommendations {
			b.WriteString(fmt.Sprintf("║ - %-*s║\n", width-3, rec))
		}
	}

	b.WriteString("╚" + strings.Repeat("═", width) + "╝\n")
	return b.String()
}

func center(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func wrap(s string, width int) []string {
	if width <= 0 || len(s) <= width {
		return []string{s}
	}
	var out []string
	for len(s) > width {
		out = append(out, s[:width])
		s = s[width:]
	}
	out = append(out, s)
	return out
}
