package boundary

import (
	"fmt"
	"sort"
	"time"
)

// DatasetIssue is one finding from ValidateBacktestData's quick scan.
type DatasetIssue struct {
	Description string
	Severity    Severity
}

// ValidateBacktestData runs a fast, allocation-light sanity check over a
// bar series against a requested backtest window, without requiring a
// full Validator instance. Grounded on the original's
// validate_backtest_data standalone helper: range coverage plus a
// 5x-median-gap heuristic for missing data.
func ValidateBacktestData(bars []OHLCVBar, windowStart, windowEnd time.Time) []DatasetIssue {
	var issues []DatasetIssue
	if len(bars) == 0 {
		return []DatasetIssue{{Description: "no data provided for backtest window", Severity: SeverityCritical}}
	}

	sorted := make([]OHLCVBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	if sorted[0].Timestamp.After(windowStart) {
		issues = append(issues, DatasetIssue{
			Description: fmt.Sprintf("data starts at %s, after requested window start %s",
				sorted[0].Timestamp.Format(time.RFC3339), windowStart.Format(time.RFC3339)),
			Severity: SeverityWarning,
		})
	}
	if sorted[len(sorted)-1].Timestamp.Before(windowEnd) {
		issues = append(issues, DatasetIssue{
			Description: fmt.Sprintf("data ends at %s, before requested window end %s",
				sorted[len(sorted)-1].Timestamp.Format(time.RFC3339), windowEnd.Format(time.RFC3339)),
			Severity: SeverityWarning,
		})
	}

	if len(sorted) < 2 {
		return issues
	}

	diffs := make([]time.Duration, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		diffs = append(diffs, sorted[i].Timestamp.Sub(sorted[i-1].Timestamp))
	}
	median := medianDuration(diffs)

	for i, d := range diffs {
		if median > 0 && d > 5*median {
			issues = append(issues, DatasetIssue{
				Description: fmt.Sprintf("gap of %s detected between %s and %s (median spacing %s)",
					d, sorted[i].Timestamp.Format(time.RFC3339), sorted[i+1].Timestamp.Format(time.RFC3339), median),
				Severity: SeverityWarning,
			})
		}
	}

	return issues
}

func medianDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
