package billing

import (
	"sort"
)

// =============================================================================
// GAP DETECTOR
// =============================================================================

// DetectGaps computes the uncovered stretches of the rental window relative
// to an existing set of billing periods. Pure: the input slice is not
// mutated and may arrive unordered.
//
// Policy notes:
//   - An empty period set returns no gaps. A brand-new rental has nothing
//     to reconcile yet; flooding it with a full-window gap warning helps
//     nobody.
//   - Overlapping periods are tolerated, not repaired. The detector reports
//     under-coverage only; over-coverage is left to the editing user.
//   - The trailing gap exists only for a closed window.
func DetectGaps(periods []BillingPeriod, window RentalWindow) []Gap {
	if len(periods) == 0 {
		return nil
	}

	sorted := make([]BillingPeriod, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var gaps []Gap

	// Leading gap: window start to the eve of the first period.
	if first := sorted[0]; window.Start.Before(first.Start) {
		gaps = appendGap(gaps, window.Start, first.Start.AddDays(-1))
	}

	// Internal gaps between adjacent periods.
	for i := 0; i < len(sorted)-1; i++ {
		dayAfter := sorted[i].End.AddDays(1)
		next := sorted[i+1]
		if next.Start.After(dayAfter) {
			gaps = appendGap(gaps, dayAfter, next.Start.AddDays(-1))
		}
	}

	// Trailing gap: only meaningful when the rental has an end date.
	if window.End != nil {
		last := sorted[len(sorted)-1]
		if window.End.After(last.End) {
			gaps = appendGap(gaps, last.End.AddDays(1), *window.End)
		}
	}

	return gaps
}

// appendGap emits a gap only when its inclusive duration is strictly
// positive, which also absorbs equal or inverted bounds from malformed
// input without failing.
func appendGap(gaps []Gap, start, end Day) []Gap {
	duration := InclusiveDays(start, end)
	if duration <= 0 {
		return gaps
	}
	return append(gaps, Gap{Start: start, End: end, Duration: duration})
}
