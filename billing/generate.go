package billing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PERIOD GENERATOR
// =============================================================================

// Generator regenerates a rental's complete billing timeline from its
// coverage bonds. The output is a candidate: the caller shows it for
// confirmation, and applying it replaces the rental's entire persisted
// period set. Never merged with prior manual entries.
type Generator struct {
	Policy RatePolicy
}

// GeneratePeriods runs the generator with the default rate policy.
func GeneratePeriods(window RentalWindow, monthlyRate decimal.Decimal, bonds []InsuranceBond) []GeneratedPeriod {
	return Generator{Policy: DefaultRatePolicy()}.Generate(window, monthlyRate, bonds)
}

// Generate produces the full ordered timeline: one CNAM segment per bond
// and one patient-paid gap segment per uncovered stretch. Pure and total:
// it never fails for well-formed input, substituting zero or floor values
// for missing monetary fields.
func (g Generator) Generate(window RentalWindow, monthlyRate decimal.Decimal, bonds []InsuranceBond) []GeneratedPeriod {
	if len(bonds) == 0 {
		return []GeneratedPeriod{g.wholeWindowPeriod(window, monthlyRate)}
	}

	sorted := make([]InsuranceBond, len(bonds))
	copy(sorted, bonds)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	// One daily rate per invocation, derived from the first bond.
	gapRate := g.Policy.GapDailyRate(monthlyRate, sorted)

	var out []GeneratedPeriod

	// Uncovered time before coverage starts.
	if first := sorted[0]; window.Start.Before(first.Start) {
		out = g.appendGapSegment(out, window.Start, first.Start.AddDays(-1), gapRate, GapCNAMPending)
	}

	for i, bond := range sorted {
		out = append(out, g.bondSegment(bond))

		if i+1 < len(sorted) {
			dayAfter := bond.End.AddDays(1)
			if next := sorted[i+1]; next.Start.After(dayAfter) {
				out = g.appendGapSegment(out, dayAfter, next.Start.AddDays(-1), gapRate, GapCNAMGap)
			}
		}
	}

	// Uncovered time after coverage ran out, for closed windows only.
	if window.End != nil {
		last := sorted[len(sorted)-1]
		if window.End.After(last.End) {
			out = g.appendGapSegment(out, last.End.AddDays(1), *window.End, gapRate, GapCNAMExpired)
		}
	}

	return out
}

// wholeWindowPeriod covers the entire window with a single cash period at
// the full equipment rate. Open-ended rentals are billed up to a fixed
// horizon past the start.
func (g Generator) wholeWindowPeriod(window RentalWindow, monthlyRate decimal.Decimal) GeneratedPeriod {
	end := window.Start.AddDays(g.Policy.OpenEndedHorizonDays)
	if window.End != nil {
		end = *window.End
	}

	days := InclusiveDays(window.Start, end)
	daily := g.Policy.DailyEquipmentRate(monthlyRate)
	return GeneratedPeriod{
		BillingPeriod: BillingPeriod{
			Start:         window.Start,
			End:           end,
			Amount:        daily.Mul(decimal.NewFromInt(int64(days))),
			PaymentMethod: PaymentCash,
			Notes:         rateNote(days, daily),
		},
		Source: SourceGapAuto,
	}
}

// bondSegment covers [bond.Start, bond.End] at the bond's total covered
// amount. A bond without a total amount bills zero; the coverage interval
// is still emitted so the timeline stays complete.
func (g Generator) bondSegment(bond InsuranceBond) GeneratedPeriod {
	amount := decimal.Zero
	if bond.TotalAmount.IsPositive() {
		amount = bond.TotalAmount
	}

	days := InclusiveDays(bond.Start, bond.End)
	return GeneratedPeriod{
		BillingPeriod: BillingPeriod{
			Start:         bond.Start,
			End:           bond.End,
			Amount:        amount,
			PaymentMethod: PaymentCNAM,
			CNAMBondID:    bond.ID,
			Notes:         fmt.Sprintf("%d days covered by CNAM bond %s", days, bond.ID),
		},
		Source: SourceCNAMBond,
	}
}

// appendGapSegment emits a patient-paid segment over [start, end], skipping
// non-positive durations so malformed bounds never produce empty segments.
func (g Generator) appendGapSegment(out []GeneratedPeriod, start, end Day, gapRate decimal.Decimal, reason GapReason) []GeneratedPeriod {
	days := InclusiveDays(start, end)
	if days <= 0 {
		return out
	}

	return append(out, GeneratedPeriod{
		BillingPeriod: BillingPeriod{
			Start:         start,
			End:           end,
			Amount:        gapRate.Mul(decimal.NewFromInt(int64(days))),
			PaymentMethod: PaymentCash,
			IsGapPeriod:   true,
			GapReason:     reason,
			Notes:         rateNote(days, gapRate),
		},
		Source: SourceGapAuto,
	})
}

func rateNote(days int, dailyRate decimal.Decimal) string {
	return fmt.Sprintf("%d days x %s/day", days, dailyRate.StringFixed(3))
}
