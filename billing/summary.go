package billing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY - Aggregate figures the presentation layer depends on
// =============================================================================

// Summary holds the aggregate figures for a billing timeline.
type Summary struct {
	TotalAmount  decimal.Decimal
	CNAMTotal    decimal.Decimal // sum where PaymentMethod == CNAM
	PatientTotal decimal.Decimal // sum where IsGapPeriod or PaymentMethod == CASH
	TotalDays    int
	PeriodCount  int
	GapPeriods   int
}

// Summarize reduces a period list to its aggregate figures.
func Summarize(periods []BillingPeriod) Summary {
	s := Summary{
		TotalAmount:  decimal.Zero,
		CNAMTotal:    decimal.Zero,
		PatientTotal: decimal.Zero,
	}

	for _, p := range periods {
		s.TotalAmount = s.TotalAmount.Add(p.Amount)
		s.TotalDays += p.Days()
		s.PeriodCount++

		if p.PaymentMethod == PaymentCNAM {
			s.CNAMTotal = s.CNAMTotal.Add(p.Amount)
		}
		if p.IsGapPeriod || p.PaymentMethod == PaymentCash {
			s.PatientTotal = s.PatientTotal.Add(p.Amount)
		}
		if p.IsGapPeriod {
			s.GapPeriods++
		}
	}
	return s
}

// SummarizeGenerated reduces a generated candidate timeline the same way,
// for the pre-confirmation preview.
func SummarizeGenerated(generated []GeneratedPeriod) Summary {
	periods := make([]BillingPeriod, len(generated))
	for i, g := range generated {
		periods[i] = g.BillingPeriod
	}
	return Summarize(periods)
}
