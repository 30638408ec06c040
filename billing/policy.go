package billing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE POLICY - Tunable constants for rate derivation
// =============================================================================

// Default rate-policy values. Kept as named constants so the policy can be
// tuned (via factory.ParsePolicy) without touching the algorithms.
const (
	// DefaultDaysPerMonth is the fixed month length used to convert monthly
	// rates to daily rates. Not calendar-accurate; a billing convention.
	DefaultDaysPerMonth = 30

	// DefaultPatientShare is the fraction of the equipment rate the patient
	// bears per day during uncovered time.
	DefaultPatientShare = "0.2"

	// DefaultMinGapDailyRate is the floor, in currency units per day, for
	// the gap daily rate when bonds exist. Prevents degenerate free periods.
	DefaultMinGapDailyRate = 1

	// DefaultOpenEndedHorizonDays is how far past the start an open-ended,
	// bond-less rental is billed when generating its first period.
	DefaultOpenEndedHorizonDays = 30
)

// RatePolicy holds the rate-derivation parameters.
type RatePolicy struct {
	DaysPerMonth         decimal.Decimal
	PatientShare         decimal.Decimal
	MinGapDailyRate      decimal.Decimal
	OpenEndedHorizonDays int
}

// DefaultRatePolicy returns the standard policy (30-day months, 20% patient
// share, 1 unit/day floor, 30-day open-ended horizon).
func DefaultRatePolicy() RatePolicy {
	return RatePolicy{
		DaysPerMonth:         decimal.NewFromInt(DefaultDaysPerMonth),
		PatientShare:         decimal.RequireFromString(DefaultPatientShare),
		MinGapDailyRate:      decimal.NewFromInt(DefaultMinGapDailyRate),
		OpenEndedHorizonDays: DefaultOpenEndedHorizonDays,
	}
}

// DailyEquipmentRate converts the device's monthly rate to a daily rate
// using the fixed month-length convention.
func (p RatePolicy) DailyEquipmentRate(monthlyRate decimal.Decimal) decimal.Decimal {
	return monthlyRate.Div(p.DaysPerMonth)
}

// GapDailyRate derives the patient-responsibility daily rate used for every
// uncovered segment of one generation run.
//
// The rate is modeled as the lesser of the patient-share heuristic and the
// first bond's own implied daily rate, floored at MinGapDailyRate.
// Insurance typically reimburses the majority share, so the bond's implied
// rate caps what the patient is asked to carry.
//
// Bonds must be sorted chronologically by the caller; the first bond drives
// the derivation. With no bonds at all, the heuristic applies unfloored.
func (p RatePolicy) GapDailyRate(monthlyRate decimal.Decimal, bonds []InsuranceBond) decimal.Decimal {
	share := p.DailyEquipmentRate(monthlyRate).Mul(p.PatientShare)
	if len(bonds) == 0 {
		return share
	}

	rate := share
	if bondMonthly := bonds[0].MonthlyEquivalent(); bondMonthly.IsPositive() {
		bondDaily := bondMonthly.Div(p.DaysPerMonth)
		if bondDaily.LessThan(rate) {
			rate = bondDaily
		}
	}
	if rate.LessThan(p.MinGapDailyRate) {
		rate = p.MinGapDailyRate
	}
	return rate
}
