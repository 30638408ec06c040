/*
Package billing provides the rental-period reconciliation engine.

PURPOSE:
  This package contains the pure domain types and algorithms for
  reconciling a medical-equipment rental's billing timeline against its
  CNAM insurance coverage. Given a rental window and a set of coverage
  bonds, it can detect uncovered stretches in an existing timeline and
  regenerate a complete, gap-filled timeline with computed amounts.

KEY CONCEPTS IN THIS FILE (types.go):
  - RentalWindow:  The overall [start, end] bound of a rental
  - InsuranceBond: A CNAM-covered sub-interval with a reimbursement amount
  - BillingPeriod: One billed or gap segment of the timeline
  - Gap:           An uncovered stretch reported by the detector
  - GeneratedPeriod: A candidate segment produced by the generator,
                     pending explicit confirmation

DESIGN PRINCIPLES:
  1. Purity: DetectGaps and the Generator are deterministic functions
     over their inputs; no I/O, no shared state
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Inclusive bounds: All intervals are [start, end] with whole-day
     granularity; duration = end - start + 1
  4. Totality: No function in this package returns an error for
     well-formed input; boundary validation lives in the rental package

SEE ALSO:
  - policy.go:   Rate derivation (30-day months, patient share, floor)
  - gaps.go:     Gap detection over an existing timeline
  - generate.go: Timeline regeneration from bonds
*/
package billing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT METHOD
// =============================================================================

// PaymentMethod identifies who pays a billing period and how.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentCNAM         PaymentMethod = "CNAM"
	PaymentCheque       PaymentMethod = "CHEQUE"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMAD          PaymentMethod = "MAD"
	PaymentTraite       PaymentMethod = "TRAITE"
)

// Valid returns true for a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCNAM, PaymentCheque, PaymentBankTransfer, PaymentMAD, PaymentTraite:
		return true
	}
	return false
}

// =============================================================================
// GAP REASON
// =============================================================================

// GapReason explains why a gap period is the patient's responsibility.
// Free text is also accepted for manually entered periods; these are the
// reasons the generator assigns.
type GapReason string

const (
	GapCNAMPending GapReason = "CNAM_PENDING" // before first bond: coverage not started yet
	GapCNAMGap     GapReason = "CNAM_GAP"     // between two bonds
	GapCNAMExpired GapReason = "CNAM_EXPIRED" // after last bond: coverage ran out
)

// =============================================================================
// RENTAL WINDOW
// =============================================================================

// RentalWindow is the immutable overall bound of a rental.
// End is nil for an open-ended rental.
type RentalWindow struct {
	Start Day
	End   *Day
}

// OpenEnded returns true when the rental has no end date yet.
func (w RentalWindow) OpenEnded() bool { return w.End == nil }

// =============================================================================
// INSURANCE BOND
// =============================================================================

// InsuranceBond is a CNAM-covered sub-interval of the rental.
// Coverage is expressed either as a monthly amount or as a total amount
// over a number of covered months.
type InsuranceBond struct {
	ID            string
	Start         Day
	End           Day
	MonthlyAmount decimal.Decimal
	TotalAmount   decimal.Decimal
	CoveredMonths int
}

// Span returns the bond's covered interval.
func (b InsuranceBond) Span() Span { return Span{Start: b.Start, End: b.End} }

// MonthlyEquivalent derives the bond's monthly coverage amount:
// MonthlyAmount when positive, else TotalAmount / CoveredMonths when both
// are positive. Returns zero when neither form is usable.
func (b InsuranceBond) MonthlyEquivalent() decimal.Decimal {
	if b.MonthlyAmount.IsPositive() {
		return b.MonthlyAmount
	}
	if b.TotalAmount.IsPositive() && b.CoveredMonths > 0 {
		derived := b.TotalAmount.Div(decimal.NewFromInt(int64(b.CoveredMonths)))
		if derived.IsPositive() {
			return derived
		}
	}
	return decimal.Zero
}

// =============================================================================
// BILLING PERIOD
// =============================================================================

// BillingPeriod is one segment of a rental's billing timeline, either a
// billed period or a patient-responsibility gap period. Bounds are
// inclusive; duration in days = End - Start + 1.
type BillingPeriod struct {
	ID            string
	Start         Day
	End           Day
	Amount        decimal.Decimal
	PaymentMethod PaymentMethod
	IsGapPeriod   bool
	GapReason     GapReason
	Notes         string

	// CNAMBondID back-references the bond this period originates from.
	// Set only for generated CNAM segments; no ownership implied.
	CNAMBondID string
}

// Span returns the period's interval.
func (p BillingPeriod) Span() Span { return Span{Start: p.Start, End: p.End} }

// Days returns the inclusive day count of the period.
func (p BillingPeriod) Days() int { return p.Span().InclusiveDays() }

// =============================================================================
// GAP - Detector output (transient, never persisted)
// =============================================================================

// Gap is a stretch of the rental window not covered by any billing period.
type Gap struct {
	Start    Day
	End      Day
	Duration int // inclusive day count
}

// Span returns the gap's interval.
func (g Gap) Span() Span { return Span{Start: g.Start, End: g.End} }

// =============================================================================
// GENERATED PERIOD - Generator output (pending confirmation)
// =============================================================================

// Source marks the provenance of a generated segment.
type Source string

const (
	SourceCNAMBond Source = "CNAM_BOND" // segment backed by a bond
	SourceGapAuto  Source = "GAP_AUTO"  // auto-filled uncovered segment
)

// GeneratedPeriod is a candidate billing period produced by the generator.
// It becomes a BillingPeriod only when the caller explicitly applies the
// generated timeline, which replaces the rental's whole period set.
type GeneratedPeriod struct {
	BillingPeriod
	Source Source
}
