package rental

import (
	"github.com/medrent/billing-engine/billing"
)

// Boundary validation. The engine's non-positive-duration guards assume
// well-formed intervals and would silently swallow inverted bounds, so
// every mutation path validates here first and fails loudly.

// ValidateWindow checks a rental window.
func ValidateWindow(w billing.RentalWindow) error {
	if w.Start.IsZero() {
		return invalid("window.start", "start date is required")
	}
	if w.End != nil && w.End.Before(w.Start) {
		return invalid("window.end", "end date precedes start date")
	}
	return nil
}

// ValidateBond checks an insurance bond before it reaches the engine.
func ValidateBond(b billing.InsuranceBond) error {
	if b.Start.IsZero() || b.End.IsZero() {
		return invalid("bond", "start and end dates are required")
	}
	if b.End.Before(b.Start) {
		return invalid("bond", "end date precedes start date")
	}
	if b.MonthlyAmount.IsNegative() {
		return invalid("bond.monthly_amount", "amount cannot be negative")
	}
	if b.TotalAmount.IsNegative() {
		return invalid("bond.total_amount", "amount cannot be negative")
	}
	if b.CoveredMonths < 0 {
		return invalid("bond.covered_months", "cannot be negative")
	}
	return nil
}

// ValidatePeriod checks a manually entered or edited billing period.
func ValidatePeriod(p billing.BillingPeriod) error {
	if p.Start.IsZero() || p.End.IsZero() {
		return invalid("period", "start and end dates are required")
	}
	if p.End.Before(p.Start) {
		return invalid("period", "end date precedes start date")
	}
	if p.Amount.IsNegative() {
		return invalid("period.amount", "amount cannot be negative")
	}
	if !p.PaymentMethod.Valid() {
		return invalid("period.payment_method", "unknown payment method")
	}
	return nil
}
