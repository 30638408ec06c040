// Package rental composes the billing engine with persistence: rental
// entities, boundary validation, and the two-phase generate/confirm
// protocol that replaces a rental's billing timeline.
package rental

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/medrent/billing-engine/billing"
)

// Rental is the medical-equipment rental the engine reconciles.
// The window and monthly rate are the engine's read-only inputs; the
// bonds and billing periods hang off it in the store.
type Rental struct {
	ID          string
	PatientName string
	DeviceLabel string
	MonthlyRate decimal.Decimal
	Window      billing.RentalWindow
	CreatedAt   time.Time
}

// Proposal is a candidate timeline awaiting explicit confirmation.
// Applying it replaces the rental's entire persisted period set.
type Proposal struct {
	RentalID string
	Periods  []billing.GeneratedPeriod
	Summary  billing.Summary
}
