package rental

import (
	"context"

	"github.com/medrent/billing-engine/billing"
)

// Store is the persistence seam between the pure engine and its
// collaborators. Implementations: store/sqlite (production) and
// rental/store.Memory (tests).
//
// Contract notes:
//   - Get* return (nil, nil) for a missing record; Delete* return the
//     matching *NotFound sentinel.
//   - Save* upsert by ID.
//   - ReplacePeriods is atomic: a concurrent reader never observes a
//     partially replaced timeline.
type Store interface {
	SaveRental(ctx context.Context, r Rental) error
	GetRental(ctx context.Context, id string) (*Rental, error)
	ListRentals(ctx context.Context) ([]Rental, error)
	DeleteRental(ctx context.Context, id string) error

	SaveBond(ctx context.Context, rentalID string, bond billing.InsuranceBond) error
	ListBonds(ctx context.Context, rentalID string) ([]billing.InsuranceBond, error)
	DeleteBond(ctx context.Context, bondID string) error

	SavePeriod(ctx context.Context, rentalID string, period billing.BillingPeriod) error
	ListPeriods(ctx context.Context, rentalID string) ([]billing.BillingPeriod, error)
	DeletePeriod(ctx context.Context, periodID string) error

	// ReplacePeriods swaps the rental's whole period set in one atomic
	// operation. Used only by the confirmed apply.
	ReplacePeriods(ctx context.Context, rentalID string, periods []billing.BillingPeriod) error
}
