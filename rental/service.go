package rental

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medrent/billing-engine/billing"
)

// Service orchestrates the reconciliation engine over persisted rentals.
// The engine stays pure; this layer loads inputs, validates at the
// boundary, and owns the destructive two-phase apply.
type Service struct {
	Store  Store
	Policy billing.RatePolicy
}

// NewService creates a service with the default rate policy.
func NewService(store Store) *Service {
	return &Service{Store: store, Policy: billing.DefaultRatePolicy()}
}

// =============================================================================
// RENTAL / BOND MANAGEMENT
// =============================================================================

// CreateRental validates and persists a rental, assigning an ID when absent.
func (s *Service) CreateRental(ctx context.Context, r Rental) (Rental, error) {
	if err := ValidateWindow(r.Window); err != nil {
		return Rental{}, err
	}
	if r.MonthlyRate.IsNegative() {
		return Rental{}, invalid("monthly_rate", "cannot be negative")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if err := s.Store.SaveRental(ctx, r); err != nil {
		return Rental{}, fmt.Errorf("failed to save rental: %w", err)
	}
	return r, nil
}

// AddBond validates and attaches a bond to a rental.
func (s *Service) AddBond(ctx context.Context, rentalID string, bond billing.InsuranceBond) (billing.InsuranceBond, error) {
	if _, err := s.mustGetRental(ctx, rentalID); err != nil {
		return billing.InsuranceBond{}, err
	}
	if err := ValidateBond(bond); err != nil {
		return billing.InsuranceBond{}, err
	}
	if bond.ID == "" {
		bond.ID = uuid.NewString()
	}
	if err := s.Store.SaveBond(ctx, rentalID, bond); err != nil {
		return billing.InsuranceBond{}, fmt.Errorf("failed to save bond: %w", err)
	}
	return bond, nil
}

// =============================================================================
// PERIOD EDITING
// =============================================================================

// SavePeriod validates and persists a manually created or edited period.
func (s *Service) SavePeriod(ctx context.Context, rentalID string, p billing.BillingPeriod) (billing.BillingPeriod, error) {
	if _, err := s.mustGetRental(ctx, rentalID); err != nil {
		return billing.BillingPeriod{}, err
	}
	if err := ValidatePeriod(p); err != nil {
		return billing.BillingPeriod{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.Store.SavePeriod(ctx, rentalID, p); err != nil {
		return billing.BillingPeriod{}, fmt.Errorf("failed to save period: %w", err)
	}
	return p, nil
}

// CreateGapPeriod seeds a billing period from a detected gap (the "create
// gap period" quick action). The conventional default is a zero amount;
// the user overrides it by editing afterwards.
func (s *Service) CreateGapPeriod(ctx context.Context, rentalID string, gap billing.Gap, reason billing.GapReason) (billing.BillingPeriod, error) {
	p := billing.BillingPeriod{
		Start:         gap.Start,
		End:           gap.End,
		Amount:        decimal.Zero,
		PaymentMethod: billing.PaymentCash,
		IsGapPeriod:   true,
		GapReason:     reason,
	}
	return s.SavePeriod(ctx, rentalID, p)
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Preview generates a candidate timeline without touching stored state.
// The caller shows it for confirmation before Apply.
func (s *Service) Preview(ctx context.Context, rentalID string) (*Proposal, error) {
	generated, err := s.regenerate(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	return &Proposal{
		RentalID: rentalID,
		Periods:  generated,
		Summary:  billing.SummarizeGenerated(generated),
	}, nil
}

// Apply regenerates the timeline and replaces the rental's entire period
// set with it, atomically. Destructive: prior manual entries are gone.
// The HTTP layer gates this behind an explicit confirmation flag.
func (s *Service) Apply(ctx context.Context, rentalID string) ([]billing.BillingPeriod, error) {
	generated, err := s.regenerate(ctx, rentalID)
	if err != nil {
		return nil, err
	}

	periods := make([]billing.BillingPeriod, len(generated))
	for i, g := range generated {
		p := g.BillingPeriod
		p.ID = uuid.NewString()
		periods[i] = p
	}

	if err := s.Store.ReplacePeriods(ctx, rentalID, periods); err != nil {
		return nil, fmt.Errorf("failed to replace periods: %w", err)
	}
	return periods, nil
}

func (s *Service) regenerate(ctx context.Context, rentalID string) ([]billing.GeneratedPeriod, error) {
	r, err := s.mustGetRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	bonds, err := s.Store.ListBonds(ctx, rentalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bonds: %w", err)
	}

	gen := billing.Generator{Policy: s.Policy}
	return gen.Generate(r.Window, r.MonthlyRate, bonds), nil
}

// Gaps runs the detector over the rental's persisted timeline.
func (s *Service) Gaps(ctx context.Context, rentalID string) ([]billing.Gap, error) {
	r, err := s.mustGetRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	periods, err := s.Store.ListPeriods(ctx, rentalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load periods: %w", err)
	}
	return billing.DetectGaps(periods, r.Window), nil
}

// Summary returns the aggregate figures for the persisted timeline.
func (s *Service) Summary(ctx context.Context, rentalID string) (billing.Summary, error) {
	if _, err := s.mustGetRental(ctx, rentalID); err != nil {
		return billing.Summary{}, err
	}
	periods, err := s.Store.ListPeriods(ctx, rentalID)
	if err != nil {
		return billing.Summary{}, fmt.Errorf("failed to load periods: %w", err)
	}
	return billing.Summarize(periods), nil
}

func (s *Service) mustGetRental(ctx context.Context, rentalID string) (*Rental, error) {
	r, err := s.Store.GetRental(ctx, rentalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rental: %w", err)
	}
	if r == nil {
		return nil, ErrRentalNotFound
	}
	return r, nil
}
