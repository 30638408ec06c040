/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Domain amounts are decimal.Decimal; DTOs expose them as float64 for
  JSON ergonomics. Parsing goes back through decimal so no float ever
  reaches the engine's arithmetic.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/medrent/billing-engine/billing"
	"github.com/medrent/billing-engine/rental"
	"github.com/medrent/billing-engine/store/sqlite"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// RentalDTO represents a rental in API responses.
type RentalDTO struct {
	ID          string  `json:"id"`
	PatientName string  `json:"patient_name"`
	DeviceLabel string  `json:"device_label"`
	MonthlyRate float64 `json:"monthly_rate"`
	WindowStart string  `json:"window_start"`
	WindowEnd   *string `json:"window_end,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// CreateRentalRequest is the request to create a rental.
type CreateRentalRequest struct {
	PatientName string  `json:"patient_name"`
	DeviceLabel string  `json:"device_label"`
	MonthlyRate float64 `json:"monthly_rate"`
	WindowStart string  `json:"window_start"`
	WindowEnd   *string `json:"window_end,omitempty"`
}

// BondDTO represents an insurance bond.
type BondDTO struct {
	ID            string  `json:"id"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	MonthlyAmount float64 `json:"monthly_amount,omitempty"`
	TotalAmount   float64 `json:"total_amount,omitempty"`
	CoveredMonths int     `json:"covered_months,omitempty"`
}

// CreateBondRequest is the request to attach a bond to a rental.
type CreateBondRequest struct {
	Start         string  `json:"start"`
	End           string  `json:"end"`
	MonthlyAmount float64 `json:"monthly_amount,omitempty"`
	TotalAmount   float64 `json:"total_amount,omitempty"`
	CoveredMonths int     `json:"covered_months,omitempty"`
}

// PeriodDTO represents a billing period.
type PeriodDTO struct {
	ID            string  `json:"id"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	DurationDays  int     `json:"duration_days"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	IsGapPeriod   bool    `json:"is_gap_period"`
	GapReason     string  `json:"gap_reason,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	CNAMBondID    string  `json:"cnam_bond_id,omitempty"`
}

// GeneratedPeriodDTO is a candidate period in a preview response.
type GeneratedPeriodDTO struct {
	PeriodDTO
	Source string `json:"source"`
}

// SavePeriodRequest is the request to create or edit a period.
type SavePeriodRequest struct {
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	IsGapPeriod   bool    `json:"is_gap_period"`
	GapReason     string  `json:"gap_reason,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// GapPeriodRequest seeds a gap period from a detected gap.
type GapPeriodRequest struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	GapReason string `json:"gap_reason,omitempty"`
}

// GapDTO represents a detected uncovered stretch.
type GapDTO struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	DurationDays int    `json:"duration_days"`
}

// SummaryDTO carries the aggregate figures for a timeline.
type SummaryDTO struct {
	TotalAmount  float64 `json:"total_amount"`
	CNAMTotal    float64 `json:"cnam_total"`
	PatientTotal float64 `json:"patient_total"`
	TotalDays    int     `json:"total_days"`
	PeriodCount  int     `json:"period_count"`
	GapPeriods   int     `json:"gap_periods"`
}

// PreviewResponse is the candidate timeline shown before confirmation.
type PreviewResponse struct {
	RentalID string               `json:"rental_id"`
	Periods  []GeneratedPeriodDTO `json:"periods"`
	Summary  SummaryDTO           `json:"summary"`
}

// ApplyRequest gates the destructive replace behind explicit confirmation.
type ApplyRequest struct {
	Confirm bool `json:"confirm"`
}

// ApplyResponse returns the persisted timeline after a confirmed apply.
type ApplyResponse struct {
	RentalID string      `json:"rental_id"`
	Periods  []PeriodDTO `json:"periods"`
	Summary  SummaryDTO  `json:"summary"`
}

// PolicyDTO exposes the effective rate policy.
type PolicyDTO struct {
	DaysPerMonth         int     `json:"days_per_month"`
	PatientShare         float64 `json:"patient_share"`
	MinGapDailyRate      float64 `json:"min_gap_daily_rate"`
	OpenEndedHorizonDays int     `json:"open_ended_horizon_days"`
}

// GapScanDTO is one background scan audit row.
type GapScanDTO struct {
	ID            string `json:"id"`
	GapCount      int    `json:"gap_count"`
	UncoveredDays int    `json:"uncovered_days"`
	ScannedAt     string `json:"scanned_at"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRentalDTO(r rental.Rental) RentalDTO {
	rate, _ := r.MonthlyRate.Float64()
	dto := RentalDTO{
		ID:          r.ID,
		PatientName: r.PatientName,
		DeviceLabel: r.DeviceLabel,
		MonthlyRate: rate,
		WindowStart: r.Window.Start.String(),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.Window.End != nil {
		end := r.Window.End.String()
		dto.WindowEnd = &end
	}
	return dto
}

func toBondDTO(b billing.InsuranceBond) BondDTO {
	monthly, _ := b.MonthlyAmount.Float64()
	total, _ := b.TotalAmount.Float64()
	return BondDTO{
		ID:            b.ID,
		Start:         b.Start.String(),
		End:           b.End.String(),
		MonthlyAmount: monthly,
		TotalAmount:   total,
		CoveredMonths: b.CoveredMonths,
	}
}

func toPeriodDTO(p billing.BillingPeriod) PeriodDTO {
	amount, _ := p.Amount.Float64()
	return PeriodDTO{
		ID:            p.ID,
		Start:         p.Start.String(),
		End:           p.End.String(),
		DurationDays:  p.Days(),
		Amount:        amount,
		PaymentMethod: string(p.PaymentMethod),
		IsGapPeriod:   p.IsGapPeriod,
		GapReason:     string(p.GapReason),
		Notes:         p.Notes,
		CNAMBondID:    p.CNAMBondID,
	}
}

func toPeriodDTOs(periods []billing.BillingPeriod) []PeriodDTO {
	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	return dtos
}

func toGeneratedPeriodDTOs(generated []billing.GeneratedPeriod) []GeneratedPeriodDTO {
	dtos := make([]GeneratedPeriodDTO, len(generated))
	for i, g := range generated {
		dtos[i] = GeneratedPeriodDTO{
			PeriodDTO: toPeriodDTO(g.BillingPeriod),
			Source:    string(g.Source),
		}
	}
	return dtos
}

func toGapDTOs(gaps []billing.Gap) []GapDTO {
	dtos := make([]GapDTO, len(gaps))
	for i, g := range gaps {
		dtos[i] = GapDTO{Start: g.Start.String(), End: g.End.String(), DurationDays: g.Duration}
	}
	return dtos
}

func toSummaryDTO(s billing.Summary) SummaryDTO {
	total, _ := s.TotalAmount.Float64()
	cnam, _ := s.CNAMTotal.Float64()
	patient, _ := s.PatientTotal.Float64()
	return SummaryDTO{
		TotalAmount:  total,
		CNAMTotal:    cnam,
		PatientTotal: patient,
		TotalDays:    s.TotalDays,
		PeriodCount:  s.PeriodCount,
		GapPeriods:   s.GapPeriods,
	}
}

func toGapScanDTOs(scans []sqlite.GapScan) []GapScanDTO {
	dtos := make([]GapScanDTO, len(scans))
	for i, scan := range scans {
		dtos[i] = GapScanDTO{
			ID:            scan.ID,
			GapCount:      scan.GapCount,
			UncoveredDays: scan.UncoveredDays,
			ScannedAt:     scan.ScannedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

func amountFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
