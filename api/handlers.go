/*
handlers.go - HTTP API handlers for the rental billing engine

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Rentals:
    GET    /api/rentals                      List all rentals
    POST   /api/rentals                      Create rental
    GET    /api/rentals/{id}                 Get rental details
    DELETE /api/rentals/{id}                 Delete rental (cascades)

  Bonds:
    GET    /api/rentals/{id}/bonds           List CNAM bonds
    POST   /api/rentals/{id}/bonds           Attach a bond
    DELETE /api/bonds/{id}                   Delete a bond

  Periods:
    GET    /api/rentals/{id}/periods         List billing periods
    POST   /api/rentals/{id}/periods         Create period manually
    POST   /api/rentals/{id}/gap-periods     Seed a period from a gap
    PUT    /api/periods/{id}                 Edit period
    DELETE /api/periods/{id}                 Delete period
    POST   /api/rentals/{id}/periods/preview Preview regenerated timeline
    POST   /api/rentals/{id}/periods/apply   Apply (requires confirm:true)

  Analysis:
    GET    /api/rentals/{id}/gaps            Detect uncovered gaps
    GET    /api/rentals/{id}/summary         Aggregate figures
    GET    /api/rentals/{id}/scans           Background scan history

  Misc:
    GET    /api/policy                       Effective rate policy
    GET    /api/scenarios                    List demo scenarios
    POST   /api/scenarios/load               Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Rental/bond/period not found
  - 409: Apply without explicit confirmation
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medrent/billing-engine/billing"
	"github.com/medrent/billing-engine/rental"
	"github.com/medrent/billing-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *rental.Service

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler backed by the given store and policy.
func NewHandler(store *sqlite.Store, policy billing.RatePolicy) *Handler {
	svc := rental.NewService(store)
	svc.Policy = policy
	return &Handler{
		Store:   store,
		Service: svc,
	}
}

// =============================================================================
// RENTAL HANDLERS
// =============================================================================

// ListRentals returns all rentals.
func (h *Handler) ListRentals(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.Store.ListRentals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rentals", err)
		return
	}

	dtos := make([]RentalDTO, len(rentals))
	for i, rr := range rentals {
		dtos[i] = toRentalDTO(rr)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRental creates a new rental.
func (h *Handler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var req CreateRentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	window, err := parseWindow(req.WindowStart, req.WindowEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window dates (use YYYY-MM-DD)", err)
		return
	}

	created, err := h.Service.CreateRental(r.Context(), rental.Rental{
		PatientName: req.PatientName,
		DeviceLabel: req.DeviceLabel,
		MonthlyRate: amountFromFloat(req.MonthlyRate),
		Window:      window,
	})
	if err != nil {
		writeDomainError(w, "Failed to create rental", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRentalDTO(created))
}

// GetRental returns a single rental.
func (h *Handler) GetRental(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rr, err := h.Store.GetRental(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get rental", err)
		return
	}
	if rr == nil {
		writeError(w, http.StatusNotFound, "Rental not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toRentalDTO(*rr))
}

// DeleteRental removes a rental and its bonds and periods.
func (h *Handler) DeleteRental(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteRental(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete rental", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BOND HANDLERS
// =============================================================================

// ListBonds returns a rental's CNAM bonds, chronologically.
func (h *Handler) ListBonds(w http.ResponseWriter, r *http.Request) {
	rentalID := chi.URLParam(r, "id")

	bonds, err := h.Store.ListBonds(r.Context(), rentalID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bonds", err)
		return
	}

	dtos := make([]BondDTO, len(bonds))
	for i, b := range bonds {
		dtos[i] = toBondDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBond attaches a CNAM bond to a rental.
func (h *Handler) CreateBond(w http.ResponseWriter, r *http.Request) {
	rentalID := chi.URLParam(r, "id")

	var req CreateBondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := billing.ParseDay(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return
	}
	end, err := billing.ParseDay(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return
	}

	bond, err := h.Service.AddBond(r.Context(), rentalID, billing.InsuranceBond{
		Start:         start,
		End:           end,
		MonthlyAmount: amountFromFloat(req.MonthlyAmount),
		TotalAmount:   amountFromFloat(req.TotalAmount),
		CoveredMonths: req.CoveredMonths,
	})
	if err != nil {
		writeDomainError(w, "Failed to create bond", err)
		return
	}

	writeJSON(w, http.StatusCreated, toBondDTO(bond))
}

// DeleteBond removes a bond. Stored periods keep their amounts until the
// next apply.
func (h *Handler) DeleteBond(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteBond(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete bond", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// ListPeriods returns a rental's billing periods, chronologically.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	rentalID := chi.URLParam(r, "id")

	periods, err := h.Store.ListPeriods(r.Context(), rentalID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list periods", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTOs(periods))
}

// CreatePeriod creates a manual billing period.
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	h.savePeriod(w, r, "")
}

// UpdatePeriod edits an existing period in place.
func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	h.savePeriod(w, r, chi.URLParam(r, "periodID"))
}

func (h *Handler) savePeriod(w http.ResponseWriter, r *http.Request, periodID string) {
	rentalID := chi.URLParam(r, "id")

	var req SavePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := billing.ParseDay(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return
	}
	end, err := billing.ParseDay(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return
	}

	saved, err := h.Service.SavePeriod(r.Context(), rentalID, billing.BillingPeriod{
		ID:            periodID,
		Start:         start,
		End:           end,
		Amount:        amountFromFloat(req.Amount),
		PaymentMethod: billing.PaymentMethod(req.PaymentMethod),
		IsGapPeriod:   req.IsGapPeriod,
		GapReason:     billing.GapReason(req.GapReason),
		Notes:         req.Notes,
	})
	if err != nil {
		writeDomainError(w, "Failed to save period", err)
		return
	}

	status := http.StatusCreated
	if periodID != "" {
		status = http.StatusOK
	}
	writeJSON(w, status, toPeriodDTO(saved))
}

// CreateGapPeriod is the quick action that seeds a zero-amount period from
// a detected gap.
func (h *Handler) CreateGapPeriod(w http.ResponseWriter, r *http.Request) {
	rentalID := chi.URLParam(r, "id")

	var req GapPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := billing.ParseDay(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return
	}
	end, err := billing.ParseDay(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return
	}

	reason := billing.GapReason(req.GapReason)
	if reason == "" {
		reason = billing.GapCNAMGap
	}

	gap := billing.Gap{Start: start, End: end, Duration: billing.InclusiveDays(start, end)}
	saved, err := h.Service.CreateGapPeriod(r.Context(), rentalID, gap, reason)
	if err != nil {
		writeDomainError(w, "Failed to create gap period", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPeriodDTO(saved))
}

// DeletePeriod removes a period.
func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "periodID")

	if err := h.Store.DeletePeriod(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete period", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// PreviewPeriods returns the candidate regenerated timeline without
// writing anything.
func (h *Handler) PreviewPeriods(w http.ResponseWriter, r *http.Request) {
	rentalID := chi.URLParam(r, "id")

	proposal, err := h.Service.Preview(r.Context(), rentalID)
	if err != nil {
		writeDomainError(w, "Failed to preview periods", err)
		return
	}

	writeJSON(w, http.StatusOK, PreviewResponse{
		RentalID: proposal.RentalID,
		Periods:  toGeneratedPeriodDTOs(proposal.Periods),
		Summary:  toSummaryDTO(proposal.Summary),
	})
}

// ApplyPeriods replaces the rental's entire timeline with the regenerated
// one. Destructive, so the body must carry {"confirm": true}.
func (h *Handler) ApplyPeriods(w http.ResponseWriter, r *http.Request) {
	rentalID := chi.URLParam(r, "id")

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !req.Confirm {
		writeDomainError(w, "Apply replaces all existing periods", rental.ErrConfirmationRequired)
		return
	}

	periods, err := h.Service.Apply(r.Context(), rentalID)
	if err != nil {
		writeDomainError(w, "Failed to apply periods", err)
		return
	}

	writeJSON(w, http.StatusOK, ApplyResponse{
		RentalID: rentalID,
		Periods:  toPeriodDTOs(periods),
		Summary:  toSummaryDTO(billing.Summarize(periods)),
	})
}

// =============================================================================
// ANALYSIS HANDLERS
// =============================================================================

// GetGaps runs the gap detector over the persisted timeline.
func (h *Handler) GetGaps(w http.ResponseWriter, r *http.Request) {
	rentalID := chi.URLParam(r, "id")

	gaps, err := h.Service.Gaps(r.Context(), rentalID)
	if err != nil {
		writeDomainError(w, "Failed to detect gaps", err)
		return
	}
	writeJSON(w, http.StatusOK, toGapDTOs(gaps))
}

// GetSummary returns aggregate figures for the persisted timeline.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	rentalID := chi.URLParam(r, "id")

	summary, err := h.Service.Summary(r.Context(), rentalID)
	if err != nil {
		writeDomainError(w, "Failed to summarize", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// ListGapScans returns recent background scan results, newest first.
func (h *Handler) ListGapScans(w http.ResponseWriter, r *http.Request) {
	rentalID := chi.URLParam(r, "id")

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	scans, err := h.Store.ListGapScans(r.Context(), rentalID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scans", err)
		return
	}
	writeJSON(w, http.StatusOK, toGapScanDTOs(scans))
}

// GetPolicy returns the effective rate policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	p := h.Service.Policy
	share, _ := p.PatientShare.Float64()
	floor, _ := p.MinGapDailyRate.Float64()
	writeJSON(w, http.StatusOK, PolicyDTO{
		DaysPerMonth:         int(p.DaysPerMonth.IntPart()),
		PatientShare:         share,
		MinGapDailyRate:      floor,
		OpenEndedHorizonDays: p.OpenEndedHorizonDays,
	})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseWindow(startStr string, endStr *string) (billing.RentalWindow, error) {
	start, err := billing.ParseDay(startStr)
	if err != nil {
		return billing.RentalWindow{}, err
	}
	window := billing.RentalWindow{Start: start}
	if endStr != nil && *endStr != "" {
		end, err := billing.ParseDay(*endStr)
		if err != nil {
			return billing.RentalWindow{}, err
		}
		window.End = &end
	}
	return window, nil
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case rental.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, rental.ErrConfirmationRequired):
		writeError(w, http.StatusConflict, message, err)
	case rental.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
