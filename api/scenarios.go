/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates rentals, CNAM bonds,
	and billing periods that demonstrate specific features.

AVAILABLE SCENARIOS:

	fresh-rental:     New rental, no bonds, no periods yet
	bond-with-gaps:   One bond arriving late and ending early
	multi-bond:       Two bonds with an uncovered hole between them
	hand-edited:      Manual periods leaving gaps for the detector
	open-ended:       Ongoing rental with no end date

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create rentals via the service
 3. Attach bonds
 4. Apply or hand-write periods as the scenario demands

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "bond-with-gaps"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
  - rental/service.go: the operations scenarios drive
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medrent/billing-engine/billing"
	"github.com/medrent/billing-engine/rental"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-rental",
		Name:        "Fresh Rental",
		Description: "New oxygen concentrator rental, CNAM file still at the counter",
	},
	{
		ID:          "bond-with-gaps",
		Name:        "Bond With Gaps",
		Description: "One bond arriving ten days late and expiring before return",
	},
	{
		ID:          "multi-bond",
		Name:        "Multi-Bond Timeline",
		Description: "Two consecutive bonds with an uncovered hole between them",
	},
	{
		ID:          "hand-edited",
		Name:        "Hand-Edited Timeline",
		Description: "Manually entered periods leaving gaps for the detector to find",
	},
	{
		ID:          "open-ended",
		Name:        "Open-Ended Rental",
		Description: "Ongoing rental with no return date and no coverage yet",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "fresh-rental":
		err = h.loadFreshRentalScenario(ctx)
	case "bond-with-gaps":
		err = h.loadBondWithGapsScenario(ctx)
	case "multi-bond":
		err = h.loadMultiBondScenario(ctx)
	case "hand-edited":
		err = h.loadHandEditedScenario(ctx)
	case "open-ended":
		err = h.loadOpenEndedScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFreshRentalScenario(ctx context.Context) error {
	_, err := h.Service.CreateRental(ctx, rental.Rental{
		ID:          "demo-fresh",
		PatientName: "Ahmed Ben Salah",
		DeviceLabel: "Oxygen concentrator 5L",
		MonthlyRate: decimal.NewFromInt(1500),
		Window: billing.RentalWindow{
			Start: billing.NewDay(2024, time.January, 1),
			End:   dayRef(billing.NewDay(2024, time.March, 31)),
		},
	})
	return err
}

func (h *Handler) loadBondWithGapsScenario(ctx context.Context) error {
	r, err := h.Service.CreateRental(ctx, rental.Rental{
		ID:          "demo-gaps",
		PatientName: "Fatma Gharbi",
		DeviceLabel: "CPAP AirSense 10",
		MonthlyRate: decimal.NewFromInt(1500),
		Window: billing.RentalWindow{
			Start: billing.NewDay(2024, time.January, 1),
			End:   dayRef(billing.NewDay(2024, time.March, 31)),
		},
	})
	if err != nil {
		return err
	}

	// CNAM approval arrived ten days in and covers a single month.
	_, err = h.Service.AddBond(ctx, r.ID, billing.InsuranceBond{
		ID:            "demo-gaps-bond",
		Start:         billing.NewDay(2024, time.January, 10),
		End:           billing.NewDay(2024, time.February, 10),
		TotalAmount:   decimal.NewFromInt(1000),
		CoveredMonths: 1,
	})
	if err != nil {
		return err
	}

	_, err = h.Service.Apply(ctx, r.ID)
	return err
}

func (h *Handler) loadMultiBondScenario(ctx context.Context) error {
	r, err := h.Service.CreateRental(ctx, rental.Rental{
		ID:          "demo-multi",
		PatientName: "Mohamed Trabelsi",
		DeviceLabel: "Hospital bed, electric",
		MonthlyRate: decimal.NewFromInt(2400),
		Window: billing.RentalWindow{
			Start: billing.NewDay(2024, time.January, 1),
			End:   dayRef(billing.NewDay(2024, time.June, 30)),
		},
	})
	if err != nil {
		return err
	}

	bonds := []billing.InsuranceBond{
		{
			ID:            "demo-multi-bond-1",
			Start:         billing.NewDay(2024, time.January, 1),
			End:           billing.NewDay(2024, time.February, 29),
			TotalAmount:   decimal.NewFromInt(3200),
			CoveredMonths: 2,
		},
		{
			// Renewal was filed late: three uncovered weeks in between.
			ID:            "demo-multi-bond-2",
			Start:         billing.NewDay(2024, time.March, 21),
			End:           billing.NewDay(2024, time.May, 20),
			TotalAmount:   decimal.NewFromInt(3200),
			CoveredMonths: 2,
		},
	}
	for _, b := range bonds {
		if _, err := h.Service.AddBond(ctx, r.ID, b); err != nil {
			return err
		}
	}

	_, err = h.Service.Apply(ctx, r.ID)
	return err
}

func (h *Handler) loadHandEditedScenario(ctx context.Context) error {
	r, err := h.Service.CreateRental(ctx, rental.Rental{
		ID:          "demo-edited",
		PatientName: "Leila Mansouri",
		DeviceLabel: "Wheelchair, standard",
		MonthlyRate: decimal.NewFromInt(300),
		Window: billing.RentalWindow{
			Start: billing.NewDay(2024, time.January, 1),
			End:   dayRef(billing.NewDay(2024, time.January, 31)),
		},
	})
	if err != nil {
		return err
	}

	// Two paid stretches entered by hand; the rest is for the detector.
	periods := []billing.BillingPeriod{
		{
			ID:            "demo-edited-p1",
			Start:         billing.NewDay(2024, time.January, 1),
			End:           billing.NewDay(2024, time.January, 10),
			Amount:        decimal.NewFromInt(100),
			PaymentMethod: billing.PaymentCash,
			Notes:         "paid at pickup",
		},
		{
			ID:            "demo-edited-p2",
			Start:         billing.NewDay(2024, time.January, 15),
			End:           billing.NewDay(2024, time.January, 20),
			Amount:        decimal.NewFromInt(60),
			PaymentMethod: billing.PaymentCheque,
		},
	}
	for _, p := range periods {
		if _, err := h.Service.SavePeriod(ctx, r.ID, p); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadOpenEndedScenario(ctx context.Context) error {
	_, err := h.Service.CreateRental(ctx, rental.Rental{
		ID:          "demo-open",
		PatientName: "Sami Jebali",
		DeviceLabel: "Oxygen concentrator 10L",
		MonthlyRate: decimal.NewFromInt(900),
		Window: billing.RentalWindow{
			Start: billing.NewDay(2024, time.June, 1),
		},
	})
	return err
}

func dayRef(d billing.Day) *billing.Day {
	return &d
}
