package billing_test

import (
	"testing"
	"time"

	"github.com/medrent/billing-engine/billing"
)

func TestDailyEquipmentRate(t *testing.T) {
	p := billing.DefaultRatePolicy()

	daily := p.DailyEquipmentRate(money("1500"))
	if !daily.Equal(money("50")) {
		t.Errorf("expected 1500/30 = 50, got %s", daily)
	}
}

func TestGapDailyRate_NoBonds_ShareOfEquipmentRate(t *testing.T) {
	// With no bonds at all, the heuristic applies without a floor.
	p := billing.DefaultRatePolicy()

	rate := p.GapDailyRate(money("1500"), nil)
	if !rate.Equal(money("10")) {
		t.Errorf("expected 50 * 0.2 = 10, got %s", rate)
	}

	// A very cheap device can yield a sub-unit rate here.
	rate = p.GapDailyRate(money("30"), nil)
	if !rate.Equal(money("0.2")) {
		t.Errorf("expected 1 * 0.2 = 0.2, got %s", rate)
	}
}

func TestGapDailyRate_BondImpliedRateWins(t *testing.T) {
	// GIVEN: A bond whose implied daily rate undercuts the 20% heuristic
	// WHEN: Deriving the gap rate
	// THEN: The bond's implied rate is used (patient pays the lesser)

	p := billing.DefaultRatePolicy()
	bonds := []billing.InsuranceBond{{
		ID:            "bond-1",
		Start:         billing.NewDay(2024, time.January, 1),
		End:           billing.NewDay(2024, time.January, 31),
		MonthlyAmount: money("150"), // implied 5/day
	}}

	rate := p.GapDailyRate(money("1500"), bonds) // heuristic would be 10
	if !rate.Equal(money("5")) {
		t.Errorf("expected bond-implied 5/day, got %s", rate)
	}
}

func TestGapDailyRate_FloorApplies(t *testing.T) {
	// GIVEN: A bond configuration that derives a sub-unit daily rate
	// WHEN: Deriving the gap rate
	// THEN: The 1 unit/day floor holds

	p := billing.DefaultRatePolicy()
	bonds := []billing.InsuranceBond{{
		ID:            "bond-1",
		Start:         billing.NewDay(2024, time.January, 1),
		End:           billing.NewDay(2024, time.January, 31),
		MonthlyAmount: money("3"), // implied 0.1/day
	}}

	rate := p.GapDailyRate(money("30"), bonds)
	if !rate.Equal(money("1")) {
		t.Errorf("expected floor of 1, got %s", rate)
	}
}

func TestGapDailyRate_UnusableBondAmounts_FallsBackToShare(t *testing.T) {
	// GIVEN: A bond with no usable monetary fields
	// WHEN: Deriving the gap rate
	// THEN: The heuristic applies, still floored since a bond exists

	p := billing.DefaultRatePolicy()
	bonds := []billing.InsuranceBond{{
		ID:    "bond-1",
		Start: billing.NewDay(2024, time.January, 1),
		End:   billing.NewDay(2024, time.January, 31),
	}}

	rate := p.GapDailyRate(money("1500"), bonds)
	if !rate.Equal(money("10")) {
		t.Errorf("expected 10, got %s", rate)
	}

	rate = p.GapDailyRate(money("30"), bonds) // share would be 0.2
	if !rate.Equal(money("1")) {
		t.Errorf("expected floor of 1, got %s", rate)
	}
}

func TestGapDailyRate_AlwaysAtLeastFloorWithBonds(t *testing.T) {
	// Rate-floor property: for any bond configuration, the rate is >= 1.
	p := billing.DefaultRatePolicy()

	configs := [][]billing.InsuranceBond{
		{{ID: "a", MonthlyAmount: money("0.5")}},
		{{ID: "b", TotalAmount: money("2"), CoveredMonths: 12}},
		{{ID: "c", TotalAmount: money("-10"), CoveredMonths: 1}},
		{{ID: "d"}},
	}

	for _, bonds := range configs {
		rate := p.GapDailyRate(money("6"), bonds)
		if rate.LessThan(money("1")) {
			t.Errorf("rate %s below floor for bonds %+v", rate, bonds)
		}
	}
}

func TestMonthlyEquivalent(t *testing.T) {
	// Monthly amount takes precedence; total/months is the fallback.
	b := billing.InsuranceBond{MonthlyAmount: money("200"), TotalAmount: money("1200"), CoveredMonths: 3}
	if got := b.MonthlyEquivalent(); !got.Equal(money("200")) {
		t.Errorf("expected monthly amount 200, got %s", got)
	}

	b = billing.InsuranceBond{TotalAmount: money("1200"), CoveredMonths: 3}
	if got := b.MonthlyEquivalent(); !got.Equal(money("400")) {
		t.Errorf("expected 1200/3 = 400, got %s", got)
	}

	b = billing.InsuranceBond{TotalAmount: money("1200")}
	if got := b.MonthlyEquivalent(); !got.IsZero() {
		t.Errorf("expected zero without covered months, got %s", got)
	}

	b = billing.InsuranceBond{MonthlyAmount: money("-5")}
	if got := b.MonthlyEquivalent(); !got.IsZero() {
		t.Errorf("negative monthly amount should not be usable, got %s", got)
	}
}
