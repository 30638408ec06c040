package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrent/billing-engine/billing"
	"github.com/medrent/billing-engine/rental"
	"github.com/medrent/billing-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func saveTestRental(t *testing.T, s *sqlite.Store, id string) rental.Rental {
	t.Helper()
	end := billing.NewDay(2024, time.March, 31)
	r := rental.Rental{
		ID:          id,
		PatientName: "M. Trabelsi",
		DeviceLabel: "oxygen concentrator",
		MonthlyRate: decimal.NewFromInt(1500),
		Window: billing.RentalWindow{
			Start: billing.NewDay(2024, time.January, 1),
			End:   &end,
		},
		CreatedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveRental(context.Background(), r))
	return r
}

func TestRentalRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	saved := saveTestRental(t, s, "rental-1")

	got, err := s.GetRental(ctx, "rental-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.PatientName, got.PatientName)
	assert.True(t, got.MonthlyRate.Equal(decimal.NewFromInt(1500)))
	require.NotNil(t, got.Window.End)
	assert.True(t, got.Window.End.Equal(billing.NewDay(2024, time.March, 31)))
}

func TestGetRental_Missing(t *testing.T) {
	s := newStore(t)

	got, err := s.GetRental(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got, "missing rental is (nil, nil), not an error")
}

func TestRental_OpenEndedWindow(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	r := rental.Rental{
		ID:          "rental-open",
		PatientName: "S. Gharbi",
		DeviceLabel: "CPAP",
		MonthlyRate: decimal.NewFromInt(900),
		Window:      billing.RentalWindow{Start: billing.NewDay(2024, time.June, 1)},
	}
	require.NoError(t, s.SaveRental(ctx, r))

	got, err := s.GetRental(ctx, "rental-open")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Window.End, "open-ended window must round-trip as nil")
}

func TestBondRoundTrip_OrderedByStart(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	saveTestRental(t, s, "rental-1")

	later := billing.InsuranceBond{
		ID:            "bond-2",
		Start:         billing.NewDay(2024, time.March, 1),
		End:           billing.NewDay(2024, time.March, 31),
		MonthlyAmount: decimal.NewFromInt(300),
	}
	earlier := billing.InsuranceBond{
		ID:            "bond-1",
		Start:         billing.NewDay(2024, time.January, 1),
		End:           billing.NewDay(2024, time.January, 31),
		TotalAmount:   decimal.NewFromInt(1200),
		CoveredMonths: 3,
	}
	require.NoError(t, s.SaveBond(ctx, "rental-1", later))
	require.NoError(t, s.SaveBond(ctx, "rental-1", earlier))

	bonds, err := s.ListBonds(ctx, "rental-1")
	require.NoError(t, err)
	require.Len(t, bonds, 2)
	assert.Equal(t, "bond-1", bonds[0].ID, "bonds come back chronologically")
	assert.True(t, bonds[0].TotalAmount.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, 3, bonds[0].CoveredMonths)
	assert.True(t, bonds[1].MonthlyAmount.Equal(decimal.NewFromInt(300)))
}

func TestDeleteBond_Missing(t *testing.T) {
	s := newStore(t)

	err := s.DeleteBond(context.Background(), "nope")
	assert.ErrorIs(t, err, rental.ErrBondNotFound)
}

func TestPeriodRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	saveTestRental(t, s, "rental-1")

	p := billing.BillingPeriod{
		ID:            "period-1",
		Start:         billing.NewDay(2024, time.January, 1),
		End:           billing.NewDay(2024, time.January, 9),
		Amount:        decimal.NewFromInt(90),
		PaymentMethod: billing.PaymentCash,
		IsGapPeriod:   true,
		GapReason:     billing.GapCNAMPending,
		Notes:         "9 days x 10.000/day",
	}
	require.NoError(t, s.SavePeriod(ctx, "rental-1", p))

	periods, err := s.ListPeriods(ctx, "rental-1")
	require.NoError(t, err)
	require.Len(t, periods, 1)

	got := periods[0]
	assert.True(t, got.IsGapPeriod)
	assert.Equal(t, billing.GapCNAMPending, got.GapReason)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, p.Notes, got.Notes)
}

func TestSavePeriod_UpsertsByID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	saveTestRental(t, s, "rental-1")

	p := billing.BillingPeriod{
		ID:            "period-1",
		Start:         billing.NewDay(2024, time.January, 1),
		End:           billing.NewDay(2024, time.January, 31),
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: billing.PaymentCash,
	}
	require.NoError(t, s.SavePeriod(ctx, "rental-1", p))

	p.Amount = decimal.NewFromInt(250)
	p.PaymentMethod = billing.PaymentCheque
	require.NoError(t, s.SavePeriod(ctx, "rental-1", p))

	periods, err := s.ListPeriods(ctx, "rental-1")
	require.NoError(t, err)
	require.Len(t, periods, 1, "same ID must update, not duplicate")
	assert.True(t, periods[0].Amount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, billing.PaymentCheque, periods[0].PaymentMethod)
}

func TestReplacePeriods_Wholesale(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	saveTestRental(t, s, "rental-1")

	old := billing.BillingPeriod{
		ID:            "manual-1",
		Start:         billing.NewDay(2024, time.January, 1),
		End:           billing.NewDay(2024, time.January, 5),
		Amount:        decimal.NewFromInt(42),
		PaymentMethod: billing.PaymentMAD,
	}
	require.NoError(t, s.SavePeriod(ctx, "rental-1", old))

	replacement := []billing.BillingPeriod{
		{
			ID:            "gen-1",
			Start:         billing.NewDay(2024, time.January, 1),
			End:           billing.NewDay(2024, time.February, 15),
			Amount:        decimal.NewFromInt(500),
			PaymentMethod: billing.PaymentCNAM,
			CNAMBondID:    "bond-1",
		},
		{
			ID:            "gen-2",
			Start:         billing.NewDay(2024, time.February, 16),
			End:           billing.NewDay(2024, time.March, 31),
			Amount:        decimal.NewFromInt(450),
			PaymentMethod: billing.PaymentCash,
			IsGapPeriod:   true,
			GapReason:     billing.GapCNAMExpired,
		},
	}
	require.NoError(t, s.ReplacePeriods(ctx, "rental-1", replacement))

	periods, err := s.ListPeriods(ctx, "rental-1")
	require.NoError(t, err)
	require.Len(t, periods, 2, "old periods must be gone")
	assert.Equal(t, "gen-1", periods[0].ID)
	assert.Equal(t, "bond-1", periods[0].CNAMBondID)
}

func TestReplacePeriods_EmptySetClearsTimeline(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	saveTestRental(t, s, "rental-1")

	require.NoError(t, s.SavePeriod(ctx, "rental-1", billing.BillingPeriod{
		ID:            "p-1",
		Start:         billing.NewDay(2024, time.January, 1),
		End:           billing.NewDay(2024, time.January, 31),
		Amount:        decimal.NewFromInt(10),
		PaymentMethod: billing.PaymentCash,
	}))

	require.NoError(t, s.ReplacePeriods(ctx, "rental-1", nil))

	periods, err := s.ListPeriods(ctx, "rental-1")
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestDeleteRental_CascadesToBondsAndPeriods(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	saveTestRental(t, s, "rental-1")

	require.NoError(t, s.SaveBond(ctx, "rental-1", billing.InsuranceBond{
		ID:    "bond-1",
		Start: billing.NewDay(2024, time.January, 1),
		End:   billing.NewDay(2024, time.January, 31),
	}))
	require.NoError(t, s.SavePeriod(ctx, "rental-1", billing.BillingPeriod{
		ID:            "p-1",
		Start:         billing.NewDay(2024, time.January, 1),
		End:           billing.NewDay(2024, time.January, 31),
		Amount:        decimal.Zero,
		PaymentMethod: billing.PaymentCash,
	}))

	require.NoError(t, s.DeleteRental(ctx, "rental-1"))

	bonds, err := s.ListBonds(ctx, "rental-1")
	require.NoError(t, err)
	assert.Empty(t, bonds)

	periods, err := s.ListPeriods(ctx, "rental-1")
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestGapScans(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	saveTestRental(t, s, "rental-1")

	first := sqlite.GapScan{
		ID:            "scan-1",
		RentalID:      "rental-1",
		GapCount:      2,
		UncoveredDays: 15,
		ScannedAt:     time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC),
	}
	second := sqlite.GapScan{
		ID:            "scan-2",
		RentalID:      "rental-1",
		GapCount:      0,
		UncoveredDays: 0,
		ScannedAt:     time.Date(2024, 2, 2, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveGapScan(ctx, first))
	require.NoError(t, s.SaveGapScan(ctx, second))

	scans, err := s.ListGapScans(ctx, "rental-1", 10)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, "scan-2", scans[0].ID, "newest first")
	assert.Equal(t, 2, scans[1].GapCount)
}
