package rental_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrent/billing-engine/billing"
	"github.com/medrent/billing-engine/rental"
	"github.com/medrent/billing-engine/rental/store"
)

func newService() (*rental.Service, *store.Memory) {
	mem := store.NewMemory()
	return rental.NewService(mem), mem
}

func testRental(t *testing.T, svc *rental.Service, end *billing.Day) rental.Rental {
	t.Helper()
	r, err := svc.CreateRental(context.Background(), rental.Rental{
		PatientName: "A. Ben Salah",
		DeviceLabel: "CPAP",
		MonthlyRate: decimal.NewFromInt(1500),
		Window: billing.RentalWindow{
			Start: billing.NewDay(2024, time.January, 1),
			End:   end,
		},
	})
	require.NoError(t, err)
	return r
}

func dayPtr(d billing.Day) *billing.Day { return &d }

func TestCreateRental_AssignsID(t *testing.T) {
	svc, _ := newService()

	r := testRental(t, svc, dayPtr(billing.NewDay(2024, time.March, 31)))
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestCreateRental_RejectsInvertedWindow(t *testing.T) {
	svc, _ := newService()

	_, err := svc.CreateRental(context.Background(), rental.Rental{
		MonthlyRate: decimal.NewFromInt(1500),
		Window: billing.RentalWindow{
			Start: billing.NewDay(2024, time.March, 31),
			End:   dayPtr(billing.NewDay(2024, time.January, 1)),
		},
	})
	require.Error(t, err)

	var verr *rental.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.True(t, rental.IsClientError(err))
}

func TestAddBond_RejectsInvertedInterval(t *testing.T) {
	svc, _ := newService()
	r := testRental(t, svc, dayPtr(billing.NewDay(2024, time.March, 31)))

	_, err := svc.AddBond(context.Background(), r.ID, billing.InsuranceBond{
		Start: billing.NewDay(2024, time.February, 10),
		End:   billing.NewDay(2024, time.January, 10),
	})
	assert.Error(t, err, "inverted bond interval should be rejected before the engine runs")
}

func TestAddBond_UnknownRental(t *testing.T) {
	svc, _ := newService()

	_, err := svc.AddBond(context.Background(), "nope", billing.InsuranceBond{
		Start: billing.NewDay(2024, time.January, 1),
		End:   billing.NewDay(2024, time.January, 31),
	})
	assert.ErrorIs(t, err, rental.ErrRentalNotFound)
	assert.True(t, rental.IsNotFound(err))
}

func TestPreview_DoesNotPersist(t *testing.T) {
	// Preview is the first phase of the protocol: the candidate timeline
	// is returned for confirmation and nothing is written.
	svc, mem := newService()
	r := testRental(t, svc, dayPtr(billing.NewDay(2024, time.March, 31)))

	_, err := svc.AddBond(context.Background(), r.ID, billing.InsuranceBond{
		Start:         billing.NewDay(2024, time.January, 10),
		End:           billing.NewDay(2024, time.February, 10),
		TotalAmount:   decimal.NewFromInt(1000),
		CoveredMonths: 1,
	})
	require.NoError(t, err)

	proposal, err := svc.Preview(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Len(t, proposal.Periods, 3)
	assert.Equal(t, 3, proposal.Summary.PeriodCount)

	persisted, err := mem.ListPeriods(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Empty(t, persisted, "preview must not write periods")
}

func TestApply_ReplacesExistingPeriodsWholesale(t *testing.T) {
	svc, mem := newService()
	r := testRental(t, svc, dayPtr(billing.NewDay(2024, time.March, 31)))

	// A pre-existing manual period that the apply must discard.
	_, err := svc.SavePeriod(context.Background(), r.ID, billing.BillingPeriod{
		Start:         billing.NewDay(2024, time.January, 1),
		End:           billing.NewDay(2024, time.January, 5),
		Amount:        decimal.NewFromInt(42),
		PaymentMethod: billing.PaymentCheque,
		Notes:         "manual entry",
	})
	require.NoError(t, err)

	_, err = svc.AddBond(context.Background(), r.ID, billing.InsuranceBond{
		Start:         billing.NewDay(2024, time.January, 10),
		End:           billing.NewDay(2024, time.February, 10),
		TotalAmount:   decimal.NewFromInt(1000),
		CoveredMonths: 1,
	})
	require.NoError(t, err)

	applied, err := svc.Apply(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, applied, 3)
	for _, p := range applied {
		assert.NotEmpty(t, p.ID, "applied periods get persistent IDs")
	}

	persisted, err := mem.ListPeriods(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 3, "manual entry must be gone: replace, not merge")
	for _, p := range persisted {
		assert.NotEqual(t, "manual entry", p.Notes)
	}
}

func TestApply_ThenGaps_Empty(t *testing.T) {
	// The applied timeline tiles the window, so the detector finds nothing.
	svc, _ := newService()
	r := testRental(t, svc, dayPtr(billing.NewDay(2024, time.June, 30)))

	_, err := svc.AddBond(context.Background(), r.ID, billing.InsuranceBond{
		Start:         billing.NewDay(2024, time.February, 1),
		End:           billing.NewDay(2024, time.April, 30),
		TotalAmount:   decimal.NewFromInt(2400),
		CoveredMonths: 3,
	})
	require.NoError(t, err)

	_, err = svc.Apply(context.Background(), r.ID)
	require.NoError(t, err)

	gaps, err := svc.Gaps(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestGaps_OnHandEditedTimeline(t *testing.T) {
	svc, _ := newService()
	r := testRental(t, svc, dayPtr(billing.NewDay(2024, time.January, 31)))

	ctx := context.Background()
	for _, span := range [][2]billing.Day{
		{billing.NewDay(2024, time.January, 1), billing.NewDay(2024, time.January, 10)},
		{billing.NewDay(2024, time.January, 15), billing.NewDay(2024, time.January, 20)},
	} {
		_, err := svc.SavePeriod(ctx, r.ID, billing.BillingPeriod{
			Start:         span[0],
			End:           span[1],
			Amount:        decimal.NewFromInt(100),
			PaymentMethod: billing.PaymentCash,
		})
		require.NoError(t, err)
	}

	gaps, err := svc.Gaps(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, gaps, 2)
	assert.Equal(t, 4, gaps[0].Duration)
	assert.Equal(t, 11, gaps[1].Duration)
}

func TestCreateGapPeriod_SeedsZeroAmountPeriod(t *testing.T) {
	svc, mem := newService()
	r := testRental(t, svc, dayPtr(billing.NewDay(2024, time.January, 31)))

	gap := billing.Gap{
		Start:    billing.NewDay(2024, time.January, 11),
		End:      billing.NewDay(2024, time.January, 14),
		Duration: 4,
	}

	p, err := svc.CreateGapPeriod(context.Background(), r.ID, gap, billing.GapCNAMPending)
	require.NoError(t, err)
	assert.True(t, p.IsGapPeriod)
	assert.True(t, p.Amount.IsZero(), "quick-action gap periods default to zero amount")
	assert.Equal(t, billing.GapCNAMPending, p.GapReason)

	persisted, err := mem.ListPeriods(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestSummary_OverPersistedTimeline(t *testing.T) {
	svc, _ := newService()
	r := testRental(t, svc, dayPtr(billing.NewDay(2024, time.March, 31)))

	_, err := svc.AddBond(context.Background(), r.ID, billing.InsuranceBond{
		Start:         billing.NewDay(2024, time.January, 10),
		End:           billing.NewDay(2024, time.February, 10),
		TotalAmount:   decimal.NewFromInt(1000),
		CoveredMonths: 1,
	})
	require.NoError(t, err)

	_, err = svc.Apply(context.Background(), r.ID)
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, summary.CNAMTotal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, summary.PatientTotal.Equal(decimal.NewFromInt(580)))
	assert.Equal(t, 91, summary.TotalDays)
}
