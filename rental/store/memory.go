// Package store provides rental.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/medrent/billing-engine/billing"
	"github.com/medrent/billing-engine/rental"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	rentals map[string]rental.Rental
	bonds   map[string][]billing.InsuranceBond // keyed by rental ID
	periods map[string][]billing.BillingPeriod // keyed by rental ID
}

func NewMemory() *Memory {
	return &Memory{
		rentals: make(map[string]rental.Rental),
		bonds:   make(map[string][]billing.InsuranceBond),
		periods: make(map[string][]billing.BillingPeriod),
	}
}

var _ rental.Store = (*Memory)(nil)

func (m *Memory) SaveRental(_ context.Context, r rental.Rental) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rentals[r.ID] = r
	return nil
}

func (m *Memory) GetRental(_ context.Context, id string) (*rental.Rental, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rentals[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) ListRentals(_ context.Context) ([]rental.Rental, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]rental.Rental, 0, len(m.rentals))
	for _, r := range m.rentals {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) DeleteRental(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rentals[id]; !ok {
		return rental.ErrRentalNotFound
	}
	delete(m.rentals, id)
	delete(m.bonds, id)
	delete(m.periods, id)
	return nil
}

func (m *Memory) SaveBond(_ context.Context, rentalID string, bond billing.InsuranceBond) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bonds := m.bonds[rentalID]
	for i, b := range bonds {
		if b.ID == bond.ID {
			bonds[i] = bond
			return nil
		}
	}
	m.bonds[rentalID] = append(bonds, bond)
	return nil
}

func (m *Memory) ListBonds(_ context.Context, rentalID string) ([]billing.InsuranceBond, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.InsuranceBond, len(m.bonds[rentalID]))
	copy(result, m.bonds[rentalID])
	return result, nil
}

func (m *Memory) DeleteBond(_ context.Context, bondID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for rentalID, bonds := range m.bonds {
		for i, b := range bonds {
			if b.ID == bondID {
				m.bonds[rentalID] = append(bonds[:i], bonds[i+1:]...)
				return nil
			}
		}
	}
	return rental.ErrBondNotFound
}

func (m *Memory) SavePeriod(_ context.Context, rentalID string, period billing.BillingPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	periods := m.periods[rentalID]
	for i, p := range periods {
		if p.ID == period.ID {
			periods[i] = period
			return nil
		}
	}
	m.periods[rentalID] = append(periods, period)
	return nil
}

func (m *Memory) ListPeriods(_ context.Context, rentalID string) ([]billing.BillingPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.BillingPeriod, len(m.periods[rentalID]))
	copy(result, m.periods[rentalID])
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

func (m *Memory) DeletePeriod(_ context.Context, periodID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for rentalID, periods := range m.periods {
		for i, p := range periods {
			if p.ID == periodID {
				m.periods[rentalID] = append(periods[:i], periods[i+1:]...)
				return nil
			}
		}
	}
	return rental.ErrPeriodNotFound
}

// ReplacePeriods swaps the whole period set under one lock acquisition, so
// readers never observe a partially replaced timeline.
func (m *Memory) ReplacePeriods(_ context.Context, rentalID string, periods []billing.BillingPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	replacement := make([]billing.BillingPeriod, len(periods))
	copy(replacement, periods)
	m.periods[rentalID] = replacement
	return nil
}
