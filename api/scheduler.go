/*
scheduler.go - Automated coverage gap scanner

PURPOSE:
  Periodically runs the gap detector over every rental's persisted
  timeline and records the findings, so uncovered stretches surface
  without anyone opening the rental.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Skips rentals with no periods yet (nothing to reconcile)
  - Records one scan row per rental per pass for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to scan (default: 1 hour)
  - Enabled: Whether scanner is active (default: true)

USAGE:
  scanner := NewGapScanner(store)
  scanner.Start()
  // ... later
  scanner.Stop()

SEE ALSO:
  - handlers.go: GetGaps endpoint (on-demand detection)
  - billing/gaps.go: the detector itself
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medrent/billing-engine/billing"
	"github.com/medrent/billing-engine/store/sqlite"
)

// GapScanner handles automated coverage gap detection.
type GapScanner struct {
	Store         *sqlite.Store
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewGapScanner creates a new scanner.
func NewGapScanner(store *sqlite.Store) *GapScanner {
	return &GapScanner{
		Store:         store,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scanner.
func (gs *GapScanner) Start() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if !gs.Enabled {
		log.Println("[Scanner] Disabled, not starting")
		return
	}

	gs.ticker = time.NewTicker(gs.CheckInterval)
	gs.wg.Add(1)

	go gs.run()

	log.Printf("[Scanner] Started with check interval: %v", gs.CheckInterval)
}

// Stop stops the scanner.
func (gs *GapScanner) Stop() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.ticker != nil {
		gs.ticker.Stop()
		close(gs.stop)
		gs.wg.Wait()
		log.Println("[Scanner] Stopped")
	}
}

func (gs *GapScanner) run() {
	defer gs.wg.Done()

	// Run immediately on start
	gs.scanAll()

	for {
		select {
		case <-gs.ticker.C:
			gs.scanAll()
		case <-gs.stop:
			return
		}
	}
}

func (gs *GapScanner) scanAll() {
	ctx := context.Background()

	rentals, err := gs.Store.ListRentals(ctx)
	if err != nil {
		log.Printf("[Scanner] Error listing rentals: %v", err)
		return
	}

	scannedCount := 0
	skippedCount := 0
	gapCount := 0

	for _, r := range rentals {
		periods, err := gs.Store.ListPeriods(ctx, r.ID)
		if err != nil {
			log.Printf("[Scanner] Error listing periods for %s: %v", r.ID, err)
			continue
		}
		if len(periods) == 0 {
			// Nothing reconciled yet; a leading gap here would just be noise.
			skippedCount++
			continue
		}

		gaps := billing.DetectGaps(periods, r.Window)

		uncovered := 0
		for _, g := range gaps {
			uncovered += g.Duration
		}

		scan := sqlite.GapScan{
			ID:            uuid.NewString(),
			RentalID:      r.ID,
			GapCount:      len(gaps),
			UncoveredDays: uncovered,
			ScannedAt:     time.Now().UTC(),
		}
		if err := gs.Store.SaveGapScan(ctx, scan); err != nil {
			log.Printf("[Scanner] Error saving scan for %s: %v", r.ID, err)
			continue
		}

		scannedCount++
		gapCount += len(gaps)

		if len(gaps) > 0 {
			log.Printf("[Scanner] Rental %s: %d gap(s), %d uncovered day(s)", r.ID, len(gaps), uncovered)
		}
	}

	if scannedCount > 0 || skippedCount > 0 {
		log.Printf("[Scanner] Completed: %d scanned (%d gaps total), %d skipped (no periods)", scannedCount, gapCount, skippedCount)
	}
}

// RunNow triggers an immediate scan (for testing/admin).
func (gs *GapScanner) RunNow() {
	gs.scanAll()
}

// GetNextRunTime returns when the next scheduled scan will occur.
func (gs *GapScanner) GetNextRunTime() time.Time {
	return time.Now().Add(gs.CheckInterval)
}
