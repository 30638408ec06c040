/*
Package sqlite provides a SQLite-backed implementation of rental.Store.

PURPOSE:
  Persists rentals, CNAM bonds, and billing periods. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

ATOMIC REPLACE:
  ReplacePeriods runs DELETE + INSERTs inside a single database
  transaction, so a concurrent reader never observes a partially
  replaced timeline. This is the store-side half of the generate/confirm
  protocol: the engine produces the candidate, the HTTP layer gates the
  confirmation, and this store makes the swap atomic.

KEY TABLES:
  rentals:          Rental entities (window, device rate)
  cnam_bonds:       Insurance coverage intervals per rental
  billing_periods:  The billing timeline per rental
  gap_scans:        Audit rows written by the background gap scanner

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened with WAL
  (Write-Ahead Logging): multiple readers don't block, single writer at
  a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/medrent.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - rental/store.go: Interface definition
  - rental/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/medrent/billing-engine/billing"
	"github.com/medrent/billing-engine/rental"
)

// Store implements rental.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ rental.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Rentals (the entity the engine reconciles)
	CREATE TABLE IF NOT EXISTS rentals (
		id TEXT PRIMARY KEY,
		patient_name TEXT NOT NULL,
		device_label TEXT NOT NULL,
		monthly_rate TEXT NOT NULL,
		window_start TEXT NOT NULL,
		window_end TEXT,
		created_at TEXT NOT NULL
	);

	-- CNAM coverage bonds
	CREATE TABLE IF NOT EXISTS cnam_bonds (
		id TEXT PRIMARY KEY,
		rental_id TEXT NOT NULL REFERENCES rentals(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		monthly_amount TEXT,
		total_amount TEXT,
		covered_months INTEGER DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bonds_rental
		ON cnam_bonds(rental_id, start_date);

	-- Billing periods (the timeline; replaced wholesale on apply)
	CREATE TABLE IF NOT EXISTS billing_periods (
		id TEXT PRIMARY KEY,
		rental_id TEXT NOT NULL REFERENCES rentals(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		is_gap_period BOOLEAN DEFAULT FALSE,
		gap_reason TEXT,
		notes TEXT,
		cnam_bond_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path: period listing for detection and display
	CREATE INDEX IF NOT EXISTS idx_periods_rental
		ON billing_periods(rental_id, start_date);

	-- Gap scans (audit rows from the background scanner)
	CREATE TABLE IF NOT EXISTS gap_scans (
		id TEXT PRIMARY KEY,
		rental_id TEXT NOT NULL,
		gap_count INTEGER NOT NULL,
		uncovered_days INTEGER NOT NULL,
		scanned_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_gap_scans_rental
		ON gap_scans(rental_id, scanned_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RENTALS
// =============================================================================

// SaveRental upserts a rental.
func (s *Store) SaveRental(ctx context.Context, r rental.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO rentals (id, patient_name, device_label, monthly_rate, window_start, window_end, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			patient_name = excluded.patient_name,
			device_label = excluded.device_label,
			monthly_rate = excluded.monthly_rate,
			window_start = excluded.window_start,
			window_end = excluded.window_end
	`

	var windowEnd sql.NullString
	if r.Window.End != nil {
		windowEnd = sql.NullString{String: r.Window.End.String(), Valid: true}
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.PatientName,
		r.DeviceLabel,
		r.MonthlyRate.String(),
		r.Window.Start.String(),
		windowEnd,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save rental: %w", err)
	}
	return nil
}

// GetRental retrieves a rental by ID. Returns (nil, nil) when missing.
func (s *Store) GetRental(ctx context.Context, id string) (*rental.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, patient_name, device_label, monthly_rate, window_start, window_end, created_at FROM rentals WHERE id = ?",
		id,
	)

	r, err := scanRental(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRentals returns all rentals, oldest first.
func (s *Store) ListRentals(ctx context.Context) ([]rental.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, patient_name, device_label, monthly_rate, window_start, window_end, created_at FROM rentals ORDER BY created_at ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rentals: %w", err)
	}
	defer rows.Close()

	var rentals []rental.Rental
	for rows.Next() {
		r, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, r)
	}
	return rentals, rows.Err()
}

// DeleteRental removes a rental; bonds and periods cascade.
func (s *Store) DeleteRental(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM rentals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rental: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rental.ErrRentalNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRental(row rowScanner) (rental.Rental, error) {
	var (
		r           rental.Rental
		monthlyRate string
		windowStart string
		windowEnd   sql.NullString
		createdAt   string
	)

	err := row.Scan(&r.ID, &r.PatientName, &r.DeviceLabel, &monthlyRate, &windowStart, &windowEnd, &createdAt)
	if err != nil {
		return r, err
	}

	r.MonthlyRate = parseDecimal(monthlyRate)
	r.Window.Start = parseDay(windowStart)
	if windowEnd.Valid && windowEnd.String != "" {
		end := parseDay(windowEnd.String)
		r.Window.End = &end
	}
	t, _ := time.Parse(time.RFC3339, createdAt)
	r.CreatedAt = t
	return r, nil
}

// =============================================================================
// BONDS
// =============================================================================

// SaveBond upserts a bond for a rental.
func (s *Store) SaveBond(ctx context.Context, rentalID string, bond billing.InsuranceBond) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO cnam_bonds (id, rental_id, start_date, end_date, monthly_amount, total_amount, covered_months, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			monthly_amount = excluded.monthly_amount,
			total_amount = excluded.total_amount,
			covered_months = excluded.covered_months
	`

	_, err := s.db.ExecContext(ctx, query,
		bond.ID,
		rentalID,
		bond.Start.String(),
		bond.End.String(),
		nullDecimal(bond.MonthlyAmount),
		nullDecimal(bond.TotalAmount),
		bond.CoveredMonths,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save bond: %w", err)
	}
	return nil
}

// ListBonds returns a rental's bonds in chronological order.
func (s *Store) ListBonds(ctx context.Context, rentalID string) ([]billing.InsuranceBond, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, start_date, end_date, monthly_amount, total_amount, covered_months FROM cnam_bonds WHERE rental_id = ? ORDER BY start_date ASC",
		rentalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonds: %w", err)
	}
	defer rows.Close()

	var bonds []billing.InsuranceBond
	for rows.Next() {
		var (
			b             billing.InsuranceBond
			startDate     string
			endDate       string
			monthlyAmount sql.NullString
			totalAmount   sql.NullString
		)
		if err := rows.Scan(&b.ID, &startDate, &endDate, &monthlyAmount, &totalAmount, &b.CoveredMonths); err != nil {
			return nil, fmt.Errorf("failed to scan bond: %w", err)
		}
		b.Start = parseDay(startDate)
		b.End = parseDay(endDate)
		b.MonthlyAmount = parseDecimal(monthlyAmount.String)
		b.TotalAmount = parseDecimal(totalAmount.String)
		bonds = append(bonds, b)
	}
	return bonds, rows.Err()
}

// DeleteBond removes a bond by ID.
func (s *Store) DeleteBond(ctx context.Context, bondID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM cnam_bonds WHERE id = ?", bondID)
	if err != nil {
		return fmt.Errorf("failed to delete bond: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rental.ErrBondNotFound
	}
	return nil
}

// =============================================================================
// BILLING PERIODS
// =============================================================================

// SavePeriod upserts a single billing period.
func (s *Store) SavePeriod(ctx context.Context, rentalID string, period billing.BillingPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.savePeriodTx(ctx, s.db, rentalID, period)
}

func (s *Store) savePeriodTx(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, rentalID string, period billing.BillingPeriod) error {
	query := `
		INSERT INTO billing_periods
		(id, rental_id, start_date, end_date, amount, payment_method, is_gap_period, gap_reason, notes, cnam_bond_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			amount = excluded.amount,
			payment_method = excluded.payment_method,
			is_gap_period = excluded.is_gap_period,
			gap_reason = excluded.gap_reason,
			notes = excluded.notes,
			cnam_bond_id = excluded.cnam_bond_id,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, query,
		period.ID,
		rentalID,
		period.Start.String(),
		period.End.String(),
		period.Amount.String(),
		string(period.PaymentMethod),
		period.IsGapPeriod,
		nullString(string(period.GapReason)),
		nullString(period.Notes),
		nullString(period.CNAMBondID),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save period: %w", err)
	}
	return nil
}

// ListPeriods returns a rental's periods ordered by start date.
func (s *Store) ListPeriods(ctx context.Context, rentalID string) ([]billing.BillingPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_date, end_date, amount, payment_method, is_gap_period, gap_reason, notes, cnam_bond_id
		 FROM billing_periods WHERE rental_id = ? ORDER BY start_date ASC`,
		rentalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	var periods []billing.BillingPeriod
	for rows.Next() {
		var (
			p          billing.BillingPeriod
			startDate  string
			endDate    string
			amount     string
			method     string
			gapReason  sql.NullString
			notes      sql.NullString
			cnamBondID sql.NullString
		)
		if err := rows.Scan(&p.ID, &startDate, &endDate, &amount, &method, &p.IsGapPeriod, &gapReason, &notes, &cnamBondID); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		p.Start = parseDay(startDate)
		p.End = parseDay(endDate)
		p.Amount = parseDecimal(amount)
		p.PaymentMethod = billing.PaymentMethod(method)
		p.GapReason = billing.GapReason(gapReason.String)
		p.Notes = notes.String
		p.CNAMBondID = cnamBondID.String
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// DeletePeriod removes a single period by ID.
func (s *Store) DeletePeriod(ctx context.Context, periodID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM billing_periods WHERE id = ?", periodID)
	if err != nil {
		return fmt.Errorf("failed to delete period: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rental.ErrPeriodNotFound
	}
	return nil
}

// ReplacePeriods swaps the rental's whole period set inside one database
// transaction. Readers never see the timeline half-replaced.
func (s *Store) ReplacePeriods(ctx context.Context, rentalID string, periods []billing.BillingPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM billing_periods WHERE rental_id = ?", rentalID); err != nil {
		return fmt.Errorf("failed to clear periods: %w", err)
	}

	for _, p := range periods {
		if err := s.savePeriodTx(ctx, tx, rentalID, p); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// =============================================================================
// GAP SCANS
// =============================================================================

// GapScan is one audit row from the background gap scanner.
type GapScan struct {
	ID            string
	RentalID      string
	GapCount      int
	UncoveredDays int
	ScannedAt     time.Time
}

// SaveGapScan records a scan result.
func (s *Store) SaveGapScan(ctx context.Context, scan GapScan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO gap_scans (id, rental_id, gap_count, uncovered_days, scanned_at) VALUES (?, ?, ?, ?, ?)",
		scan.ID, scan.RentalID, scan.GapCount, scan.UncoveredDays, scan.ScannedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save gap scan: %w", err)
	}
	return nil
}

// ListGapScans returns the most recent scans for a rental, newest first.
func (s *Store) ListGapScans(ctx context.Context, rentalID string, limit int) ([]GapScan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, rental_id, gap_count, uncovered_days, scanned_at FROM gap_scans WHERE rental_id = ? ORDER BY scanned_at DESC LIMIT ?",
		rentalID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query gap scans: %w", err)
	}
	defer rows.Close()

	var scans []GapScan
	for rows.Next() {
		var (
			scan      GapScan
			scannedAt string
		)
		if err := rows.Scan(&scan.ID, &scan.RentalID, &scan.GapCount, &scan.UncoveredDays, &scannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gap scan: %w", err)
		}
		t, _ := time.Parse(time.RFC3339, scannedAt)
		scan.ScannedAt = t
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Cascades clear bonds and periods with their rentals.
	for _, table := range []string{"gap_scans", "rentals"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDecimal(d decimal.Decimal) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseDay(s string) billing.Day {
	d, _ := billing.ParseDay(s)
	return d
}
