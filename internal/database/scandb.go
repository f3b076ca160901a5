package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nao1215/labelscan/internal/model"
)

// ErrScanNotFound is returned when no scan matches the requested ID.
var ErrScanNotFound = errors.New("scan not found")

// timestampLayout is fixed-width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// ScanDB stores scans in a single SQLite file.
type ScanDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the file and its directory when missing.
	// Otherwise Open fails on a missing file.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions creates the file on demand and uses WAL.
func DefaultOptions() Options {
	return Options{CreateIfNotExists: true, EnableWAL: true}
}

// busyTimeout is how long a connection waits on a locked database.
const busyTimeout = 5 * time.Second

// Open opens the scan database at dbPath and ensures its schema exists.
func Open(dbPath string, opts Options) (*ScanDB, error) {
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no scan database at %s", dbPath)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	// _txlock=immediate takes the write lock at BEGIN, so read-modify-write
	// transactions wait on busy_timeout instead of failing on upgrade.
	dsn := fmt.Sprintf("%s?mode=%s&_pragma=busy_timeout(%d)&_txlock=immediate",
		dbPath, mode, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{db: db, dbPath: dbPath}
	if err := sdb.prepare(opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sdb, nil
}

func (sdb *ScanDB) prepare(opts Options) error {
	if opts.EnableWAL {
		if _, err := sdb.db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := sdb.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close releases the database.
func (sdb *ScanDB) Close() error {
	return sdb.db.Close()
}

// Path returns the database file path.
func (sdb *ScanDB) Path() string {
	return sdb.dbPath
}

// createTables creates the scans table and its indexes.
func (sdb *ScanDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		source TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		health_score INTEGER NOT NULL,
		saved INTEGER NOT NULL DEFAULT 0,
		user_notes TEXT,
		scan_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(timestamp);
	CREATE INDEX IF NOT EXISTS idx_scans_fingerprint ON scans(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_scans_saved ON scans(saved);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SaveScan inserts a scan, or replaces the stored copy when the ID exists.
func (sdb *ScanDB) SaveScan(ctx context.Context, scan *model.Scan) error {
	return saveScan(ctx, sdb.db, scan)
}

func saveScan(ctx context.Context, q querier, scan *model.Scan) error {
	scanJSON, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("failed to serialize scan: %w", err)
	}

	query := `
	INSERT INTO scans (id, timestamp, source, fingerprint, health_score, saved, user_notes, scan_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		timestamp = excluded.timestamp,
		source = excluded.source,
		fingerprint = excluded.fingerprint,
		health_score = excluded.health_score,
		saved = excluded.saved,
		user_notes = excluded.user_notes,
		scan_json = excluded.scan_json
	`

	_, err = q.ExecContext(ctx, query,
		scan.ID.String(),
		formatTimestamp(scan.Timestamp),
		string(scan.Source),
		model.Fingerprint(scan.CleanedIngredients),
		scan.Analysis.HealthScore,
		scan.Saved,
		nullableNotes(scan.UserNotes),
		string(scanJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}
	return nil
}

// GetScan retrieves a scan by ID.
func (sdb *ScanDB) GetScan(ctx context.Context, id uuid.UUID) (*model.Scan, error) {
	return getScan(ctx, sdb.db, id)
}

func getScan(ctx context.Context, q querier, id uuid.UUID) (*model.Scan, error) {
	return queryOne(ctx, q, `SELECT scan_json, saved, user_notes FROM scans WHERE id = ?`, id.String())
}

// GetLatestScan retrieves the most recent scan.
func (sdb *ScanDB) GetLatestScan(ctx context.Context) (*model.Scan, error) {
	query := `SELECT scan_json, saved, user_notes FROM scans ORDER BY timestamp DESC LIMIT 1`
	return queryOne(ctx, sdb.db, query)
}

// ListOptions filters ListScans.
type ListOptions struct {
	// SavedOnly restricts the listing to saved scans.
	SavedOnly bool

	// Source restricts the listing to one capture medium. Empty lists all.
	Source model.Source

	// Limit caps the number of scans returned. Zero means no limit.
	Limit int

	// Now is the reference time for expiry. Zero means time.Now().
	Now time.Time
}

// ListScans removes expired scans, then returns the rest newest first.
func (sdb *ScanDB) ListScans(ctx context.Context, opts ListOptions) ([]*model.Scan, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	if _, err := sdb.CleanupExpired(ctx, now); err != nil {
		return nil, err
	}

	query := `SELECT scan_json, saved, user_notes FROM scans WHERE 1=1`
	args := make([]any, 0, 2)

	if opts.SavedOnly {
		query += " AND saved = 1"
	}
	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, string(opts.Source))
	}

	query += " ORDER BY timestamp DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	return sdb.queryMany(ctx, query, args...)
}

// FindByFingerprint returns every stored scan of the same normalized
// ingredient list, newest first.
func (sdb *ScanDB) FindByFingerprint(ctx context.Context, fingerprint string) ([]*model.Scan, error) {
	query := `SELECT scan_json, saved, user_notes FROM scans WHERE fingerprint = ? ORDER BY timestamp DESC`
	return sdb.queryMany(ctx, query, fingerprint)
}

// MarkSaved exempts a scan from expiry. Non-empty notes replace the
// stored notes; empty notes leave them unchanged.
func (sdb *ScanDB) MarkSaved(ctx context.Context, id uuid.UUID, notes string) error {
	return sdb.updateScan(ctx, id, func(scan *model.Scan) {
		scan.Saved = true
		if notes != "" {
			scan.SetNotes(notes)
		}
	})
}

// SetNotes replaces the notes of a scan. Empty notes clear them.
func (sdb *ScanDB) SetNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return sdb.updateScan(ctx, id, func(scan *model.Scan) {
		scan.SetNotes(notes)
	})
}

// updateScan applies change to the stored scan inside one transaction.
func (sdb *ScanDB) updateScan(ctx context.Context, id uuid.UUID, change func(*model.Scan)) error {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	scan, err := getScan(ctx, tx, id)
	if err != nil {
		return err
	}
	change(scan)
	if err := saveScan(ctx, tx, scan); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan update: %w", err)
	}
	return nil
}

// DeleteScan removes a scan.
func (sdb *ScanDB) DeleteScan(ctx context.Context, id uuid.UUID) error {
	result, err := sdb.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	return nil
}

// CleanupExpired deletes unsaved scans that are at least
// model.ExpiryWindow old at now, and returns how many were removed.
func (sdb *ScanDB) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := formatTimestamp(now.Add(-model.ExpiryWindow))

	result, err := sdb.db.ExecContext(ctx,
		`DELETE FROM scans WHERE saved = 0 AND timestamp <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up expired scans: %w", err)
	}
	return result.RowsAffected()
}

func queryOne(ctx context.Context, q querier, query string, args ...any) (*model.Scan, error) {
	var (
		scanJSON string
		saved    bool
		notes    sql.NullString
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(&scanJSON, &saved, &notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	return decodeScan(scanJSON, saved, notes)
}

func (sdb *ScanDB) queryMany(ctx context.Context, query string, args ...any) ([]*model.Scan, error) {
	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	scans := make([]*model.Scan, 0)
	for rows.Next() {
		var (
			scanJSON string
			saved    bool
			notes    sql.NullString
		)
		if err := rows.Scan(&scanJSON, &saved, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scan, err := decodeScan(scanJSON, saved, notes)
		if err != nil {
			continue // Skip malformed rows
		}
		scans = append(scans, scan)
	}

	return scans, rows.Err()
}

// decodeScan parses the stored record. The saved and notes columns are
// authoritative over the JSON copy.
func decodeScan(scanJSON string, saved bool, notes sql.NullString) (*model.Scan, error) {
	var scan model.Scan
	if err := json.Unmarshal([]byte(scanJSON), &scan); err != nil {
		return nil, fmt.Errorf("failed to parse scan: %w", err)
	}
	scan.Saved = saved
	scan.UserNotes = nil
	if notes.Valid {
		scan.SetNotes(notes.String)
	}
	if scan.CleanedIngredients == nil {
		scan.CleanedIngredients = []string{}
	}
	if scan.Analysis.Breakdown == nil {
		scan.Analysis.Breakdown = []model.BreakdownItem{}
	}
	if scan.Analysis.Flags == nil {
		scan.Analysis.Flags = []string{}
	}
	return &scan, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func nullableNotes(notes *string) sql.NullString {
	if notes == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *notes, Valid: true}
}
