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

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/stacksniffer/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "stacksniffer.db"

var (
	// ErrDatabaseNotFound is returned by Open when the database does not
	// exist and creation is disabled.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrReportNotFound is returned when no stored report matches a lookup.
	ErrReportNotFound = errors.New("scan report not found")

	// ErrNotEnoughScans is returned by CompareLatest when a target has fewer
	// than two stored scans.
	ErrNotEnoughScans = errors.New("at least two scans are required to compare")
)

// HistoryDB provides SQLite-based storage for scan reports.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; batch scans save through this pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scan_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		scanned_at TEXT NOT NULL,
		digest TEXT NOT NULL,
		technologies INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_target ON scan_reports(target);
	CREATE INDEX IF NOT EXISTS idx_reports_scanned_at ON scan_reports(scanned_at);
	`

	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// ScanRecord is the stored metadata of one scan.
type ScanRecord struct {
	// ID is the row identifier of the scan.
	ID int64 `json:"id"`

	// Target is the normalized target URL.
	Target string `json:"target"`

	// ScannedAt is when the scan was performed.
	ScannedAt time.Time `json:"scanned_at"`

	// Digest is the SHA3 digest of the findings.
	Digest string `json:"digest"`

	// Technologies is the number of reported technologies.
	Technologies int `json:"technologies"`
}

// TargetSummary describes the stored history of one target.
type TargetSummary struct {
	Target   string    `json:"target"`
	Scans    int       `json:"scans"`
	LastScan time.Time `json:"last_scan"`
}

// SaveReport stores a report and returns its row ID.
func (h *HistoryDB) SaveReport(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO scan_reports (target, scanned_at, digest, technologies, report_json)
	VALUES (?, ?, ?, ?, ?)
	`

	result, err := h.db.ExecContext(ctx, query,
		report.TargetURL,
		formatTimestamp(report.ScannedAt),
		report.Digest(),
		len(report.Findings),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan report: %w", err)
	}

	return result.LastInsertId()
}

// GetReport retrieves a stored report by its row ID.
func (h *HistoryDB) GetReport(ctx context.Context, id int64) (*model.Report, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, `SELECT report_json FROM scan_reports WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}
	return decodeReport(reportJSON)
}

// LatestReport retrieves the most recent report of a target.
func (h *HistoryDB) LatestReport(ctx context.Context, target string) (*model.Report, error) {
	query := `
	SELECT report_json FROM scan_reports
	WHERE target = ?
	ORDER BY scanned_at DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := h.db.QueryRowContext(ctx, query, target).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}
	return decodeReport(reportJSON)
}

// ListTargets returns every target with stored scans, sorted by target.
func (h *HistoryDB) ListTargets(ctx context.Context) ([]TargetSummary, error) {
	query := `
	SELECT target, COUNT(*), MAX(scanned_at) FROM scan_reports
	GROUP BY target
	ORDER BY target
	`

	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	targets := make([]TargetSummary, 0)
	for rows.Next() {
		var (
			summary  TargetSummary
			lastScan string
		)
		if err := rows.Scan(&summary.Target, &summary.Scans, &lastScan); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		summary.LastScan = parseTimestamp(lastScan)
		targets = append(targets, summary)
	}

	return targets, rows.Err()
}

// ListScans returns the scan metadata of a target, newest first.
func (h *HistoryDB) ListScans(ctx context.Context, target string) ([]ScanRecord, error) {
	query := `
	SELECT id, target, scanned_at, digest, technologies
	FROM scan_reports
	WHERE target = ?
	ORDER BY scanned_at DESC, id DESC
	`

	rows, err := h.db.QueryContext(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	records := make([]ScanRecord, 0)
	for rows.Next() {
		var (
			record    ScanRecord
			scannedAt string
		)
		if err := rows.Scan(&record.ID, &record.Target, &scannedAt, &record.Digest, &record.Technologies); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record.ScannedAt = parseTimestamp(scannedAt)
		records = append(records, record)
	}

	return records, rows.Err()
}

// Comparison is the result of comparing the two latest scans of a target.
type Comparison struct {
	Older ScanRecord       `json:"older"`
	Newer ScanRecord       `json:"newer"`
	Diff  model.ReportDiff `json:"diff"`
}

// CompareLatest compares the two most recent scans of a target.
func (h *HistoryDB) CompareLatest(ctx context.Context, target string) (*Comparison, error) {
	records, err := h.ListScans(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s has %d", ErrNotEnoughScans, target, len(records))
	}
	return h.Compare(ctx, records[1].ID, records[0].ID)
}

// Compare compares two stored scans by row ID.
func (h *HistoryDB) Compare(ctx context.Context, olderID, newerID int64) (*Comparison, error) {
	older, err := h.GetScan(ctx, olderID)
	if err != nil {
		return nil, err
	}
	newer, err := h.GetScan(ctx, newerID)
	if err != nil {
		return nil, err
	}

	olderReport, err := h.GetReport(ctx, olderID)
	if err != nil {
		return nil, err
	}
	newerReport, err := h.GetReport(ctx, newerID)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		Older: older,
		Newer: newer,
		Diff:  model.CompareReports(olderReport, newerReport),
	}, nil
}

// GetScan retrieves the metadata of one stored scan.
func (h *HistoryDB) GetScan(ctx context.Context, id int64) (ScanRecord, error) {
	query := `
	SELECT id, target, scanned_at, digest, technologies
	FROM scan_reports
	WHERE id = ?
	`

	var (
		record    ScanRecord
		scannedAt string
	)
	err := h.db.QueryRowContext(ctx, query, id).Scan(&record.ID, &record.Target, &scannedAt, &record.Digest, &record.Technologies)
	if errors.Is(err, sql.ErrNoRows) {
		return ScanRecord{}, fmt.Errorf("%w: id %d", ErrReportNotFound, id)
	}
	if err != nil {
		return ScanRecord{}, fmt.Errorf("failed to get scan: %w", err)
	}
	record.ScannedAt = parseTimestamp(scannedAt)
	return record, nil
}

// DeleteTarget removes every stored scan of a target and returns the
// number of rows deleted.
func (h *HistoryDB) DeleteTarget(ctx context.Context, target string) (int64, error) {
	result, err := h.db.ExecContext(ctx, `DELETE FROM scan_reports WHERE target = ?`, target)
	if err != nil {
		return 0, fmt.Errorf("failed to delete scans: %w", err)
	}
	return result.RowsAffected()
}

func decodeReport(reportJSON string) (*model.Report, error) {
	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// timestampLayout sorts lexically in chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp returns the zero time for unparsable values.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
