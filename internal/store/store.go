package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codescalpel/api/schemas"
)

// DBPool abstracts pgxpool.Pool so tests can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the tables scan history is kept in. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS scans (
    id              UUID PRIMARY KEY,
    version         TEXT NOT NULL,
    root            TEXT NOT NULL,
    files_scanned   INTEGER NOT NULL,
    duration_ms     BIGINT NOT NULL,
    score           INTEGER NOT NULL,
    grade           TEXT NOT NULL,
    category_scores JSONB NOT NULL,
    critical        INTEGER NOT NULL,
    warning         INTEGER NOT NULL,
    info            INTEGER NOT NULL,
    parsed          INTEGER NOT NULL,
    parse_failed    INTEGER NOT NULL,
    not_attempted   INTEGER NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS findings (
    scan_id     UUID NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    rule_id     TEXT NOT NULL,
    file        TEXT NOT NULL,
    line        INTEGER NOT NULL,
    col         INTEGER NOT NULL,
    message     TEXT NOT NULL,
    severity    TEXT NOT NULL,
    category    TEXT NOT NULL,
    cwe         TEXT NOT NULL DEFAULT '',
    remediation TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (scan_id, position)
);
CREATE INDEX IF NOT EXISTS scans_root_created_idx ON scans (root, created_at DESC);
`

const insertScan = `
        INSERT INTO scans (id, version, root, files_scanned, duration_ms, score, grade, category_scores,
            critical, warning, info, parsed, parse_failed, not_attempted, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
    `

// FindingColumns is the column order findings are copied in.
var FindingColumns = []string{"scan_id", "position", "rule_id", "file", "line", "col", "message", "severity", "category", "cwe", "remediation"}

// ScanSummary is one row of scan history.
type ScanSummary struct {
	ID        string
	Root      string
	Score     int
	Grade     string
	Total     int
	CreatedAt time.Time
}

// Store persists scan results to PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// Open connects to the database at url and verifies the connection.
func Open(ctx context.Context, url string, logger *zap.Logger) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SaveScan records a scan and its findings in a single transaction.
func (s *Store) SaveScan(ctx context.Context, result *schemas.ScanResult) error {
	scores, err := json.Marshal(result.CategoryScores)
	if err != nil {
		return fmt.Errorf("failed to encode category scores: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	_, err = tx.Exec(ctx, insertScan,
		result.ScanID, result.Version, result.Root, result.FilesScanned,
		result.Duration.Milliseconds(), result.Score, result.Grade, scores,
		result.Summary.Critical, result.Summary.Warning, result.Summary.Info,
		result.Parse.Parsed, result.Parse.Failed, result.Parse.NotAttempted,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	if len(result.Findings) > 0 {
		if err := s.copyFindings(ctx, tx, result.ScanID, result.Findings); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Persisted scan", zap.String("scan_id", result.ScanID), zap.Int("findings", len(result.Findings)))
	return nil
}

func (s *Store) copyFindings(ctx context.Context, tx pgx.Tx, scanID string, findings []schemas.Finding) error {
	rows := make([][]any, len(findings))
	for i, f := range findings {
		rows[i] = []any{
			scanID, i, f.RuleID, f.File, f.Line, f.Column, f.Message,
			string(f.Severity), string(f.Category), f.CWE, f.Remediation,
		}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"findings"}, FindingColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy findings: %w", err)
	}
	if int(copyCount) != len(findings) {
		return fmt.Errorf("mismatch in copied findings count: expected %d, got %d", len(findings), copyCount)
	}
	return nil
}

// FindingsByScanID returns the findings of a scan in their reported order.
func (s *Store) FindingsByScanID(ctx context.Context, scanID string) ([]schemas.Finding, error) {
	query := `
        SELECT rule_id, file, line, col, message, severity, category, cwe, remediation
        FROM findings
        WHERE scan_id = $1
        ORDER BY position ASC;
    `
	rows, err := s.pool.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []schemas.Finding
	for rows.Next() {
		var f schemas.Finding
		var severity, category string
		if err := rows.Scan(&f.RuleID, &f.File, &f.Line, &f.Column, &f.Message, &severity, &category, &f.CWE, &f.Remediation); err != nil {
			return nil, fmt.Errorf("failed to scan finding row: %w", err)
		}
		f.Severity = schemas.Severity(severity)
		f.Category = schemas.Category(category)
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return findings, nil
}

// RecentScans lists the latest scans of root, newest first.
func (s *Store) RecentScans(ctx context.Context, root string, limit int) ([]ScanSummary, error) {
	query := `
        SELECT id, root, score, grade, critical + warning + info, created_at
        FROM scans
        WHERE root = $1
        ORDER BY created_at DESC
        LIMIT $2;
    `
	rows, err := s.pool.Query(ctx, query, root, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var out []ScanSummary
	for rows.Next() {
		var sum ScanSummary
		if err := rows.Scan(&sum.ID, &sum.Root, &sum.Score, &sum.Grade, &sum.Total, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}
