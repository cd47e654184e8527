// Package history persists per-run sort summaries in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jsk-labs/label-sorter/constants"
	"github.com/jsk-labs/label-sorter/internal/common"
	"github.com/jsk-labs/label-sorter/internal/sorter"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	total_pages   INTEGER NOT NULL,
	grouped_pages INTEGER NOT NULL,
	unparsed      INTEGER NOT NULL,
	output_dir    TEXT NOT NULL,
	started_at    TIMESTAMP NOT NULL,
	duration_ms   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_files (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	position     INTEGER NOT NULL,
	name         TEXT NOT NULL,
	invoice_date TEXT NOT NULL,
	courier      TEXT NOT NULL,
	sku          TEXT NOT NULL,
	page_count   INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID           string    `db:"id" json:"id"`
	Status       string    `db:"status" json:"status"`
	TotalPages   int       `db:"total_pages" json:"total_pages"`
	GroupedPages int       `db:"grouped_pages" json:"grouped_pages"`
	Unparsed     int       `db:"unparsed" json:"unparsed"`
	OutputDir    string    `db:"output_dir" json:"output_dir"`
	StartedAt    time.Time `db:"started_at" json:"started_at"`
	DurationMS   int64     `db:"duration_ms" json:"duration_ms"`
}

// FileRecord is one output file of a recorded run.
type FileRecord struct {
	RunID       string `db:"run_id" json:"-"`
	Position    int    `db:"position" json:"position"`
	Name        string `db:"name" json:"name"`
	InvoiceDate string `db:"invoice_date" json:"invoice_date"`
	Courier     string `db:"courier" json:"courier"`
	SKU         string `db:"sku" json:"sku"`
	PageCount   int    `db:"page_count" json:"page_count"`
}

// Store wraps the SQLite connection.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open connects to the SQLite database at dsn (a file path or ":memory:")
// and creates the schema if missing.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	logger.Info("history.open", "dsn", dsn)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records a completed sort run and its output files.
func (s *Store) SaveRun(ctx context.Context, res *sorter.SortResult) error {
	status := constants.RunStatusCompleted
	if len(res.Unparsed) > 0 {
		status = constants.RunStatusPartial
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, status, total_pages, grouped_pages, unparsed, output_dir, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID.String(), status, res.TotalPages, res.GroupedPages(), len(res.Unparsed),
		res.OutputDir, res.StartedAt, res.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, f := range res.Files {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, position, name, invoice_date, courier, sku, page_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			res.RunID.String(), i, f.Name, f.Key.InvoiceDate, f.Key.Courier, f.Key.SKU, f.PageCount,
		)
		if err != nil {
			return fmt.Errorf("insert run file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	s.logger.Info("history.run.saved", "run_id", res.RunID, "status", status, "files", len(res.Files))
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []RunRecord
	err := s.db.SelectContext(ctx, &runs,
		`SELECT * FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run and its output files in emission order.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, []FileRecord, error) {
	var run RunRecord
	err := s.db.GetContext(ctx, &run, `SELECT * FROM runs WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get run: %w", err)
	}

	var files []FileRecord
	err = s.db.SelectContext(ctx, &files,
		`SELECT * FROM run_files WHERE run_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, nil, fmt.Errorf("get run files: %w", err)
	}
	return &run, files, nil
}
