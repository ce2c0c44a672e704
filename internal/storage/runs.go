package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/the-paper-trail/internal/common"
	"github.com/Veraticus/the-paper-trail/internal/model"
	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

// Run statuses.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one invocation of a processing tool.
type Run struct {
	StartedAt  time.Time
	FinishedAt *time.Time
	ID         string
	Tool       string
	Source     string
	Status     RunStatus
	Error      string
	Documents  int
	Rows       int
}

// StartRun records a new running run and returns its id.
func (s *SQLiteStorage) StartRun(ctx context.Context, tool, source string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(tool, "tool"); err != nil {
		return "", err
	}
	if err := validateString(source, "source"); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, tool, source, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, tool, source, string(RunRunning), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run succeeded, or failed with runErr's message.
func (s *SQLiteStorage) FinishRun(ctx context.Context, runID string, runErr error) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}

	status := RunSucceeded
	var message sql.NullString
	if runErr != nil {
		status = RunFailed
		message = sql.NullString{String: runErr.Error(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), message, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return requireOneRow(res, runID)
}

// SaveManifest stores the manifest entries of a split run in order.
func (s *SQLiteStorage) SaveManifest(ctx context.Context, runID string, entries []model.ManifestEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO documents (run_id, position, filename, category, summary) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, e := range entries {
			if _, err := stmt.ExecContext(ctx, runID, i, e.Filename, e.Category, e.Summary); err != nil {
				return fmt.Errorf("failed to save document %s: %w", e.Filename, err)
			}
		}
		return nil
	})
}

// SaveLedgerRows stores the consolidated rows of an extract run in order.
func (s *SQLiteStorage) SaveLedgerRows(ctx context.Context, runID string, rows []model.TransactionRow) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO ledger_rows (run_id, position, date, detail, inflow, outflow, filename) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, r := range rows {
			date := r.RawDate
			if !r.Date.IsZero() {
				date = r.Date.Format("2006-01-02")
			}
			if _, err := stmt.ExecContext(ctx, runID, i, date, r.TransactionDetail,
				nullAmount(r.Inflow.Valid, model.FormatAmount(r.Inflow)),
				nullAmount(r.Outflow.Valid, model.FormatAmount(r.Outflow)),
				r.Filename); err != nil {
				return fmt.Errorf("failed to save ledger row %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetRun returns one run with its document and row counts.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, runSelect+` WHERE r.id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, runSelect+` ORDER BY r.started_at DESC, r.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

const runSelect = `SELECT r.id, r.tool, r.source, r.status, r.error, r.started_at, r.finished_at,
	(SELECT COUNT(*) FROM documents d WHERE d.run_id = r.id),
	(SELECT COUNT(*) FROM ledger_rows l WHERE l.run_id = r.id)
	FROM runs r`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run      Run
		status   string
		message  sql.NullString
		finished sql.NullTime
	)
	if err := sc.Scan(&run.ID, &run.Tool, &run.Source, &status, &message,
		&run.StartedAt, &finished, &run.Documents, &run.Rows); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Error = message.String
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func (s *SQLiteStorage) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func requireOneRow(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	return nil
}

func nullAmount(valid bool, s string) sql.NullString {
	return sql.NullString{String: s, Valid: valid}
}
