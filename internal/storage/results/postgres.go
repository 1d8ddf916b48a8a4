// internal/storage/results/postgres.go
package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/scanner"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_runs (
	id          TEXT PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	start_date  DATE NOT NULL,
	end_date    DATE NOT NULL,
	window_size INTEGER NOT NULL,
	threshold   DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_rows (
	run_id          TEXT NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	symbol          TEXT NOT NULL,
	win_probability DOUBLE PRECISION NOT NULL,
	status          TEXT NOT NULL,
	error           TEXT NOT NULL DEFAULT '',
	selected        BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_created_at ON scan_runs (created_at DESC);
`

type runRecord struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Window    int       `db:"window_size"`
	Threshold float64   `db:"threshold"`
}

type rowRecord struct {
	RunID          string  `db:"run_id"`
	Position       int     `db:"position"`
	Symbol         string  `db:"symbol"`
	WinProbability float64 `db:"win_probability"`
	Status         string  `db:"status"`
	Error          string  `db:"error"`
	Selected       bool    `db:"selected"`
}

// PostgresStore persists runs in the scan_runs and scan_rows tables
type PostgresStore struct {
	db *sqlx.DB
}

// OpenPostgres connects to dsn and verifies the connection
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("opening database: %w", err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("connecting to database: %w", err))
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an existing connection
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables when missing
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("creating schema: %w", err))
	}
	return nil
}

// Close closes the connection
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

// SaveRun inserts the run and its rows in one transaction
func (p *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	prepare(run)
	runRec, rowRecs := toRecords(run)

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
	INSERT INTO scan_runs (id, created_at, start_date, end_date, window_size, threshold)
	VALUES (:id, :created_at, :start_date, :end_date, :window_size, :threshold)
	`, runRec)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("inserting run %s: %w", run.ID, err))
	}

	if len(rowRecs) > 0 {
		_, err = tx.NamedExecContext(ctx, `
		INSERT INTO scan_rows (run_id, position, symbol, win_probability, status, error, selected)
		VALUES (:run_id, :position, :symbol, :win_probability, :status, :error, :selected)
		`, rowRecs)
		if err != nil {
			return core.WrapError(core.ErrStorageFailed, fmt.Errorf("inserting rows for %s: %w", run.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// GetRun loads one run with its rows
func (p *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var rec runRecord
	err := p.db.GetContext(ctx, &rec, `SELECT * FROM scan_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.WrapError(core.ErrRunNotFound, fmt.Errorf("run %s", id))
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("getting run %s: %w", id, err))
	}

	rows, err := p.rowsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	run := fromRecords(rec, rows[id])
	return &run, nil
}

// ListRuns loads the newest runs and their rows
func (p *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT * FROM scan_runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var recs []runRecord
	if err := p.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("listing runs: %w", err))
	}
	if len(recs) == 0 {
		return []Run{}, nil
	}

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	rows, err := p.rowsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	runs := make([]Run, len(recs))
	for i, r := range recs {
		runs[i] = fromRecords(r, rows[r.ID])
	}
	return runs, nil
}

func (p *PostgresStore) rowsFor(ctx context.Context, ids []string) (map[string][]rowRecord, error) {
	var recs []rowRecord
	err := p.db.SelectContext(ctx, &recs,
		`SELECT * FROM scan_rows WHERE run_id = ANY($1) ORDER BY run_id, position`, pq.Array(ids))
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("loading rows: %w", err))
	}

	byRun := make(map[string][]rowRecord, len(ids))
	for _, r := range recs {
		byRun[r.RunID] = append(byRun[r.RunID], r)
	}
	return byRun, nil
}

func toRecords(run *Run) (runRecord, []rowRecord) {
	selected := make(map[string]bool, len(run.Selected))
	for _, s := range run.Selected {
		selected[s] = true
	}

	rows := make([]rowRecord, len(run.Rows))
	for i, r := range run.Rows {
		rows[i] = rowRecord{
			RunID:          run.ID,
			Position:       i,
			Symbol:         r.Symbol,
			WinProbability: r.WinProbability,
			Status:         string(r.Status),
			Error:          r.Error,
			Selected:       selected[r.Symbol],
		}
	}

	return runRecord{
		ID:        run.ID,
		CreatedAt: run.CreatedAt,
		StartDate: run.Start,
		EndDate:   run.End,
		Window:    run.Window,
		Threshold: run.Threshold,
	}, rows
}

func fromRecords(rec runRecord, rows []rowRecord) Run {
	run := Run{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Start:     rec.StartDate,
		End:       rec.EndDate,
		Window:    rec.Window,
		Threshold: rec.Threshold,
		Rows:      make([]scanner.Row, len(rows)),
		Selected:  []string{},
	}
	for i, r := range rows {
		run.Rows[i] = scanner.Row{
			Symbol:         r.Symbol,
			WinProbability: r.WinProbability,
			Status:         scanner.Status(r.Status),
			Error:          r.Error,
		}
		if r.Selected {
			run.Selected = append(run.Selected, r.Symbol)
		}
	}
	return run
}
