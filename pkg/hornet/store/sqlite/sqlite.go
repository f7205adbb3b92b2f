package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/hornet/pkg/hornet/internalerr"
	"github.com/cognicore/hornet/pkg/hornet/store"
)

// sqliteArchive implements the Archive interface using SQLite
type sqliteArchive struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite archive with WAL mode enabled, creating
// the file and schema when missing.
func OpenSQLite(ctx context.Context, path string) (store.Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrStoreUnavailable)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrStoreUnavailable)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrStoreUnavailable)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrStoreUnavailable)
	}

	return &sqliteArchive{db: db}, nil
}

// Close closes the database connection
func (s *sqliteArchive) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	query TEXT,
	proven INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	rounds INTEGER NOT NULL,
	fact_count INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_steps (
	run_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	round INTEGER NOT NULL,
	rule_idx INTEGER NOT NULL,
	rule_name TEXT,
	bindings TEXT,
	sources TEXT,
	derived TEXT NOT NULL,
	PRIMARY KEY(run_id, idx),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run and its steps
func (s *sqliteArchive) SaveRun(ctx context.Context, r store.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO runs (id, query, proven, status, rounds, fact_count, started_at, elapsed_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	query=excluded.query,
	proven=excluded.proven,
	status=excluded.status,
	rounds=excluded.rounds,
	fact_count=excluded.fact_count,
	started_at=excluded.started_at,
	elapsed_ms=excluded.elapsed_ms;
`

	proven := 0
	if r.Proven {
		proven = 1
	}
	_, err = tx.ExecContext(
		ctx,
		stmt,
		r.ID,
		r.Query,
		proven,
		r.Status,
		r.Rounds,
		r.FactCount,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.Elapsed.Milliseconds(),
	)
	if err != nil {
		return err
	}

	if err := replaceRunSteps(ctx, tx, r.ID, r.Steps); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceRunSteps(ctx context.Context, tx *sql.Tx, runID string, steps []store.Step) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_steps WHERE run_id=?`, runID); err != nil {
		return err
	}
	if len(steps) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO run_steps (run_id, idx, round, rule_idx, rule_name, bindings, sources, derived)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, st := range steps {
		bindings, err := json.Marshal(st.Bindings)
		if err != nil {
			return fmt.Errorf("encode bindings: %w", err)
		}
		sources, err := json.Marshal(st.Sources)
		if err != nil {
			return fmt.Errorf("encode sources: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, runID, st.Index, st.Round, st.RuleIndex,
			st.RuleName, string(bindings), string(sources), st.Derived); err != nil {
			return err
		}
	}
	return nil
}

// GetRun retrieves a run and its full trace by ID
func (s *sqliteArchive) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, query, proven, status, rounds, fact_count, started_at, elapsed_ms
FROM runs WHERE id = ?`, id)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}

	steps, err := s.loadSteps(ctx, id)
	if err != nil {
		return store.Run{}, false, err
	}
	r.Steps = steps
	return r, true, nil
}

// ListRuns returns run summaries without steps, newest first
func (s *sqliteArchive) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, query, proven, status, rounds, fact_count, started_at, elapsed_ms
FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneBefore deletes runs started before the cutoff
func (s *sqliteArchive) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (store.Run, error) {
	var (
		r         store.Run
		proven    int
		startedAt string
		elapsedMS int64
	)
	err := row.Scan(&r.ID, &r.Query, &proven, &r.Status, &r.Rounds, &r.FactCount, &startedAt, &elapsedMS)
	if err != nil {
		return store.Run{}, err
	}
	r.Proven = proven != 0
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		r.StartedAt = t
	}
	r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return r, nil
}

func (s *sqliteArchive) loadSteps(ctx context.Context, runID string) ([]store.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT idx, round, rule_idx, rule_name, bindings, sources, derived
FROM run_steps WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []store.Step
	for rows.Next() {
		var (
			st       store.Step
			bindings string
			sources  string
		)
		if err := rows.Scan(&st.Index, &st.Round, &st.RuleIndex, &st.RuleName,
			&bindings, &sources, &st.Derived); err != nil {
			return nil, err
		}
		if bindings != "" {
			if err := json.Unmarshal([]byte(bindings), &st.Bindings); err != nil {
				return nil, fmt.Errorf("decode bindings: %w", err)
			}
		}
		if sources != "" {
			if err := json.Unmarshal([]byte(sources), &st.Sources); err != nil {
				return nil, fmt.Errorf("decode sources: %w", err)
			}
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}
