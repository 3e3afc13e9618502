package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS clean_runs (
	id           TEXT PRIMARY KEY,
	file_name    TEXT NOT NULL,
	rows_in      INTEGER NOT NULL,
	rows_out     INTEGER NOT NULL,
	columns_in   INTEGER NOT NULL,
	columns_out  INTEGER NOT NULL,
	diagnostics  TEXT NOT NULL DEFAULT '[]',
	failed       INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	ip_address   TEXT NOT NULL DEFAULT '',
	user_agent   TEXT NOT NULL DEFAULT '',
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS clean_runs_created_at_idx ON clean_runs (created_at DESC);
`

// SQLite stores runs in a single-file database. created_at is kept as Unix
// nanoseconds so ordering and purging compare integers.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path. ":memory:" gives
// a private in-memory database.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite store needs a file path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: each connection to ":memory:" is a separate database,
	// and sqlite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) SaveRun(ctx context.Context, run RunRecord) error {
	prepare(&run)
	diags, err := json.Marshal(run.Diagnostics)
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO clean_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.FileName, run.RowsIn, run.RowsOut, run.ColumnsIn, run.ColumnsOut,
		string(diags), run.Failed, run.Error, run.IPAddress, run.UserAgent,
		run.DurationMS, run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *SQLite) GetRun(ctx context.Context, id uuid.UUID) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM clean_runs WHERE id = ?`, id.String())
	run, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrRunNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (s *SQLite) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM clean_runs
		ORDER BY created_at DESC LIMIT ?`, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLite) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clean_runs WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row rowScanner) (RunRecord, error) {
	var (
		run     RunRecord
		id      string
		diags   string
		created int64
	)
	err := row.Scan(&id, &run.FileName, &run.RowsIn, &run.RowsOut, &run.ColumnsIn, &run.ColumnsOut,
		&diags, &run.Failed, &run.Error, &run.IPAddress, &run.UserAgent, &run.DurationMS, &created)
	if err != nil {
		return RunRecord{}, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return RunRecord{}, fmt.Errorf("parse run id: %w", err)
	}
	if err := json.Unmarshal([]byte(diags), &run.Diagnostics); err != nil {
		return RunRecord{}, fmt.Errorf("decode diagnostics: %w", err)
	}
	run.CreatedAt = time.Unix(0, created).UTC()
	return run, nil
}
