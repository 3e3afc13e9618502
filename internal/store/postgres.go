package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS clean_runs (
	id           UUID PRIMARY KEY,
	file_name    TEXT NOT NULL,
	rows_in      INTEGER NOT NULL,
	rows_out     INTEGER NOT NULL,
	columns_in   INTEGER NOT NULL,
	columns_out  INTEGER NOT NULL,
	diagnostics  JSONB NOT NULL DEFAULT '[]',
	failed       BOOLEAN NOT NULL DEFAULT FALSE,
	error        TEXT NOT NULL DEFAULT '',
	ip_address   TEXT NOT NULL DEFAULT '',
	user_agent   TEXT NOT NULL DEFAULT '',
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS clean_runs_created_at_idx ON clean_runs (created_at DESC);
`

const runColumns = `id, file_name, rows_in, rows_out, columns_in, columns_out,
	diagnostics, failed, error, ip_address, user_agent, duration_ms, created_at`

// Postgres stores runs in a PostgreSQL table through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects, pings and creates the runs table if needed.
func NewPostgres(ctx context.Context, url string, opts Options) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) SaveRun(ctx context.Context, run RunRecord) error {
	prepare(&run)
	diags, err := json.Marshal(run.Diagnostics)
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}

	_, err = p.pool.Exec(ctx, `INSERT INTO clean_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		pgtype.UUID{Bytes: run.ID, Valid: true},
		run.FileName, run.RowsIn, run.RowsOut, run.ColumnsIn, run.ColumnsOut,
		diags, run.Failed, run.Error, run.IPAddress, run.UserAgent,
		run.DurationMS, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (p *Postgres) GetRun(ctx context.Context, id uuid.UUID) (RunRecord, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM clean_runs WHERE id = $1`,
		pgtype.UUID{Bytes: id, Valid: true})
	run, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return RunRecord{}, ErrRunNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+runColumns+` FROM clean_runs
		ORDER BY created_at DESC LIMIT $1`, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanPostgresRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (p *Postgres) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM clean_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func scanPostgresRun(row pgx.Row) (RunRecord, error) {
	var (
		run   RunRecord
		id    pgtype.UUID
		diags []byte
	)
	err := row.Scan(&id, &run.FileName, &run.RowsIn, &run.RowsOut, &run.ColumnsIn, &run.ColumnsOut,
		&diags, &run.Failed, &run.Error, &run.IPAddress, &run.UserAgent, &run.DurationMS, &run.CreatedAt)
	if err != nil {
		return RunRecord{}, err
	}
	run.ID = uuid.UUID(id.Bytes)
	if err := json.Unmarshal(diags, &run.Diagnostics); err != nil {
		return RunRecord{}, fmt.Errorf("decode diagnostics: %w", err)
	}
	return run, nil
}
