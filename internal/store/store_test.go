package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns every store the suite can reach. Postgres runs only when
// TEST_POSTGRES_URL points at a scratch database.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	sqlite, err := NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	stores := map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}

	if url := os.Getenv("TEST_POSTGRES_URL"); url != "" {
		pg, err := NewPostgres(ctx, url, Options{MaxConns: 2})
		require.NoError(t, err)
		_, err = pg.pool.Exec(ctx, `TRUNCATE clean_runs`)
		require.NoError(t, err)
		t.Cleanup(func() { pg.Close() })
		stores["postgres"] = pg
	}
	return stores
}

func sampleRun(name string, created time.Time) RunRecord {
	return RunRecord{
		FileName:    name,
		RowsIn:      120,
		RowsOut:     97,
		ColumnsIn:   32,
		ColumnsOut:  30,
		Diagnostics: []string{"3 exact duplicate rows removed", "1 outlier clipped for column Gls (record limit 73)"},
		IPAddress:   "203.0.113.7",
		UserAgent:   "curl/8.5",
		DurationMS:  42,
		CreatedAt:   created,
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			run := sampleRun("players.csv", time.Now().UTC().Truncate(time.Microsecond))
			run.ID = uuid.New()

			require.NoError(t, st.SaveRun(ctx, run))

			got, err := st.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, run.ID, got.ID)
			assert.Equal(t, "players.csv", got.FileName)
			assert.Equal(t, 23, got.RowsRemoved())
			assert.Equal(t, run.Diagnostics, got.Diagnostics)
			assert.Equal(t, run.IPAddress, got.IPAddress)
			assert.Equal(t, int64(42), got.DurationMS)
			assert.True(t, run.CreatedAt.Equal(got.CreatedAt), "CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
		})
	}
}

func TestStore_SaveFillsDefaults(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.SaveRun(ctx, RunRecord{FileName: "bare.csv"}))

			runs, err := st.ListRuns(ctx, 10)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.NotEqual(t, uuid.Nil, runs[0].ID)
			assert.False(t, runs[0].CreatedAt.IsZero())
			assert.Empty(t, runs[0].Diagnostics)
		})
	}
}

func TestStore_GetUnknownRun(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.GetRun(context.Background(), uuid.New())
			assert.ErrorIs(t, err, ErrRunNotFound)
		})
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().UTC().Add(-time.Hour)
			for i, file := range []string{"a.csv", "b.csv", "c.csv"} {
				require.NoError(t, st.SaveRun(ctx, sampleRun(file, base.Add(time.Duration(i)*time.Minute))))
			}

			runs, err := st.ListRuns(ctx, 2)
			require.NoError(t, err)
			require.Len(t, runs, 2)
			assert.Equal(t, "c.csv", runs[0].FileName)
			assert.Equal(t, "b.csv", runs[1].FileName)
		})
	}
}

func TestStore_PurgeBefore(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()
			require.NoError(t, st.SaveRun(ctx, sampleRun("old.csv", now.Add(-40*24*time.Hour))))
			require.NoError(t, st.SaveRun(ctx, sampleRun("new.csv", now)))

			n, err := st.PurgeBefore(ctx, now.Add(-30*24*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			runs, err := st.ListRuns(ctx, 0)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, "new.csv", runs[0].FileName)
		})
	}
}

func TestStore_Ping(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, st.Ping(context.Background()))
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, "memory://", Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)

	st, err = Open(ctx, "", Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)

	st, err = Open(ctx, "sqlite://:memory:", Options{})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, st)
	require.NoError(t, st.Close())

	_, err = Open(ctx, "mysql://localhost/runs", Options{})
	assert.ErrorContains(t, err, "unsupported store url scheme")
}

func TestBackend(t *testing.T) {
	tests := map[string]string{
		"":                          "memory",
		"memory://":                 "memory",
		"postgres://u:p@h/db":       "postgres",
		"postgresql://u:p@h/db":     "postgres",
		"sqlite:///var/lib/runs.db": "sqlite",
	}
	for url, want := range tests {
		assert.Equal(t, want, Backend(url), "Backend(%q)", url)
	}
}

func TestMemory_SaveCopiesDiagnostics(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	run := sampleRun("players.csv", time.Now())
	run.ID = uuid.New()
	require.NoError(t, st.SaveRun(ctx, run))

	run.Diagnostics[0] = "mutated"

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "3 exact duplicate rows removed", got.Diagnostics[0])
}
