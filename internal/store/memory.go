package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps runs in process memory. Used when no store URL is configured
// and in tests.
type Memory struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]RunRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{runs: make(map[uuid.UUID]RunRecord)}
}

func (m *Memory) SaveRun(ctx context.Context, run RunRecord) error {
	prepare(&run)
	run.Diagnostics = append([]string(nil), run.Diagnostics...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) GetRun(ctx context.Context, id uuid.UUID) (RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return RunRecord{}, ErrRunNotFound
	}
	return run, nil
}

func (m *Memory) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	m.mu.RLock()
	runs := make([]RunRecord, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run)
	}
	m.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit = listLimit(limit); len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *Memory) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, run := range m.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(m.runs, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
