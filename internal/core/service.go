package core

// service.go is the entry point used by the HTTP API and the server: it
// bounds concurrency, applies the clean timeout, records run history and
// observes metrics around the pure Cleaner.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/soccerstat/internal/config"
	"github.com/JonMunkholm/soccerstat/internal/logging"
	"github.com/JonMunkholm/soccerstat/internal/metrics"
	"github.com/JonMunkholm/soccerstat/internal/store"
	"github.com/google/uuid"
)

// storeWriteTimeout bounds saving a run record after the request is done.
const storeWriteTimeout = 5 * time.Second

// Service provides all clean operations.
type Service struct {
	cleaner *Cleaner
	limiter *Limiter
	store   store.Store
	metrics *metrics.Metrics

	maxFileSize int64
	timeout     time.Duration
}

// NewService creates a service from configuration. A nil store keeps runs in
// memory; nil metrics get a private registry.
func NewService(cfg *config.Config, st store.Store, m *metrics.Metrics) *Service {
	if st == nil {
		st = store.NewMemory()
	}
	if m == nil {
		m = metrics.New(cfg.Metrics.Namespace)
	}
	return &Service{
		cleaner:     NewCleaner(CleanerOptions(cfg.Clean)),
		limiter:     NewLimiter(cfg.Clean.MaxConcurrent, cfg.Clean.MaxWaitTime),
		store:       st,
		metrics:     m,
		maxFileSize: cfg.Clean.MaxFileSize,
		timeout:     cfg.Clean.Timeout,
	}
}

// CleanerOptions derives cleaner options from the clean config section.
func CleanerOptions(cfg config.CleanConfig) Options {
	opts := DefaultOptions()
	if cfg.GoalsLimit > 0 {
		opts = opts.WithRecordLimit(ColGls, cfg.GoalsLimit)
	}
	if cfg.MaxAge > cfg.MinAge {
		opts.MinAge = cfg.MinAge
		opts.MaxAge = cfg.MaxAge
	}
	return opts
}

// Cleaner returns the service's cleaner.
func (s *Service) Cleaner() *Cleaner {
	return s.cleaner
}

// Metrics returns the service's collectors.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// CleanUpload reads CSV from r and cleans it. size is the upload length when
// known, else 0. The read and clean together are bounded by the clean
// timeout: the caller gets either the whole cleaned table or an error.
func (s *Service) CleanUpload(ctx context.Context, fileName string, r io.Reader, size int64) (*CleanOutcome, error) {
	if size > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, size, s.maxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.metrics.ObserveClean(metrics.StatusRejected, 0, 0, 0)
		return nil, err
	}
	defer s.limiter.Release()
	s.metrics.CleanStarted()
	defer s.metrics.CleanFinished()

	runID := uuid.New()
	logger := logging.WithFields(ctx, "run_id", runID.String(), "file", fileName)
	start := time.Now()

	res, headers, err := s.readAndClean(ctx, r, size)

	run := store.RunRecord{
		ID:         runID,
		FileName:   fileName,
		IPAddress:  GetIPAddressFromContext(ctx),
		UserAgent:  GetUserAgentFromContext(ctx),
		DurationMS: time.Since(start).Milliseconds(),
	}

	if err != nil {
		run.Failed = true
		run.Error = err.Error()
		s.saveRun(ctx, run)

		status := metrics.StatusInvalid
		if errors.Is(err, ErrCleanTimeout) {
			status = metrics.StatusTimeout
		}
		s.metrics.ObserveClean(status, 0, 0, time.Since(start))
		logger.Warn("clean failed", "error", err, "duration_ms", run.DurationMS)
		return nil, err
	}

	outcome := &CleanOutcome{
		RunID:       runID.String(),
		FileName:    fileName,
		Table:       res.Table,
		Diagnostics: res.Diagnostics,
		Summary:     res.Summary,
		Headers:     headers,
	}

	run.RowsIn = res.Summary.RowsIn
	run.RowsOut = res.Summary.RowsOut
	run.ColumnsIn = res.Summary.ColumnsIn
	run.ColumnsOut = res.Summary.ColumnsOut
	run.Diagnostics = res.Diagnostics.Strings()
	run.Failed = outcome.Degraded()
	s.saveRun(ctx, run)

	status := metrics.StatusOK
	if outcome.Degraded() {
		status = metrics.StatusDegraded
	}
	s.metrics.ObserveClean(status, res.Summary.RowsIn, res.Summary.RowsOut, time.Since(start))
	for _, d := range res.Diagnostics {
		s.metrics.ObserveDiagnostic(d.Stage, d.Code)
		if d.Failed() {
			logger.Error("cleaning stage failed", "stage", d.Stage, "message", d.Message)
		}
	}

	logger.Info("clean completed",
		"rows_in", res.Summary.RowsIn,
		"rows_out", res.Summary.RowsOut,
		"columns_out", res.Summary.ColumnsOut,
		"diagnostics", len(res.Diagnostics),
		"duration_ms", run.DurationMS,
	)
	return outcome, nil
}

// readAndClean runs the read and the clean on a goroutine so the timeout can
// abandon it. An abandoned clean finishes in the background and is dropped.
func (s *Service) readAndClean(ctx context.Context, r io.Reader, size int64) (Result, HeaderReport, error) {
	type cleaned struct {
		res     Result
		headers HeaderReport
		err     error
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan cleaned, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- cleaned{err: fmt.Errorf("clean panicked: %v", p)}
			}
		}()

		raw, err := ReadTable(newSizeLimitReader(r, s.maxFileSize), size)
		if err != nil {
			done <- cleaned{err: err}
			return
		}
		done <- cleaned{res: s.cleaner.Clean(raw), headers: ValidateHeaders(raw.Columns)}
	}()

	select {
	case out := <-done:
		if errors.Is(out.err, ErrFileTooLarge) {
			return Result{}, HeaderReport{}, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxFileSize)
		}
		return out.res, out.headers, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, HeaderReport{}, fmt.Errorf("%w after %s", ErrCleanTimeout, s.timeout)
		}
		return Result{}, HeaderReport{}, ctx.Err()
	}
}

// ValidateUpload reads the header of r and compares it to the expected
// stats columns.
func (s *Service) ValidateUpload(ctx context.Context, r io.Reader) (HeaderReport, error) {
	header, err := ReadHeader(newSizeLimitReader(r, s.maxFileSize))
	if err != nil {
		return HeaderReport{}, err
	}
	return ValidateHeaders(header), nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]store.RunRecord, error) {
	runs, err := s.store.ListRuns(ctx, limit)
	s.metrics.ObserveStore("list", err)
	return runs, err
}

// GetRun returns one run by id. A malformed id is reported as not found.
func (s *Service) GetRun(ctx context.Context, id string) (store.RunRecord, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return store.RunRecord{}, fmt.Errorf("%w: %q", store.ErrRunNotFound, id)
	}
	run, err := s.store.GetRun(ctx, runID)
	if !errors.Is(err, store.ErrRunNotFound) {
		s.metrics.ObserveStore("get", err)
	}
	return run, err
}

// StoreHealth pings the run store.
func (s *Service) StoreHealth(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// LimiterStatus returns the current clean slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForCleans blocks until in-flight cleans finish or ctx ends.
func (s *Service) WaitForCleans(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// saveRun records a run without failing the clean: history is best-effort.
func (s *Service) saveRun(ctx context.Context, run store.RunRecord) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeWriteTimeout)
	defer cancel()

	err := s.store.SaveRun(saveCtx, run)
	s.metrics.ObserveStore("save", err)
	if err != nil {
		logging.FromContext(ctx).Warn("failed to save run record", "run_id", run.ID.String(), "error", err)
	}
}

// sizeLimitReader fails with ErrFileTooLarge once more than max bytes are read.
type sizeLimitReader struct {
	r    io.Reader
	left int64
}

func newSizeLimitReader(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return &sizeLimitReader{r: r, left: max}
}

func (l *sizeLimitReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, ErrFileTooLarge
	}
	return n, err
}
