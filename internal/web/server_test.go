package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/soccerstat/internal/config"
	"github.com/JonMunkholm/soccerstat/internal/core"
	"github.com/JonMunkholm/soccerstat/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const playersCSV = "Player,Squad,Age,MP,Min,Gls\n" +
	"Alice,Leeds,24,30,2500,999\n" +
	"Alice,Leeds,24,10,800,3\n" +
	"Bob,York,12,5,400,1\n" +
	",Hull,22,3,100,0\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Clean: config.CleanConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   100 * time.Millisecond,
			Timeout:       5 * time.Second,
			GoalsLimit:    73,
			MinAge:        15,
			MaxAge:        50,
		},
		Rate:     config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100, CleanLimit: 10},
		Security: config.SecurityConfig{EnableCSP: true, CORSAllowedOrigins: []string{"*"}},
		Metrics:  config.MetricsConfig{Enabled: true, Namespace: "test"},
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return NewServer(cfg, core.NewService(cfg, store.NewMemory(), nil))
}

// uploadRequest builds a multipart POST with content as the "file" part.
func uploadRequest(t *testing.T, target, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/health/store", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestColumns(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Clean.GoalsLimit = 36 })

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/columns", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body ColumnsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Expected, "Player")
	assert.Equal(t, 15.0, body.MinAge)
	assert.Contains(t, body.RecordLimits, core.RecordLimit{Column: "Gls", Max: 36})
}

func TestClean_JSON(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "/api/clean", "players.csv", playersCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		RunID       string           `json:"run_id"`
		Summary     core.Summary     `json:"summary"`
		Diagnostics core.Diagnostics `json:"diagnostics"`
		Degraded    bool             `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, body.RunID, rec.Header().Get("X-Run-ID"))
	assert.Equal(t, 4, body.Summary.RowsIn)
	assert.Equal(t, 2, body.Summary.RowsOut)
	assert.False(t, body.Degraded)
	assert.NotEmpty(t, body.Diagnostics)

	runRec := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs/"+body.RunID, nil))
	require.Equal(t, http.StatusOK, runRec.Code)
	var run store.RunRecord
	require.NoError(t, json.Unmarshal(runRec.Body.Bytes(), &run))
	assert.Equal(t, "players.csv", run.FileName)
	assert.Equal(t, 2, run.RowsOut)
}

func TestClean_CSVDownload(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "/api/clean?format=csv", "players.csv", playersCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, `attachment; filename="cleaned_players.csv"`, rec.Header().Get("Content-Disposition"))
	assert.NotEqual(t, "0", rec.Header().Get("X-Clean-Diagnostics"))

	want := "Player,Squad,Age,MP,Min,Gls\nAlice,Leeds,24,30,2500,73\nBob,York,,5,400,1\n"
	assert.Equal(t, want, rec.Body.String())
}

func TestClean_XLSXDownload(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "/api/clean?format=xlsx", "players.csv", playersCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("cleaned")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestClean_HTMXReport(t *testing.T) {
	s := newTestServer(t, nil)

	req := uploadRequest(t, "/api/clean", "players.csv", playersCSV)
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "record limit 73")
}

func TestClean_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		mutate   func(*config.Config)
		wantCode int
		wantErr  string
	}{
		{
			name:     "bad format",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "/api/clean?format=pdf", "p.csv", playersCSV) },
			wantCode: http.StatusBadRequest,
			wantErr:  "VAL001",
		},
		{
			name: "no file",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/clean", strings.NewReader("x"))
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE004",
		},
		{
			name:     "not a csv",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "/api/clean", "photo.png", playersCSV) },
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE006",
		},
		{
			name:     "empty file",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "/api/clean", "p.csv", "") },
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "FILE005",
		},
		{
			name:     "too large",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "/api/clean", "p.csv", playersCSV) },
			mutate:   func(c *config.Config) { c.Clean.MaxFileSize = 10 },
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "FILE001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.mutate)

			rec := serve(s, tt.req(t))

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, decodeError(t, rec).Code)
		})
	}
}

func TestClean_HTMXError(t *testing.T) {
	s := newTestServer(t, nil)

	req := uploadRequest(t, "/api/clean", "p.csv", "")
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Code: FILE005")
}

func TestValidate(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "/api/validate", "players.csv", playersCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report core.HeaderReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Identifiable)
	assert.False(t, report.Complete)
	assert.Contains(t, report.Missing, "xG")
}

func TestRuns(t *testing.T) {
	s := newTestServer(t, nil)
	serve(s, uploadRequest(t, "/api/clean", "a.csv", playersCSV))
	serve(s, uploadRequest(t, "/api/clean", "b.csv", playersCSV))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []store.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/runs?limit=1000", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/runs/not-a-run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "STO001", decodeError(t, rec).Code)
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/columns", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/columns", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health stays open")
}

func TestCleanRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.CleanLimit = 1
	})

	first := serve(s, uploadRequest(t, "/api/clean", "a.csv", playersCSV))
	assert.Equal(t, http.StatusOK, first.Code)

	second := serve(s, uploadRequest(t, "/api/clean", "a.csv", playersCSV))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	cols := serve(s, httptest.NewRequest(http.MethodGet, "/api/columns", nil))
	assert.Equal(t, http.StatusOK, cols.Code, "other routes use the general budget")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	serve(s, uploadRequest(t, "/api/clean", "a.csv", playersCSV))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_cleans_total{status="ok"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/clean", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(s, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
