package web

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/soccerstat/internal/core"
	"github.com/JonMunkholm/soccerstat/internal/export"
	"github.com/JonMunkholm/soccerstat/internal/logging"
	"github.com/JonMunkholm/soccerstat/internal/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Download names for cleaned files.
const (
	cleanedCSVName  = "cleaned_players.csv"
	cleanedXLSXName = "cleaned_players.xlsx"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 1 << 20

// storePingTimeout bounds the store health check.
const storePingTimeout = 2 * time.Second

var validate = validator.New()

// cleanParams are the query parameters of POST /api/clean.
type cleanParams struct {
	Format string `validate:"omitempty,oneof=json csv xlsx"`
}

// listParams are the query parameters of GET /api/runs.
type listParams struct {
	Limit int `validate:"omitempty,min=1,max=500"`
}

// handleHealth reports liveness and clean slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status": "ok",
		"cleans": s.service.LimiterStatus(),
	})
}

// handleStoreHealth pings the run store.
func (s *Server) handleStoreHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storePingTimeout)
	defer cancel()

	if err := s.service.StoreHealth(ctx); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// ColumnsResponse describes the columns the cleaner recognizes.
type ColumnsResponse struct {
	Expected     []string           `json:"expected"`
	Numeric      []string           `json:"numeric"`
	Text         []string           `json:"text"`
	Counts       []string           `json:"counts"`
	RecordLimits []core.RecordLimit `json:"record_limits"`
	MinAge       float64            `json:"min_age"`
	MaxAge       float64            `json:"max_age"`
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	opts := s.service.Cleaner().Options()
	render.JSON(w, r, ColumnsResponse{
		Expected:     core.ExpectedColumns,
		Numeric:      core.NumericColumns,
		Text:         core.TextColumns,
		Counts:       core.CountColumns,
		RecordLimits: opts.RecordLimits,
		MinAge:       opts.MinAge,
		MaxAge:       opts.MaxAge,
	})
}

// handleValidate reports how an uploaded file's header compares to the
// expected columns without cleaning it.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	file, _, err := s.formFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	report, err := s.service.ValidateUpload(r.Context(), file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// CleanResponse is the JSON body of a successful clean.
type CleanResponse struct {
	*core.CleanOutcome
	Degraded bool `json:"degraded"`
}

// handleClean cleans an uploaded CSV. format=json (default) returns the
// report, csv and xlsx return the cleaned file as a download. HTMX requests
// get the report as an HTML fragment.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	params := cleanParams{Format: strings.ToLower(r.URL.Query().Get("format"))}
	if err := validate.Struct(params); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: format must be json, csv or xlsx", errInvalidParam))
		return
	}

	file, header, err := s.formFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	out, err := s.service.CleanUpload(ctx, header.Filename, file, header.Size)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("X-Run-ID", out.RunID)
	w.Header().Set("X-Clean-Diagnostics", strconv.Itoa(len(out.Diagnostics)))

	switch {
	case params.Format == "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", attachment(cleanedCSVName))
		if err := core.WriteCSV(w, out.Table); err != nil {
			s.logWriteError(r, err)
		}
	case params.Format == "xlsx":
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", attachment(cleanedXLSXName))
		if err := export.WriteXLSX(w, out.Table, out.Diagnostics); err != nil {
			s.logWriteError(r, err)
		}
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.CleanReport(out).Render(r.Context(), w); err != nil {
			s.logWriteError(r, err)
		}
	default:
		render.JSON(w, r, CleanResponse{CleanOutcome: out, Degraded: out.Degraded()})
	}
}

// handleListRuns returns recent runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	var params listParams
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: limit must be a number", errInvalidParam))
			return
		}
		params.Limit = n
	}
	if err := validate.Struct(params); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: limit must be between 1 and 500", errInvalidParam))
		return
	}

	runs, err := s.service.ListRuns(r.Context(), params.Limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, runs)
}

// handleGetRun returns one run record.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// formFile reads the "file" part of a multipart upload, bounded by the
// configured maximum file size.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxSize := s.cfg.Clean.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, nil, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return nil, nil, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errNoFile
	}
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv", ".txt", "":
	default:
		file.Close()
		return nil, nil, fmt.Errorf("%w: %s", errNotCSV, header.Filename)
	}
	return file, header, nil
}

func (s *Server) logWriteError(r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("failed to write response", "error", err)
}

func attachment(name string) string {
	return fmt.Sprintf(`attachment; filename=%q`, name)
}
