package web

// errors.go provides unified error responses for the web layer.
//
// Every error is logged with its technical detail and request id, then sent
// to the client as the user message from core.MapError: an HTML fragment for
// HTMX requests, JSON otherwise.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/soccerstat/internal/core"
	"github.com/JonMunkholm/soccerstat/internal/logging"
	"github.com/JonMunkholm/soccerstat/internal/store"
	"github.com/JonMunkholm/soccerstat/internal/web/templates"
	"github.com/go-chi/render"
)

var (
	errNoFile       = errors.New("no file provided")
	errNotCSV       = errors.New("not a csv file")
	errInvalidParam = errors.New("invalid parameter")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyCleans):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrCleanTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEmptyFile), errors.Is(err, core.ErrInvalidCSV):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNoFile), errors.Is(err, errNotCSV), errors.Is(err, errInvalidParam):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		err = core.ErrFileTooLarge
	}
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "error", err, "code", msg.Code)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err, "code", msg.Code)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			logger.Error("render error fragment", "error", err)
		}
		return
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// isHTMX reports whether the request came from HTMX.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
