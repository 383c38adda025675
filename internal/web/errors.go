package web

// errors.go turns service errors into HTTP responses.
//
// The technical error is logged with the request ID; the client gets the
// mapped UserMessage, as JSON for API calls or as an HTML page otherwise.
// Status codes follow the error kind:
//
//	422 - the export was read but is not a catalog (columns, empty, no sheets)
//	413 - the upload or download exceeded the size limit
//	404 - unknown snapshot, or nothing built yet
//	502 - the sheet host failed or answered with an error
//	503 - import slots busy or no sheet configured
//	504 - the build ran out of time
//	429 - rate limited

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/csv"
	"github.com/JonMunkholm/catalog/internal/source"
	"github.com/JonMunkholm/catalog/internal/store"
	"github.com/JonMunkholm/catalog/internal/web/views"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	// Missing lists the absent header columns of a column mismatch.
	Missing []string `json:"missing,omitempty"`
}

var errNoFile = errors.New("no file provided")

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var mismatch *catalog.ColumnMismatchError
	var status *source.StatusError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &mismatch),
		errors.Is(err, catalog.ErrColumnMismatch),
		errors.Is(err, catalog.ErrEmptyInput),
		errors.Is(err, source.ErrNoSheets),
		strings.Contains(err.Error(), "invalid xlsx"):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, csv.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports), errors.Is(err, source.ErrNoURL):
		return http.StatusServiceUnavailable
	case errors.As(err, &status), strings.Contains(err.Error(), "source fetch failed"):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if statusCode >= 500 {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if errors.Is(err, core.ErrTooManyImports) {
		w.Header().Set("Retry-After", "5")
	}

	if !wantsJSON(r) {
		respondErrorHTML(w, r, userMsg, statusCode)
		return
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	var mismatch *catalog.ColumnMismatchError
	if errors.As(err, &mismatch) {
		resp.Missing = mismatch.Missing
	}
	writeJSON(w, statusCode, resp)
}

func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := views.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error page", "error", err, "status", statusCode)
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
