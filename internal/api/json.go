package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/terjecfg/internal/apperr"
	"github.com/starford/terjecfg/internal/parser"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Line  int    `json:"line,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps service errors to HTTP statuses. Unexpected errors are
// logged with op and attrs and hidden behind "internal error".
func writeError(w http.ResponseWriter, op string, err error, attrs ...any) {
	var se *parser.StructuralError
	switch {
	case errors.Is(err, apperr.ErrVersionNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("version not found"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrUnsupportedFormat):
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported file format"))
	case errors.Is(err, apperr.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
	case errors.As(err, &se):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{Error: se.Error(), Line: se.Line})
	default:
		slog.Error(op+" failed", append(attrs, slog.String("error", err.Error()))...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
