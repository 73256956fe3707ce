package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/photolib/photolib/internal/metadata"
	"github.com/photolib/photolib/pkg/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// writeError maps pipeline errors to HTTP statuses. Interior error detail
// never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, metadata.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, storage.ErrEmptyFile),
		errors.Is(err, storage.ErrInvalidTTL),
		errors.Is(err, storage.ErrPathEscapes):
		respondError(w, http.StatusBadRequest, "bad request")
	case errors.Is(err, storage.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, storage.ErrAccessDenied):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away; nothing useful to write.
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// noCacheHeaders marks a response as per-request, matching the short-lived
// nature of the streams behind it.
func noCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("Expires", time.Unix(0, 0).UTC().Format(http.TimeFormat))
}
