package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"bossika/internal/core"
	applog "bossika/internal/log"
	"bossika/internal/storage"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed encoding JSON response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes. Validation
// failures carry the offending field so clients can highlight it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := core.AsValidation(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: ve.Message, Field: ve.Field})
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "not found"})
		return
	}
	if errors.Is(err, core.ErrNoInterestRate) {
		// The ceiling cannot be checked without a rate, so the write is
		// not acceptable rather than broken.
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: err.Error(), Field: "interest_rate"})
		return
	}
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidSize),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrEmptyLender):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: err.Error()})
		return
	}

	fields := applog.NewFields().WithError(err)
	fields[applog.FieldMethod] = r.Method
	fields[applog.FieldPath] = r.URL.Path
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
}

// decodeJSON reads a request body into dst, rejecting unknown fields
// and oversized payloads.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid JSON body: " + err.Error()})
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "request body must contain a single JSON object"})
		return false
	}
	return true
}

// pathID parses the {id} path segment.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid id: " + raw})
		return 0, false
	}
	return id, true
}
