package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeServiceError maps a service error to its HTTP form. Errors without a
// kind are logged and reported as internal errors.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	resp := ErrorResponse{Details: appErr.Message}
	status := http.StatusInternalServerError

	switch appErr.Kind {
	case apperr.KindValidation:
		status, resp.Error = http.StatusBadRequest, "validation_error"
	case apperr.KindNotFound:
		status, resp.Error = http.StatusNotFound, "not_found"
	case apperr.KindConflict:
		status, resp.Error = http.StatusConflict, "conflict"
		resp.Conflict = appErr.Conflicts
	case apperr.KindState:
		status, resp.Error = http.StatusConflict, "invalid_state"
	case apperr.KindCapacity:
		status, resp.Error = http.StatusConflict, "no_capacity"
	case apperr.KindRetryable:
		status, resp.Error = http.StatusServiceUnavailable, "retry"
		w.Header().Set("Retry-After", "1")
	default:
		resp.Error = "internal_error"
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("kind", string(appErr.Kind)).Msg("request failed")
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads the body into dst. It writes the 400 response itself and
// reports false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not read request body")
		return false
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body exceeds 1MB")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", fmt.Sprintf("could not parse JSON: %v", err))
		return false
	}
	return true
}

// uuidParam parses a UUID path parameter, writing the 400 response on failure.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
