package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/internal/store"
	"github.com/fleetops/apiserver/types"
)

type contextKey string

const contextScopeKey contextKey = "scope"

// scopeFromContext returns the request's authorization scope. The auth
// middleware guarantees it is present on protected routes.
func scopeFromContext(ctx context.Context) (types.Scope, bool) {
	scope, ok := ctx.Value(contextScopeKey).(types.Scope)
	return scope, ok
}

// ErrorResponse is the stable error payload: a machine-readable code plus a
// human message.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stable machine-readable error codes.
const (
	codeValidation   = "validation_error"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeInternal     = "internal"
)

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeServiceError maps domain errors to the HTTP taxonomy. Unexpected
// errors are logged and surfaced as a generic 500 without leaking internals.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, codeValidation, unwrapMessage(err))
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, unwrapMessage(err))
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, unwrapMessage(err))
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, codeConflict, unwrapMessage(err))
	default:
		log.Printf("[handlers] internal error: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

// unwrapMessage keeps the wrapped error chain as the user-facing message.
// Sentinel suffixes like ": validation error" add nothing for the client.
func unwrapMessage(err error) string {
	msg := err.Error()
	for _, suffix := range []string{
		": " + services.ErrValidation.Error(),
		": " + services.ErrForbidden.Error(),
		": " + store.ErrNotFound.Error(),
		": " + store.ErrConflict.Error(),
	} {
		msg = strings.TrimSuffix(msg, suffix)
	}
	return msg
}

func parseIntParam(raw, name string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// parseTimeRange reads optional ?from= and ?to= query parameters in RFC 3339
// or date-only form. Absent values return nil.
func parseTimeRange(r *http.Request) (from, to *time.Time, err error) {
	parse := func(raw string) (*time.Time, error) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, nil
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return &t, nil
			}
		}
		return nil, errors.New("invalid time value " + raw)
	}

	if from, err = parse(r.URL.Query().Get("from")); err != nil {
		return nil, nil, err
	}
	if to, err = parse(r.URL.Query().Get("to")); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
