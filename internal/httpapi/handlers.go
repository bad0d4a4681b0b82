package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"taskdeck.org/internal/identity"
	"taskdeck.org/internal/notes"
	"taskdeck.org/internal/obs"
	"taskdeck.org/internal/tasks"
)

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "taskdeck-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSuccess wraps a payload in the {message, data} envelope. extra merges
// additional top-level fields such as the login token.
func writeSuccess(w http.ResponseWriter, code int, message string, data any, extra map[string]any) {
	payload := map[string]any{
		"message": message,
		"data":    data,
	}
	for k, v := range extra {
		payload[k] = v
	}
	writeJSON(w, code, payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"status":  code,
		"message": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleDomainError maps the per-package sentinel errors onto the error
// envelope. Anything unclassified becomes a 500 whose message is suppressed
// outside dev mode.
func (a *API) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, identity.ErrValidation),
		errors.Is(err, notes.ErrValidation),
		errors.Is(err, tasks.ErrValidation),
		errors.Is(err, identity.ErrConflict):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrResetToken):
		writeError(w, r, http.StatusBadRequest, "Token is invalid or has expired")
	case errors.Is(err, identity.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, notes.ErrForbidden), errors.Is(err, tasks.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, identity.ErrNotFound),
		errors.Is(err, notes.ErrNotFound),
		errors.Is(err, tasks.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		msg := "internal error"
		if a.cfg.DevMode {
			msg = err.Error()
		}
		obs.LogError("unhandled request error", map[string]any{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, msg)
	}
}

// pathSuffix extracts the trailing id segment after prefix, rejecting empty
// or nested remainders.
func pathSuffix(path, prefix string) (string, bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || rest == path || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
