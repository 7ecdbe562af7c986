package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/rdavies/planwell/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps the store's error kinds onto HTTP statuses. The
// presentation shell owns the user-facing wording; we only hand it the
// kind.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicateEntry):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, store.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrBusy):
		writeError(w, http.StatusServiceUnavailable, "storage busy, try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// withBusyRetry re-runs a write a couple of times with fibonacci backoff
// when the database is locked. Busy is the only error kind worth
// retrying automatically; everything else passes straight through.
func withBusyRetry(ctx context.Context, fn func() error) error {
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(50*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn()
		if errors.Is(err, store.ErrBusy) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

// parseDate parses an optional YYYY-MM-DD value.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
