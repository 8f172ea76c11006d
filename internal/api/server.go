// Package api exposes the time-off extraction flow over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/slack"
	"github.com/coverageiq/coverageiq/internal/timeoff"
)

const (
	defaultWindowHours = 24
	maxWindowHours     = 720

	defaultLimit = 100
	maxLimit     = 999
)

// Extractor is the time-off flow as the API consumes it.
type Extractor interface {
	Extract(ctx context.Context, channelID string, window time.Duration, limit int) ([]*timeoff.Entry, error)
}

// Deps carries everything the handlers need.
type Deps struct {
	Extractor Extractor
	ChannelID string
	Logger    *zap.Logger
}

// NewRouter builds the HTTP surface: the time-off listing and a liveness
// probe.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Get("/timeoff", handleTimeOff(deps))

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleTimeOff(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours, err := queryInt(r, "hours", defaultWindowHours, 1, maxWindowHours)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		limit, err := queryInt(r, "limit", defaultLimit, 1, maxLimit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		entries, err := deps.Extractor.Extract(r.Context(), deps.ChannelID, time.Duration(hours)*time.Hour, limit)
		if err != nil {
			var apiErr *slack.APIError
			if errors.As(err, &apiErr) {
				deps.Logger.Error("message source unavailable", zap.Error(err))
				writeError(w, http.StatusBadGateway, "message source unavailable")
				return
			}
			deps.Logger.Error("time-off extraction failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "time-off extraction failed")
			return
		}

		writeJSON(w, http.StatusOK, entries)
	}
}

// queryInt parses an optional integer query parameter, enforcing bounds.
func queryInt(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < min || value > max {
		return 0, errors.New(name + " must be an integer between " +
			strconv.Itoa(min) + " and " + strconv.Itoa(max))
	}
	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
