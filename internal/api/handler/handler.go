package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"registration-analytics/internal/dashboard"
	"registration-analytics/internal/logger"
	"registration-analytics/internal/model"
	"registration-analytics/internal/pipeline"
	"registration-analytics/internal/store"
)

// DashboardService serves tables from the current snapshot
type DashboardService interface {
	Current() *dashboard.Snapshot
	Refresh(ctx context.Context) (*dashboard.Snapshot, error)
	Dashboard(ctx context.Context, cohort string) (model.Dashboard, error)
	Table(ctx context.Context, cohort, name string) (model.Table, error)
	Cohorts(ctx context.Context) ([]string, error)
}

// RunReader reads recorded refresh runs
type RunReader interface {
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	GetRun(ctx context.Context, runID string) (model.Run, error)
	GetRunErrors(ctx context.Context, runID string) ([]model.RunError, error)
}

// Handler holds the dependencies of the HTTP endpoints
type Handler struct {
	svc  DashboardService
	runs RunReader
}

// New creates a Handler. runs may be nil when no run store is configured.
func New(svc DashboardService, runs RunReader) *Handler {
	return &Handler{svc: svc, runs: runs}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.GetHTTPLogger().WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError maps snapshot and store failures to a status code
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrUnknownField):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case h.svc != nil && h.svc.Current() == nil:
		// no snapshot could be loaded at all
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.GetHTTPLogger().WithError(err).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
