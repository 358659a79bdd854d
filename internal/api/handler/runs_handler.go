package handler

import (
	"net/http"
	"strconv"

	"registration-analytics/internal/model"
	"registration-analytics/pkg/router"
)

// RunErrorsResponse lists the records rejected in a run
type RunErrorsResponse struct {
	RunID  string           `json:"run_id"`
	Errors []model.RunError `json:"errors"`
	Count  int              `json:"count"`
}

// ListRuns retrieves recorded refresh runs
// @Summary List runs
// @Description Get recorded snapshot refreshes, newest first
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum runs to return" default(50)
// @Success 200 {array} model.Run
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Failure 503 {object} ErrorResponse "Run store not configured"
// @Router /runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun retrieves one refresh run
// @Summary Get run
// @Description Retrieve the status and record counts of a refresh run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.Run
// @Failure 404 {object} ErrorResponse "Run not found"
// @Failure 503 {object} ErrorResponse "Run store not configured"
// @Router /runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}

	run, err := h.runs.GetRun(r.Context(), router.PathSegment(r, 3))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetRunErrors retrieves the records rejected in a run
// @Summary Get run errors
// @Description Retrieve every record rejected while deriving a snapshot
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} RunErrorsResponse
// @Failure 404 {object} ErrorResponse "Run not found"
// @Failure 503 {object} ErrorResponse "Run store not configured"
// @Router /runs/{id}/errors [get]
func (h *Handler) GetRunErrors(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}

	runID := router.PathSegment(r, 3)
	if _, err := h.runs.GetRun(r.Context(), runID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	errs, err := h.runs.GetRunErrors(r.Context(), runID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RunErrorsResponse{RunID: runID, Errors: errs, Count: len(errs)})
}
