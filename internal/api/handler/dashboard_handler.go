package handler

import (
	"net/http"
	"strings"
	"time"

	"registration-analytics/internal/pipeline"
	"registration-analytics/pkg/router"
)

// CohortsResponse lists the cohorts available for selection
type CohortsResponse struct {
	Cohorts []string `json:"cohorts"`
	Count   int      `json:"count"`
}

// RefreshResponse summarizes a completed refresh
type RefreshResponse struct {
	RunID    string    `json:"run_id"`
	LoadedAt time.Time `json:"loaded_at"`
	Total    int       `json:"total"`
	Accepted int       `json:"accepted"`
	Rejected int       `json:"rejected"`
	Cohorts  []string  `json:"cohorts"`
}

// HealthResponse reports whether a snapshot is being served
type HealthResponse struct {
	Status         string     `json:"status"`
	SnapshotLoaded bool       `json:"snapshot_loaded"`
	RunID          string     `json:"run_id,omitempty"`
	LoadedAt       *time.Time `json:"loaded_at,omitempty"`
}

// GetCohorts lists the cohorts in the current snapshot
// @Summary List cohorts
// @Description Distinct cohorts of the loaded registrations, in first-seen order
// @Tags dashboard
// @Produce json
// @Success 200 {object} CohortsResponse
// @Failure 503 {object} ErrorResponse "No snapshot could be loaded"
// @Router /cohorts [get]
func (h *Handler) GetCohorts(w http.ResponseWriter, r *http.Request) {
	cohorts, err := h.svc.Cohorts(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CohortsResponse{Cohorts: cohorts, Count: len(cohorts)})
}

// GetDashboard returns every table for a cohort
// @Summary Get dashboard
// @Description Compute all seven dashboard tables. Cohort tables use the selected cohort only; the first cohort is used when none is given.
// @Tags dashboard
// @Produce json
// @Param cohort query string false "Cohort to select"
// @Success 200 {object} model.Dashboard
// @Failure 503 {object} ErrorResponse "No snapshot could be loaded"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /dashboard [get]
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboard(r.Context(), r.URL.Query().Get("cohort"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// GetTable returns one dashboard table
// @Summary Get table
// @Description Compute a single dashboard table, optionally re-sorted by one of its columns
// @Tags dashboard
// @Produce json
// @Param name path string true "Table name"
// @Param cohort query string false "Cohort to select"
// @Param sort query string false "Column to sort by"
// @Param order query string false "asc or desc" default(asc)
// @Success 200 {object} model.Table
// @Failure 400 {object} ErrorResponse "Invalid sort column or order"
// @Failure 404 {object} ErrorResponse "Unknown table"
// @Failure 503 {object} ErrorResponse "No snapshot could be loaded"
// @Router /tables/{name} [get]
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	name := router.PathSegment(r, 3)
	if !knownTable(name) {
		writeError(w, http.StatusNotFound, "unknown table "+name)
		return
	}

	q := r.URL.Query()
	ascending := true
	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
	case "desc":
		ascending = false
	default:
		writeError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}

	table, err := h.svc.Table(r.Context(), q.Get("cohort"), name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if col := q.Get("sort"); col != "" {
		if table, err = pipeline.SortTable(table, col, ascending); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, table)
}

func knownTable(name string) bool {
	for _, n := range pipeline.TableNames {
		if n == name {
			return true
		}
	}
	return false
}

// Refresh reloads the registration collection
// @Summary Refresh snapshot
// @Description Reload the collection and derive a new snapshot. On failure the previous snapshot keeps being served.
// @Tags dashboard
// @Produce json
// @Success 200 {object} RefreshResponse
// @Failure 503 {object} ErrorResponse "Load failed"
// @Router /refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{
		RunID:    snap.RunID,
		LoadedAt: snap.LoadedAt,
		Total:    snap.Total,
		Accepted: len(snap.Records),
		Rejected: len(snap.Rejected),
		Cohorts:  snap.Cohorts,
	})
}

// Healthz reports liveness and whether a snapshot is loaded
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if snap := h.svc.Current(); snap != nil {
		resp.SnapshotLoaded = true
		resp.RunID = snap.RunID
		loadedAt := snap.LoadedAt
		resp.LoadedAt = &loadedAt
	}
	writeJSON(w, http.StatusOK, resp)
}
