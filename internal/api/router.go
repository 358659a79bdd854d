package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "registration-analytics/docs"
	"registration-analytics/internal/api/handler"
	"registration-analytics/pkg/router"
)

// RegisterRoutes wires the API, metrics and docs endpoints onto r.
// gatherer may be nil to skip /metrics.
func RegisterRoutes(r *router.Router, h *handler.Handler, gatherer prometheus.Gatherer) {
	r.GET("/healthz", h.Healthz)

	r.GET("/api/v1/cohorts", h.GetCohorts)
	r.GET("/api/v1/dashboard", h.GetDashboard)
	r.GET("/api/v1/tables/*", h.GetTable)
	r.POST("/api/v1/refresh", h.Refresh)

	r.GET("/api/v1/runs", h.ListRuns)
	// More specific routes first
	r.GET("/api/v1/runs/*/errors", h.GetRunErrors)
	r.GET("/api/v1/runs/*", h.GetRun)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

// NewRouter creates a router with every route registered
func NewRouter(h *handler.Handler, gatherer prometheus.Gatherer) *router.Router {
	r := router.New()
	RegisterRoutes(r, h, gatherer)
	return r
}
