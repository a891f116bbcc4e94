package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voxtel/cdrpipeline/internal/aggregate"
	"github.com/voxtel/cdrpipeline/internal/pipeline"
	"github.com/voxtel/cdrpipeline/internal/rating"
	"github.com/voxtel/cdrpipeline/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	pipe *pipeline.Pipeline,
	cdrRepo *repository.CDRRepo,
	agg *aggregate.Engine,
	rates *rating.Reloader,
) http.Handler {
	h := NewHandlers(pipe, cdrRepo, agg, rates)

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	// Ingestion.
	r.Post("/cdr", h.SubmitCDR)
	r.Post("/cdr/batch", h.SubmitBatch)
	r.Post("/cdr/import", h.ImportFile)

	// Records.
	r.Get("/cdr", h.ListCDRs)
	r.Get("/cdr/{call_id}", h.GetCDR)
	r.Delete("/cdr/{call_id}", h.DeleteCDR)

	// Analytics.
	r.Get("/analytics/summary", h.GetSummary)
	r.Get("/analytics/costs", h.GetCostAnalysis)
	r.Get("/analytics/carriers", h.GetCarrierStats)
	r.Get("/analytics/geographic", h.GetGeographic)
	r.Get("/analytics/traffic", h.GetTraffic)

	// Rates.
	r.Get("/rates/carriers", h.ListCarriers)
	r.Post("/rates/reload", h.ReloadRates)

	// Export and operations.
	r.Get("/export", h.Export)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)

	return r
}
