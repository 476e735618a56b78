// Package api exposes lead scoring, bulk import and ad planning over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/lead-api/internal/model"
	"github.com/sells-group/lead-api/internal/store"
)

// LeadProcessor runs leads through the scoring pipeline.
type LeadProcessor interface {
	Process(ctx context.Context, lead model.Lead, useAI bool) (*model.EnrichedLead, error)
	BulkImport(ctx context.Context, leads []model.Lead, useAI bool) (*model.ImportReport, error)
}

// LeadReader is the read side of the lead store.
type LeadReader interface {
	ListLeads(ctx context.Context, filter store.LeadFilter) ([]model.EnrichedLead, error)
	GetLead(ctx context.Context, id string) (*model.EnrichedLead, error)
}

// AdPlanner builds ad segment plans.
type AdPlanner interface {
	BuildPlan(req model.AdCampaignRequest) (*model.AdPlan, error)
	BuildPreviews(plan *model.AdPlan, req model.AdCampaignRequest) []model.AdPreview
}

// Deps are the collaborators behind the HTTP handlers.
type Deps struct {
	Pipeline       LeadProcessor
	Leads          LeadReader
	Planner        AdPlanner
	MaxBatchSize   int
	AllowedOrigins []string
}

// NewRouter builds the chi router with middleware and all routes mounted.
func NewRouter(d Deps) http.Handler {
	h := &handlers{deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.health)

	r.Route("/leads", func(r chi.Router) {
		r.Get("/", h.listLeads)
		r.Post("/classify", h.classifyLead)
		r.Post("/bulk-import", h.bulkImport)
		r.Get("/{id}", h.getLead)
	})

	r.Post("/ads/segment", h.adsSegment)

	return r
}

// requestLogger logs each request with its chi request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		zap.L().Info("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
