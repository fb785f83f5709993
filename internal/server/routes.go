package server

import (
	"log"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"asistencia/internal/handlers/api"
	"asistencia/internal/middleware"
	"asistencia/internal/report"
)

// RegisterRoutes registers all application routes. exporter may be nil when
// spreadsheet export is not configured.
func (s *Server) RegisterRoutes(database api.Pinger, reports *report.Service, exporter api.Exporter) {
	// Initialize middleware
	tokenAuth := middleware.NewTokenAuth(s.Cfg.APIToken)
	if s.Cfg.APIToken == "" {
		log.Println("API_TOKEN is not set, /api/v1 does not require authentication")
	}

	// Initialize handlers
	healthHandler := api.NewHealthHandler(database)
	alertHandler := api.NewAlertHandler(reports, exporter)
	sessionHandler := api.NewSessionHandler(reports)

	// Operational routes
	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// JSON API
	v1 := s.App.Group("/api/v1", tokenAuth.RequireToken)
	v1.Get("/fichas/:numero/alertas", alertHandler.Report)
	v1.Post("/fichas/:numero/alertas/export", alertHandler.Export)
	v1.Post("/fichas/:numero/sesiones", sessionHandler.Create)
}
