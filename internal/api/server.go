// Package api exposes the estimation engine over a JSON HTTP surface.
package api

import (
	"net/http"
	"time"

	"sweffect/app"
	"sweffect/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves the estimation API
type Server struct {
	service *app.EstimationService
	router  chi.Router
	log     *internal.Logger
}

// NewServer creates the API server around the estimation service
func NewServer(service *app.EstimationService) *Server {
	s := &Server{
		service: service,
		log:     internal.NewDefaultLogger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/estimates", s.handleCreateEstimate)
		r.Get("/estimates", s.handleListEstimates)
		r.Get("/estimates/{id}", s.handleGetEstimate)
		r.Get("/estimates/{id}/report", s.handleEstimateReport)
	})
	r.Get("/healthz", s.handleHealth)

	s.router = r
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the server on the given address
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("estimation API listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
