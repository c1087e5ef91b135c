package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/brplates/controller/internal/api/handler"
	mw "github.com/brplates/controller/internal/api/middleware"
	"github.com/brplates/controller/internal/config"
	"github.com/brplates/controller/internal/core"
	"github.com/brplates/controller/internal/jobs"
	"github.com/brplates/controller/internal/pipeline"
	"github.com/brplates/controller/internal/store/postgres"
)

type Server struct {
	router chi.Router
	logger zerolog.Logger
	pool   *pgxpool.Pool
	keys   *core.APIKeyService
}

// NewServer wires the HTTP front door: key provisioning, the synchronous
// recognition endpoint, and the asynchronous job endpoints.
func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, tc temporalclient.Client, pipe *pipeline.Service, cfg *config.Config) *Server {
	keyStore := postgres.NewAPIKeyStore(pool)
	keys := core.NewAPIKeyService(keyStore, cfg.APIKeySecretLength, cfg.DefaultCallLimit, cfg.MaxAPIKeys)
	tracker := jobs.NewTracker(tc)

	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
		pool:   pool,
		keys:   keys,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		apiKey := handler.NewAPIKey(keys)
		r.Post("/keys", apiKey.Create)
		r.Get("/keys", apiKey.List)
		r.Get("/keys/{id}", apiKey.Get)
		r.Delete("/keys/{id}", apiKey.Deactivate)

		plate := handler.NewPlate(pipe, tracker)
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(keys))
			r.Post("/plates/process", plate.Process)
			r.Post("/plates/jobs", plate.Enqueue)
			r.Get("/plates/jobs/{taskID}", plate.Status)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
