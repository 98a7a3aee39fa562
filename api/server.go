package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rankingservice "github.com/moto-league/ranking-engine/app/modules/ranking/application"
	rankingqueue "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/queue"
	"github.com/moto-league/ranking-engine/config"
	"github.com/moto-league/ranking-engine/internal/observability/attr"
)

// Server exposes the read side of the ranking engine over HTTP, plus a small
// admin surface over the rebuild queue.
type Server struct {
	service rankingservice.Service
	queue   rankingqueue.QueueService
	logger  *slog.Logger
	httpSrv *http.Server
}

// NewServer builds the HTTP server with routes and middleware wired. A nil
// queue disables the admin surface and the queue health check.
func NewServer(cfg *config.Config, service rankingservice.Service, queue rankingqueue.QueueService, logger *slog.Logger) *Server {
	s := &Server{
		service: service,
		queue:   queue,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(RateLimit(cfg.HTTP.RateLimitPerSecond, cfg.HTTP.RateLimitBurst))

	r.Get("/healthz", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Auth(cfg.JWT.Secret))
		r.Route("/rankings/{scopeType}", func(r chi.Router) {
			r.Get("/", s.GetRanking)
			r.Get("/chart", s.GetRankingChart)
			r.Get("/export", s.ExportRanking)
			r.Get("/members/{memberID}", s.GetMemberRanking)
			r.Route("/{scopeID}", func(r chi.Router) {
				r.Get("/", s.GetRanking)
				r.Get("/chart", s.GetRankingChart)
				r.Get("/export", s.ExportRanking)
				r.Get("/members/{memberID}", s.GetMemberRanking)
			})
		})
		if s.queue != nil {
			r.Route("/admin/rebuilds", func(r chi.Router) {
				r.Post("/", s.ScheduleRebuild)
				r.Get("/", s.GetScheduledRebuilds)
			})
		}
	})

	s.httpSrv = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP API listening", attr.String("address", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.queue != nil {
		if err := s.queue.HealthCheck(r.Context()); err != nil {
			s.logger.ErrorContext(r.Context(), "Queue health check failed", attr.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"queue":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, rankingservice.ErrInvalidScopeType) || errors.Is(err, rankingservice.ErrInvalidYear) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.ErrorContext(r.Context(), msg, attr.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}
