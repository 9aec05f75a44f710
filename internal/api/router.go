package api

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/api/handlers"
	"github.com/video-stream/recap/internal/api/middleware"
	"github.com/video-stream/recap/internal/config"
)

// NewRouter wires the HTTP surface. ctx bounds background work such as the
// rate limiter's sweeper.
func NewRouter(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, p handlers.Pipeline, responder handlers.Responder) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))

	r.MethodNotAllowed(handlers.MethodNotAllowed)

	transcribeHandler := handlers.NewTranscribeHandler(p)
	answerHandler := handlers.NewAnswerHandler(responder)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
			if cfg.RateLimitPerMinute > 0 {
				r.Use(middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute).Handler)
			}

			r.Post("/transcribe", transcribeHandler.Transcribe)
			r.Options("/transcribe", handlers.Preflight)
			r.Get("/transcribe", handlers.MethodNotAllowed)

			r.Post("/answer", answerHandler.Answer)
			r.Options("/answer", handlers.Preflight)
		})
	})

	return r
}
