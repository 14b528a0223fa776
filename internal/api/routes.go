package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Routes builds the full HTTP surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log.Logger))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.HTTP.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(s.config.AppHost+"/swagger/doc.json"),
	))

	r.Get("/health", s.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/pair", s.PairWsHandler)
	r.Get("/files/*", s.FilesHandler)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Get("/upload/{code}", s.UploadPageHandler)
	})
	r.Post("/upload/{code}", s.UploadPageSubmitHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.CreateSessionHandler)
		r.Get("/sessions/{sessionId}/photos", s.ListSessionPhotosHandler)

		r.With(s.limiter.Middleware).Get("/upload/{code}", s.ValidateUploadCodeHandler)
		r.With(s.UploadTokenMiddleware).Post("/photos", s.UploadPhotosHandler)
	})

	return r
}
