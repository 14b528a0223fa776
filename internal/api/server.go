package api

import (
	"html/template"
	"photo-relay/internal/admission"
	"photo-relay/internal/config"
	"photo-relay/internal/database"
	"photo-relay/internal/feed"
	"photo-relay/internal/pairing"
	"photo-relay/internal/storage"
	"photo-relay/internal/websocket"
	"time"

	"golang.org/x/time/rate"
)

type Server struct {
	config    *config.Config
	store     *database.PostgresStore
	storage   *storage.LocalStorage
	pairing   *pairing.Manager
	admission *admission.Controller
	feed      *feed.Hub
	wsHub     *websocket.Hub
	limiter   *RateLimiter
	pages     *template.Template
}

func NewServer(
	cfg *config.Config,
	store *database.PostgresStore,
	storage *storage.LocalStorage,
	pairing *pairing.Manager,
	admission *admission.Controller,
	feed *feed.Hub,
	wsHub *websocket.Hub,
) *Server {
	return &Server{
		config:    cfg,
		store:     store,
		storage:   storage,
		pairing:   pairing,
		admission: admission,
		feed:      feed,
		wsHub:     wsHub,
		limiter:   NewRateLimiter(rate.Limit(cfg.Upload.ValidateRate), cfg.Upload.ValidateBurst, 10*time.Minute),
		pages:     template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}
