// @title           Photo Relay API
// @version         1.0
// @description     Pairs a desktop screen with a phone through a short code and relays uploaded photos to the desktop as they arrive.
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"photo-relay/db"
	"photo-relay/internal/admission"
	"photo-relay/internal/api"
	"photo-relay/internal/config"
	"photo-relay/internal/database"
	"photo-relay/internal/feed"
	"photo-relay/internal/imaging"
	"photo-relay/internal/pairing"
	"photo-relay/internal/storage"
	"photo-relay/internal/websocket"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "photo-relay/docs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load configuration")
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to database")
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("cannot ping database")
	}
	log.Info().Msg("connected to database")

	store := database.NewStore(dbpool)
	if cfg.DB.Migrate {
		if err := store.Migrate(ctx, db.Schema); err != nil {
			log.Fatal().Err(err).Msg("cannot apply schema")
		}
		log.Info().Msg("schema applied")
	}

	localStorage, err := storage.NewLocalStorage(cfg.Storage.Path, cfg.AppHost+"/files")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize local storage")
	}
	log.Info().Str("path", cfg.Storage.Path).Msg("photos will be stored on disk")

	manager, err := pairing.NewManager(store, cfg.Session.Horizon, cfg.AppHost)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create pairing manager")
	}

	opts := admission.Options{ImagesOnly: cfg.Upload.ImagesOnly}
	if cfg.Upload.ThumbnailWidth > 0 {
		opts.Thumbnailer = imaging.NewThumbnailer(cfg.Upload.ThumbnailWidth)
	}
	controller := admission.NewController(store, store, localStorage, opts)

	photoFeed := feed.NewHub(feed.DefaultBufferSize)
	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		if err := database.NewPhotoListener(dbpool, photoFeed).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("photo listener stopped")
		}
	}()

	wsHub := websocket.NewHub()
	go wsHub.Run()

	server := api.NewServer(cfg, store, localStorage, manager, controller, photoFeed, wsHub)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Dur("session_horizon", manager.Horizon()).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	wsHub.CloseAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	<-listenerDone
}

func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
