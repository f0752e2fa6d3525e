package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/noteshare/internal/api"
	"github.com/dom/noteshare/internal/auth"
	"github.com/dom/noteshare/internal/config"
	"github.com/dom/noteshare/internal/logging"
	"github.com/dom/noteshare/internal/metrics"
	"github.com/dom/noteshare/internal/repository"
	"github.com/dom/noteshare/internal/repository/memory"
	"github.com/dom/noteshare/internal/repository/postgres"
	"github.com/dom/noteshare/internal/service"
	"github.com/dom/noteshare/internal/storage"
	"github.com/dom/noteshare/internal/websocket"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.New(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(cfg *config.Config) error {
	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}

	var avatars storage.AvatarStore
	if cfg.S3.Enabled() {
		avatars = storage.NewS3Store(cfg.S3)
		slog.Info("storing avatars in S3", "bucket", cfg.S3.Bucket)
	} else {
		avatars = storage.NewMemoryStore()
		slog.Warn("S3_BUCKET not set, avatars are kept in memory")
	}

	m := metrics.New()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	services := service.NewServices(repos, cfg, service.Dependencies{
		Hasher:    auth.NewPasswordHasher(cfg.PasswordCost),
		Tokens:    auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL),
		Avatars:   avatars,
		Publisher: hub,
		Metrics:   m,
	})

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      api.NewRouter(services, hub, cfg, m),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openRepositories(cfg *config.Config) (*repository.Repositories, error) {
	if cfg.Store == config.StoreMemory {
		slog.Warn("using the in-memory store, data is lost on restart")
		return memory.NewRepositories(memory.NewStore()), nil
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	return postgres.NewRepositories(db), nil
}
