package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/archstudio-backend/config"
	httpapi "github.com/GoSim-25-26J-441/archstudio-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/catalog"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/chat"
	cronjob "github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/cron"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/store"
	"github.com/GoSim-25-26J-441/archstudio-backend/pkg/logger"
)

const serviceName = "archstudio-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
	})
	bootstrap.SetGinMode(cfg.App.Environment)

	cat := catalog.Default()
	if cfg.Lifecycle.CatalogPath != "" {
		if cat, err = catalog.Load(cfg.Lifecycle.CatalogPath); err != nil {
			slog.Error("failed to load catalog", "path", cfg.Lifecycle.CatalogPath, "error", err)
			os.Exit(1)
		}
	}

	backend, pinger, closeStore, err := openStore(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Redis.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("store ready", "backend", cfg.Redis.Backend)

	studio := service.NewStudio(backend, cat,
		service.WithResponder(chat.NewRandomResponder(cat.Chat.Replies, cfg.Lifecycle.ResponseSeed)),
		service.WithTimings(service.Timings{
			Generation: cfg.Lifecycle.GenerationDelay,
			Response:   cfg.Lifecycle.ResponseDelay,
			Finalize:   cfg.Lifecycle.FinalizeDelay,
		}),
	)
	defer studio.Close()

	janitor := cronjob.NewJanitor(backend, cfg.Lifecycle.TransientTTL).WithPages(studio)
	if err := janitor.Start(cfg.Lifecycle.JanitorSchedule); err != nil {
		slog.Error("failed to start janitor", "error", err)
		os.Exit(1)
	}
	defer janitor.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateRPS:        cfg.RateLimit.RPS,
		RateBurst:      cfg.RateLimit.Burst,
		Store:          pinger,
		Studio:         studio,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "env", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server exited gracefully")
}

// openStore returns the configured backend. The pinger is nil for the memory backend.
func openStore(ctx context.Context, cfg *config.Config) (cronjob.Backend, httpapi.Pinger, func(), error) {
	if cfg.Redis.Backend == "memory" {
		return store.NewMemoryStore(), nil, func() {}, nil
	}

	client, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	rs := store.NewRedisStore(client, cfg.Redis.KeyPrefix,
		store.WithExpiry(cfg.Lifecycle.TransientTTL,
			repository.CurrentProjectKey, repository.FinalProjectKey,
			repository.TouchedKey(repository.CurrentProjectKey), repository.TouchedKey(repository.FinalProjectKey)),
	)
	return rs, rs, func() { client.Close() }, nil
}
