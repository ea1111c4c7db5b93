package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "net/http/pprof"

	"github.com/oroya/vademecum-api/compendium"
	"github.com/oroya/vademecum-api/config"
	"github.com/oroya/vademecum-api/data"
	"github.com/oroya/vademecum-api/health"
	"github.com/oroya/vademecum-api/logging"
	"github.com/oroya/vademecum-api/orchestrator"
	"github.com/oroya/vademecum-api/scheduler"
	"github.com/oroya/vademecum-api/server"
	"github.com/oroya/vademecum-api/snapshot"
)

func loadEnv() {
	// Read the env variables from the working directory
	if err := godotenv.Load(); err != nil {
		// If failed, try loading from executable directory
		ex, err := os.Executable()
		if err != nil {
			logging.Error("Failed to get executable path", "error", err)
			os.Exit(1)
		}

		exPath := filepath.Dir(ex)

		if err := os.Chdir(exPath); err != nil {
			logging.Error("Failed to change directory", "error", err)
			os.Exit(1)
		}
	}
}

// newSnapshotStore picks the snapshot backend: Redis when configured,
// otherwise the local file store.
func newSnapshotStore(cfg *config.Config) (snapshot.Store, func()) {
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		store, err := snapshot.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.FullCacheTTL)
		if err == nil {
			logging.Info("Using Redis snapshot store", "addr", cfg.RedisAddr)
			return store, func() {
				if err := store.Close(); err != nil {
					logging.Warn("Failed to close Redis store", "error", err)
				}
			}
		}
		logging.Warn("Redis snapshot store unavailable, falling back to file store", "error", err)
	}

	store, err := snapshot.NewFileStore(cfg.CacheDir)
	if err != nil {
		logging.Warn("File snapshot store unavailable, using in-memory store", "error", err)
		return snapshot.NewMemoryStore(), func() {}
	}
	return store, func() {}
}

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerWithLevel("logs", cfg.LogLevel)

	store, closeStore := newSnapshotStore(cfg)
	defer closeStore()
	cache := snapshot.NewCache(store)

	remote := compendium.NewRemoteClient(cfg.RemoteBaseURL)
	bundle := compendium.NewBundleReader(cfg.BundleDir)
	builder := compendium.NewBuilder(remote, bundle)

	container := data.NewContainer()

	orch := orchestrator.New(container, builder, cache, nil, cfg.IndexCacheTTL, cfg.FullCacheTTL)
	orch.Start(context.Background())
	defer orch.Stop()

	refreshInterval := time.Duration(cfg.RefreshMinutes) * time.Minute
	sched := scheduler.NewScheduler(container, orch, refreshInterval)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	checker := health.NewHealthChecker(container, refreshInterval)
	srv := server.NewServer(cfg, container, checker)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	// Create a context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
}
