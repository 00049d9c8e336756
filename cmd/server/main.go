package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/forzza-swarm/internal/config"
	"github.com/rickgao/forzza-swarm/internal/database"
	"github.com/rickgao/forzza-swarm/internal/forzza"
	"github.com/rickgao/forzza-swarm/internal/metrics"
	"github.com/rickgao/forzza-swarm/internal/poller"
	"github.com/rickgao/forzza-swarm/internal/server"
	"github.com/rickgao/forzza-swarm/internal/store"
	"github.com/rickgao/forzza-swarm/internal/swarm"
	"github.com/rickgao/forzza-swarm/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults only when empty)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	build := version.Get()
	logger.Info("starting server",
		"version", build.Version,
		"commit", build.Commit,
		"go", build.GoVersion,
		"config", *configPath,
		"swarm_url", cfg.Swarm.URL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	reg := metrics.NewRegistry()

	// Swarm client
	client := swarm.NewClient(cfg.Swarm.ClientConfig(),
		swarm.WithLogger(logger),
		swarm.WithRecorder(reg.Swarm),
	)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close swarm client", "error", err)
		}
		logger.Info("swarm client closed")
	}()

	scraper := forzza.NewScraper(client,
		forzza.WithLogger(logger),
		forzza.WithWideTimeout(cfg.Swarm.WideRequestTimeout),
		forzza.WithConcurrency(cfg.Scrape.Concurrency),
		forzza.WithRate(cfg.Scrape.RatePerSecond),
	)

	// Stores
	cache := store.NewFileStore(cfg.Scrape.OutputPath)
	stores := store.Multi{cache}

	var deps server.Deps
	if cfg.Database.Enabled {
		db := cfg.Database.Postgres
		logger.Info("connecting to database",
			"host", db.Host,
			"port", db.Port,
			"database", db.Name,
		)

		pool, err := database.Connect(ctx, db)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := metrics.RegisterPool(reg.Prometheus(), pool); err != nil {
			logger.Error("failed to register pool metrics", "error", err)
			os.Exit(1)
		}

		pg := store.NewPostgresStore(pool, 0, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("failed to create schema", "error", err)
			os.Exit(1)
		}
		stores = append(stores, pg)
		deps.DB = pool

		logger.Info("database connected")
	}

	// Initial connect; a failure is retried by the first request
	sid, err := client.Connect(ctx)
	if err != nil {
		logger.Warn("initial swarm connect failed", "error", err)
	} else {
		logger.Info("swarm connected", "session_id", sid)
	}

	// Football scrape pipeline shared by the poller and the HTTP route
	pollCfg := poller.Config{
		SportID:  cfg.Scrape.SportID,
		Interval: cfg.Scrape.Interval,
		Timeout:  2 * cfg.Swarm.WideRequestTimeout,
	}
	pipeline := poller.New(pollCfg, scraper, stores, reg.Scrape, logger)

	if pollCfg.Interval > 0 {
		if err := pipeline.Start(ctx); err != nil {
			logger.Error("failed to start poller", "error", err)
			os.Exit(1)
		}
	}

	deps.Queries = scraper
	deps.Scraper = pipeline
	deps.Cache = cache
	deps.Connection = client
	deps.Metrics = reg.Handler()

	srv := server.New(server.Config{
		SportID:     cfg.Scrape.SportID,
		MetricsPath: cfg.Metrics.Path,
	}, deps, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting http server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("server running",
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port),
		"poll_interval", pollCfg.Interval,
	)

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	if err := pipeline.Stop(shutdownCtx); err != nil {
		logger.Warn("poller stop error", "error", err)
	}

	logger.Info("server stopped")
}
