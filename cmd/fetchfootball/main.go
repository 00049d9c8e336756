// Command fetchfootball scrapes every football game once and saves the
// flattened list to the scrape output file, plus PostgreSQL when enabled.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rickgao/forzza-swarm/internal/config"
	"github.com/rickgao/forzza-swarm/internal/database"
	"github.com/rickgao/forzza-swarm/internal/forzza"
	"github.com/rickgao/forzza-swarm/internal/model"
	"github.com/rickgao/forzza-swarm/internal/poller"
	"github.com/rickgao/forzza-swarm/internal/store"
	"github.com/rickgao/forzza-swarm/internal/swarm"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults only when empty)")
	output := flag.String("output", "", "output file (overrides scrape.output_path)")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *output != "" {
		cfg.Scrape.OutputPath = *output
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	client := swarm.NewClient(cfg.Swarm.ClientConfig(), swarm.WithLogger(logger))
	defer client.Close()

	if _, err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	logger.Info("connected to swarm", "session_id", client.SessionID())

	stores := store.Multi{store.NewFileStore(cfg.Scrape.OutputPath)}
	if cfg.Database.Enabled {
		pool, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool, 0, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		stores = append(stores, pg)
	}

	scraper := forzza.NewScraper(client,
		forzza.WithLogger(logger),
		forzza.WithWideTimeout(cfg.Swarm.WideRequestTimeout),
	)

	pollCfg := poller.Config{SportID: cfg.Scrape.SportID}
	logger.Info("fetching games", "sport", model.SportName(pollCfg.SportID))

	snap, err := poller.New(pollCfg, scraper, stores, nil, logger).RunOnce(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Total %s games fetched: %d\n", model.SportName(pollCfg.SportID), len(snap.Games))
	fmt.Printf("Results saved to %s\n", cfg.Scrape.OutputPath)
	return nil
}
