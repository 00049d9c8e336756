package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/forzza-swarm/internal/model"
	"github.com/rickgao/forzza-swarm/internal/store"
)

// GameSource fetches the flattened games of a sport.
type GameSource interface {
	SportGames(ctx context.Context, sportID int) ([]model.FlatGame, error)
}

// Recorder observes scrape runs.
type Recorder interface {
	Observe(games int, err error, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Observe(int, error, time.Duration) {}

// Config holds poller configuration.
type Config struct {
	SportID  int           // Sport to scrape (default: football)
	Interval time.Duration // Time between runs; Start requires > 0
	Timeout  time.Duration // Per-run timeout (0 = none)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SportID:  model.FootballID,
		Interval: 15 * time.Minute,
		Timeout:  2 * time.Minute,
	}
}

// Poller periodically scrapes a sport and saves the result.
type Poller struct {
	cfg      Config
	source   GameSource
	store    store.GameStore
	recorder Recorder
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. st and rec may be nil.
func New(cfg Config, source GameSource, st store.GameStore, rec Recorder, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if cfg.SportID == 0 {
		cfg.SportID = model.FootballID
	}
	return &Poller{
		cfg:      cfg,
		source:   source,
		store:    st,
		recorder: rec,
		logger:   logger.With("component", "poller", "sport_id", cfg.SportID),
	}
}

// RunOnce fetches the sport's games and saves them. A save failure is
// returned together with the fetched snapshot.
func (p *Poller) RunOnce(ctx context.Context) (store.Snapshot, error) {
	start := time.Now()

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	snap, err := p.run(ctx)
	p.recorder.Observe(len(snap.Games), err, time.Since(start))
	return snap, err
}

func (p *Poller) run(ctx context.Context) (store.Snapshot, error) {
	games, err := p.source.SportGames(ctx, p.cfg.SportID)
	if err != nil {
		return store.Snapshot{}, err
	}

	snap := store.Snapshot{ScrapedAt: time.Now().UTC(), Games: games}
	if p.store != nil {
		if err := p.store.SaveGames(ctx, snap); err != nil {
			return snap, fmt.Errorf("save games: %w", err)
		}
	}
	return snap, nil
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	if p.cfg.Interval <= 0 {
		return errors.New("poller interval must be > 0")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.loop()

	p.logger.Info("sport poller started", "interval", p.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("sport poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop is the main polling loop.
func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *Poller) poll() {
	start := time.Now()

	snap, err := p.RunOnce(p.ctx)
	if err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.logger.Warn("poll cycle failed", "error", err, "duration", time.Since(start))
		return
	}

	p.logger.Info("poll cycle complete",
		"games", len(snap.Games),
		"duration", time.Since(start),
	)
}
