package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// DefaultBatchSize is the number of rows sent per batch.
const DefaultBatchSize = 1000

const schemaSQL = `
CREATE TABLE IF NOT EXISTS game_snapshots (
	game_id       BIGINT      NOT NULL,
	scraped_at    TIMESTAMPTZ NOT NULL,
	sport         TEXT        NOT NULL,
	region        TEXT        NOT NULL,
	competition   TEXT        NOT NULL,
	team1_name    TEXT        NOT NULL DEFAULT '',
	team2_name    TEXT        NOT NULL DEFAULT '',
	start_ts      TIMESTAMPTZ,
	markets_count INTEGER     NOT NULL DEFAULT 0,
	payload       JSONB       NOT NULL,
	PRIMARY KEY (game_id, scraped_at)
);
CREATE INDEX IF NOT EXISTS game_snapshots_scraped_at_idx ON game_snapshots (scraped_at);
`

const insertSQL = `
	INSERT INTO game_snapshots (game_id, scraped_at, sport, region, competition, team1_name, team2_name, start_ts, markets_count, payload)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (game_id, scraped_at) DO NOTHING
`

// Stats counts rows written by a PostgresStore.
type Stats struct {
	Inserts   int64
	Conflicts int64
	Batches   int64
	Errors    int64
}

// PostgresStore appends one row per game and scrape to game_snapshots.
type PostgresStore struct {
	db        DB
	batchSize int
	logger    *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewPostgresStore creates a store over db. A batchSize of zero uses DefaultBatchSize.
func NewPostgresStore(db DB, batchSize int, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &PostgresStore{
		db:        db,
		batchSize: batchSize,
		logger:    logger.With("component", "postgres_store"),
	}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create game_snapshots: %w", err)
	}
	return nil
}

// Stats returns the counters so far.
func (s *PostgresStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// SaveGames inserts the snapshot in batches. Rows already present for the
// same game and scrape time are left untouched.
func (s *PostgresStore) SaveGames(ctx context.Context, snap Snapshot) error {
	start := time.Now()
	scrapedAt := snap.ScrapedAt.UTC()

	var inserts, conflicts int
	for lo := 0; lo < len(snap.Games); lo += s.batchSize {
		hi := min(lo+s.batchSize, len(snap.Games))

		batch := &pgx.Batch{}
		for _, g := range snap.Games[lo:hi] {
			payload, err := json.Marshal(g)
			if err != nil {
				return fmt.Errorf("encode game %d: %w", g.ID(), err)
			}

			var startTS *time.Time
			if t := g.StartTime(); !t.IsZero() {
				startTS = &t
			}

			batch.Queue(insertSQL,
				g.ID(), scrapedAt, g.Sport, g.Region, g.Competition,
				g.Team1(), g.Team2(), startTS, g.MarketsCount(), payload,
			)
		}

		n, c, err := s.sendBatch(ctx, batch)
		if err != nil {
			s.mu.Lock()
			s.stats.Errors++
			s.mu.Unlock()
			s.logger.Error("batch insert failed", "error", err, "count", batch.Len())
			return fmt.Errorf("insert game snapshots: %w", err)
		}
		inserts += n
		conflicts += c
	}

	s.mu.Lock()
	s.stats.Inserts += int64(inserts)
	s.stats.Conflicts += int64(conflicts)
	s.mu.Unlock()

	s.logger.Debug("saved game snapshots",
		"count", len(snap.Games),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
	return nil
}

// sendBatch executes batch and counts inserted and conflicting rows.
func (s *PostgresStore) sendBatch(ctx context.Context, batch *pgx.Batch) (inserts, conflicts int, err error) {
	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range batch.Len() {
		ct, err := results.Exec()
		if err != nil {
			return 0, 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		} else {
			inserts++
		}
	}

	s.mu.Lock()
	s.stats.Batches++
	s.mu.Unlock()
	return inserts, conflicts, nil
}
