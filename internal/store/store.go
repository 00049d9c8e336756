package store

import (
	"context"
	"errors"
	"time"

	"github.com/rickgao/forzza-swarm/internal/model"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("no saved games")

// Snapshot is the result of one scrape.
type Snapshot struct {
	ScrapedAt time.Time
	Games     []model.FlatGame
}

// GameStore saves scrape snapshots.
type GameStore interface {
	SaveGames(ctx context.Context, snap Snapshot) error
}

// Multi saves to every store in order. All stores are attempted; their
// errors are joined.
type Multi []GameStore

func (m Multi) SaveGames(ctx context.Context, snap Snapshot) error {
	var errs []error
	for _, s := range m {
		if err := s.SaveGames(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
