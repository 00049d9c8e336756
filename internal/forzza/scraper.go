package forzza

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rickgao/forzza-swarm/internal/model"
	"github.com/rickgao/forzza-swarm/internal/swarm"
)

// ErrInvalidID is returned for ids that are not integers.
var ErrInvalidID = errors.New("invalid id")

// Submitter sends one Swarm command and waits for its reply.
// *swarm.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, command string, params any, timeout time.Duration) (*swarm.Response, error)
}

// Default scraper settings.
const (
	DefaultWideTimeout = 90 * time.Second
	DefaultConcurrency = 4
	DefaultRate        = 10 // Requests per second during a full scrape
)

// Scraper issues betting queries through a Submitter.
type Scraper struct {
	client      Submitter
	logger      *slog.Logger
	wideTimeout time.Duration
	concurrency int
	limiter     *rate.Limiter
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWideTimeout sets the timeout for sport-wide queries.
func WithWideTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.wideTimeout = d
		}
	}
}

// WithConcurrency bounds the number of requests a full scrape keeps in flight.
func WithConcurrency(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRate limits full-scrape requests per second. Zero removes the limit.
func WithRate(perSecond float64) Option {
	return func(s *Scraper) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
		}
	}
}

// NewScraper creates a scraper over client.
func NewScraper(client Submitter, opts ...Option) *Scraper {
	s := &Scraper{
		client:      client,
		logger:      slog.Default(),
		wideTimeout: DefaultWideTimeout,
		concurrency: DefaultConcurrency,
		limiter:     rate.NewLimiter(DefaultRate, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scraper")
	return s
}

// ParseID parses an id supplied as text.
func ParseID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return n, nil
}

func (s *Scraper) get(ctx context.Context, q Query, timeout time.Duration) (json.RawMessage, error) {
	resp, err := s.client.Submit(ctx, swarm.CommandGet, q, timeout)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetHierarchy returns sports, regions and competitions with pre-match games.
func (s *Scraper) GetHierarchy(ctx context.Context) (json.RawMessage, error) {
	data, err := s.get(ctx, hierarchyQuery(), 0)
	if err != nil {
		return nil, fmt.Errorf("get hierarchy: %w", err)
	}
	return data, nil
}

// GetGames returns the pre-match games of a competition.
func (s *Scraper) GetGames(ctx context.Context, competitionID int) (json.RawMessage, error) {
	data, err := s.get(ctx, gamesQuery(competitionID), 0)
	if err != nil {
		return nil, fmt.Errorf("get games for competition %d: %w", competitionID, err)
	}
	return data, nil
}

// GetGamesBySport returns every pre-match game of a sport with its markets.
// It uses the wide timeout.
func (s *Scraper) GetGamesBySport(ctx context.Context, sportID int) (json.RawMessage, error) {
	data, err := s.get(ctx, sportGamesQuery(sportID), s.wideTimeout)
	if err != nil {
		return nil, fmt.Errorf("get games for sport %d: %w", sportID, err)
	}
	return data, nil
}

// GetGameDetails returns the markets and events of a game.
func (s *Scraper) GetGameDetails(ctx context.Context, gameID int) (json.RawMessage, error) {
	data, err := s.get(ctx, gameDetailsQuery(gameID), 0)
	if err != nil {
		return nil, fmt.Errorf("get details for game %d: %w", gameID, err)
	}
	return data, nil
}

// CountGames returns the sport's name and how many games it currently lists.
func (s *Scraper) CountGames(ctx context.Context, sportID int) (model.GameCount, error) {
	data, err := s.get(ctx, countQuery(sportID), 0)
	if err != nil {
		return model.GameCount{}, fmt.Errorf("count games for sport %d: %w", sportID, err)
	}

	tree, err := Unwrap(data)
	if err != nil {
		return model.GameCount{}, fmt.Errorf("count games for sport %d: %w", sportID, err)
	}

	count := model.GameCount{
		Sport:     model.SportName(sportID),
		Timestamp: time.Now().UTC(),
	}
	if sports := child(tree, "sport"); len(sports) > 0 {
		if n := nodeName(sports[0]); n != "" {
			count.Sport = n
		}
		if games, ok := sports[0]["game"].(Tree); ok {
			count.Count = len(games)
		}
	}
	return count, nil
}

// SportGames fetches every game of a sport and flattens it.
func (s *Scraper) SportGames(ctx context.Context, sportID int) ([]model.FlatGame, error) {
	start := time.Now()

	data, err := s.GetGamesBySport(ctx, sportID)
	if err != nil {
		return nil, err
	}
	tree, err := Unwrap(data)
	if err != nil {
		return nil, fmt.Errorf("get games for sport %d: %w", sportID, err)
	}

	games := FlattenSport(tree, model.SportName(sportID))
	s.logger.Info("sport games fetched",
		"sport_id", sportID,
		"games", len(games),
		"duration", time.Since(start),
	)
	return games, nil
}

// competitionRef locates a competition found in the hierarchy.
type competitionRef struct {
	id     int
	sport  string
	region string
	name   string
}

// gameRef is a game found while listing a competition.
type gameRef struct {
	comp competitionRef
	id   int
	game Tree
}

// FullScrape walks the hierarchy, lists every competition's games and fetches
// each game's markets. The first failure cancels the remaining requests.
func (s *Scraper) FullScrape(ctx context.Context) ([]model.ScrapeResult, error) {
	start := time.Now()

	data, err := s.GetHierarchy(ctx)
	if err != nil {
		return nil, err
	}
	hierarchy, err := Unwrap(data)
	if err != nil {
		return nil, fmt.Errorf("get hierarchy: %w", err)
	}

	comps := competitions(hierarchy)
	s.logger.Info("full scrape started", "competitions", len(comps))

	games, err := s.listGames(ctx, comps)
	if err != nil {
		return nil, err
	}

	results, err := s.fetchDetails(ctx, games)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, compareResults)

	s.logger.Info("full scrape complete",
		"competitions", len(comps),
		"games", len(results),
		"duration", time.Since(start),
	)
	return results, nil
}

func competitions(hierarchy Tree) []competitionRef {
	var refs []competitionRef
	for _, sport := range child(hierarchy, "sport") {
		for _, region := range child(sport, "region") {
			for _, comp := range child(region, "competition") {
				cid, ok := nodeID(comp)
				if !ok {
					continue
				}
				refs = append(refs, competitionRef{
					id:     cid,
					sport:  nodeName(sport),
					region: nodeName(region),
					name:   nodeName(comp),
				})
			}
		}
	}
	return refs
}

func (s *Scraper) listGames(ctx context.Context, comps []competitionRef) ([]gameRef, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var mu sync.Mutex
	var games []gameRef

	for _, comp := range comps {
		g.Go(func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}

			data, err := s.GetGames(ctx, comp.id)
			if err != nil {
				return err
			}
			tree, err := Unwrap(data)
			if err != nil {
				return fmt.Errorf("get games for competition %d: %w", comp.id, err)
			}

			var found []gameRef
			for _, game := range child(tree, "game") {
				gid, ok := nodeID(game)
				if !ok {
					continue
				}
				found = append(found, gameRef{comp: comp, id: gid, game: game})
			}

			mu.Lock()
			games = append(games, found...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Scraper) fetchDetails(ctx context.Context, games []gameRef) ([]model.ScrapeResult, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	results := make([]model.ScrapeResult, len(games))
	for i, ref := range games {
		g.Go(func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}

			odds, err := s.GetGameDetails(ctx, ref.id)
			if err != nil {
				return err
			}
			results[i] = model.ScrapeResult{
				Sport:       ref.comp.sport,
				Region:      ref.comp.region,
				Competition: ref.comp.name,
				Game:        ref.game,
				Odds:        odds,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func compareResults(a, b model.ScrapeResult) int {
	if c := strings.Compare(a.Sport, b.Sport); c != 0 {
		return c
	}
	if c := strings.Compare(a.Region, b.Region); c != 0 {
		return c
	}
	if c := strings.Compare(a.Competition, b.Competition); c != 0 {
		return c
	}
	ai, bi := a.GameID(), b.GameID()
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}
