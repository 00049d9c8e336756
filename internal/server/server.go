package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/forzza-swarm/internal/forzza"
	"github.com/rickgao/forzza-swarm/internal/model"
	"github.com/rickgao/forzza-swarm/internal/store"
	"github.com/rickgao/forzza-swarm/internal/swarm"
)

// Queries answers the betting queries.
type Queries interface {
	GetHierarchy(ctx context.Context) (json.RawMessage, error)
	GetGames(ctx context.Context, competitionID int) (json.RawMessage, error)
	GetGameDetails(ctx context.Context, gameID int) (json.RawMessage, error)
	CountGames(ctx context.Context, sportID int) (model.GameCount, error)
	FullScrape(ctx context.Context) ([]model.ScrapeResult, error)
}

// Scraper runs the fetch and save pipeline for the configured sport.
type Scraper interface {
	RunOnce(ctx context.Context) (store.Snapshot, error)
}

// Cache reads the last saved scrape.
type Cache interface {
	Load(ctx context.Context) ([]model.FlatGame, error)
}

// Connection reports the Swarm connection state.
type Connection interface {
	Status() swarm.Status
	SessionID() string
	Pending() int
}

// Pinger checks a database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server settings.
type Config struct {
	SportID     int    // Sport counted by /api/football-games-count
	MetricsPath string // Path of the metrics handler (default: /metrics)
}

// Deps are the components the handlers use. DB and Metrics may be nil.
type Deps struct {
	Queries    Queries
	Scraper    Scraper
	Cache      Cache
	Connection Connection
	DB         Pinger
	Metrics    http.Handler
}

// Server routes HTTP requests to the odds queries.
type Server struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a server.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SportID == 0 {
		cfg.SportID = model.FootballID
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "http"),
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/sports", s.handleSports)
	s.mux.HandleFunc("GET /api/hierarchy", s.handleHierarchy)
	s.mux.HandleFunc("GET /api/games", s.handleGames)
	s.mux.HandleFunc("GET /api/odds", s.handleOdds)
	s.mux.HandleFunc("GET /api/football-games", s.handleCachedGames)
	s.mux.HandleFunc("GET /api/football-games-count", s.handleGamesCount)
	s.mux.HandleFunc("GET /api/football-full-scrape", s.handleSportScrape)
	s.mux.HandleFunc("GET /api/full-scrape", s.handleFullScrape)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.deps.Metrics != nil {
		s.mux.Handle("GET "+s.cfg.MetricsPath, s.deps.Metrics)
	}
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) handleSports(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, model.Sports)
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	data, err := s.deps.Queries.GetHierarchy(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRaw(w, data)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "competitionId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.deps.Queries.GetGames(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRaw(w, data)
}

func (s *Server) handleOdds(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "gameId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.deps.Queries.GetGameDetails(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRaw(w, data)
}

type cachedGamesResponse struct {
	Source string           `json:"source"`
	Count  int              `json:"count"`
	Data   []model.FlatGame `json:"data"`
}

func (s *Server) handleCachedGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.deps.Cache.Load(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cachedGamesResponse{
		Source: "cache",
		Count:  len(games),
		Data:   games,
	})
}

func (s *Server) handleGamesCount(w http.ResponseWriter, r *http.Request) {
	sportID := s.cfg.SportID
	if r.URL.Query().Has("sportId") {
		id, err := queryID(r, "sportId")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		sportID = id
	}

	count, err := s.deps.Queries.CountGames(r.Context(), sportID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, count)
}

func (s *Server) handleSportScrape(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Scraper.RunOnce(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	games := snap.Games
	if games == nil {
		games = []model.FlatGame{}
	}
	s.writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleFullScrape(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.Queries.FullScrape(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if results == nil {
		results = []model.ScrapeResult{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

type healthResponse struct {
	Status     string         `json:"status"`
	Components map[string]any `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := healthResponse{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	conn := s.deps.Connection
	status := conn.Status()
	health.Components["swarm"] = map[string]any{
		"status":  status.String(),
		"session": conn.SessionID() != "",
		"pending": conn.Pending(),
	}
	if status != swarm.StatusConnected {
		health.Status = "unhealthy"
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["database"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["database"] = "connected"
		}
	}

	code := http.StatusOK
	if health.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, health)
}

func queryID(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("%w: %s is required", errMissingParam, name)
	}
	id, err := forzza.ParseID(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return id, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

// writeRaw passes a Swarm payload through unchanged. A missing payload is written as null.
func (s *Server) writeRaw(w http.ResponseWriter, data json.RawMessage) {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	msg := err.Error()
	if status == http.StatusNotFound {
		msg = "Football games data not found. Run a scrape first."
	}

	if status >= 500 {
		s.logger.Warn("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// logRequests logs each request after it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
