// Package server exposes the odds queries over HTTP.
//
// Routes:
//   - GET /api/sports: known sport ids
//   - GET /api/hierarchy: sports, regions, competitions
//   - GET /api/games?competitionId=: games of a competition
//   - GET /api/odds?gameId=: markets and events of a game
//   - GET /api/football-games: the cached scrape
//   - GET /api/football-games-count: live game count
//   - GET /api/football-full-scrape: scrape, save and return all games
//   - GET /api/full-scrape: every competition with every game's markets
//   - GET /health, GET /metrics
//
// Errors are returned as {"error": "..."} with a status derived from the
// error chain; see StatusFor.
package server
