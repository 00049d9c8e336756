// Package store persists scraped games.
//
// Stores:
//   - FileStore: the JSON cache file served by /api/football-games
//   - PostgresStore: append-only game_snapshots table
//   - Multi: fans a save out to several stores
package store
