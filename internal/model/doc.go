// Package model defines shared data types used across the odds service.
//
// Conventions:
//   - Swarm ids: int (sport, region, competition, game, market, event)
//   - Timestamps from Swarm: int64 seconds since Unix epoch (start_ts)
//   - Game payloads keep every field Swarm returned; typed accessors read the common ones
package model
