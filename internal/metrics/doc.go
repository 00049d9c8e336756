// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Swarm connection state, connect attempts and dropped frames
//   - Request outcomes, latencies and in-flight count per command
//   - Full-scrape runs and games collected
//   - Database connection pool stats
package metrics
