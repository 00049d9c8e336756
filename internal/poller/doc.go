// Package poller implements the periodic sport scrape.
//
// The poller:
//   - Fetches every pre-match game of one sport and flattens it
//   - Saves the snapshot to the configured stores
//   - Runs once on start and then on every tick when an interval is set
//
// RunOnce is the same pipeline without the loop; the HTTP service and the
// fetchfootball command call it directly.
package poller
