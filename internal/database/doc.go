// Package database provides the PostgreSQL connection pool used for odds snapshots.
//
// The pool is optional: the service runs without it, writing snapshots to
// the JSON cache file only.
package database
