// Package store provides SQLite-backed run history.
//
// Each completed run is written once as a runs row with its aggregate
// counts plus one test_results row per executed test. The full result
// record, transcript included, is kept as JSON in test_results.record so
// later tooling can re-render it.
//
// # Ordering
//
//   - Runs list newest first: ORDER BY started_at DESC, id DESC.
//   - Test rows keep execution order via seq, assigned 0..n-1 across the
//     whole run.
//
// # Schema
//
// schema.sql is applied on every Open and is idempotent. Its version is
// kept in PRAGMA user_version; a database from a newer release is refused
// with ErrNewerSchema instead of being written to.
package store
