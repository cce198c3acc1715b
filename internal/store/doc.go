// Package store provides the SQLite exchange journal.
//
// The journal is append-only and holds two tables:
//   - sessions: one row per Initialize, with the mapping fingerprint and
//     interface sizes, closed with an end reason
//   - steps: one row per exchange, with the phase, the engine's elapsed
//     time and the input and output arrays as JSON
//
// Sessions are ordered by seq, a logical counter assigned on insert; steps
// by their per-session step number. Reads always order by these columns,
// never by wall time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
