// Package store provides SQLite-backed durable storage for the action
// log, causal edges, concept state, and the conflict escalation queue.
//
// The action log is append-only: records are immutable once written,
// and duplicate appends of the same content-addressed ID are silently
// ignored. All ordering uses seq (the logical clock), never wall-clock
// time, and every multi-row query orders by seq ASC, id COLLATE BINARY
// ASC so reads are deterministic across replays.
//
// Database configuration:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
