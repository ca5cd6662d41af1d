// Package conflict implements the pluggable conflict-resolution
// subsystem: the two-method Resolver contract, a priority-ordered
// registry, and the built-in providers (last-write-wins, per-field
// merge, three-way merge, and the manual escalation queue).
//
// The registry guarantees that every submitted conflict ends in one of
// exactly two states: a Resolution naming a winner, or a durably
// persisted pending record awaiting human review. Conflicts are never
// silently dropped.
package conflict
