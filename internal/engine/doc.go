// Package engine is the reactive core: it takes completed concept
// actions, evaluates sync rules against them, and invokes the
// follow-up actions those rules declare.
//
// All store writes and rule evaluation happen in the single-writer Run
// loop goroutine for determinism. The loop hands claimed firings to a
// bounded worker pool; workers invoke concept actions concurrently and
// feed the resulting completions back into the loop. Producers block
// when the firing queue is full, they never drop.
//
// Idempotency is layered: record appends are content-addressed, sync
// firings are claimed once per (record, sync, bindings), and a per-flow
// cycle guard plus a step quota bound runaway feedback loops.
package engine
