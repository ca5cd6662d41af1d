package conflict

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// PendingStore persists escalated conflicts. The store keeps pending
// records until an operator resolves them; Put with an already-known ID
// is a no-op so repeated escalation of the same conflict stays
// idempotent.
type PendingStore interface {
	PutPending(ctx context.Context, id string, payload ir.Object) error
	ListPending(ctx context.Context) (map[string]ir.Object, error)
	MarkResolved(ctx context.Context, id string, resolution ir.Object) error
}

// Outcome is the registry's answer for one submitted conflict.
type Outcome struct {
	// Resolved is true when a provider settled the conflict
	// automatically. When false the conflict was escalated and
	// ConflictID names the pending record.
	Resolved   bool
	Resolution Resolution
	ConflictID string
}

type entry struct {
	name     string
	category string
	priority int
	resolver Resolver
}

// Registry walks registered providers in ascending priority order and
// hands each conflict to the first one that claims it. Conflicts for
// the same entity are serialized; different entities resolve
// concurrently.
type Registry struct {
	log     *slog.Logger
	pending PendingStore

	mu      sync.Mutex
	entries []entry

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewRegistry builds an empty registry. The pending store is required:
// without it the escalation path has nowhere to park unresolved
// conflicts.
func NewRegistry(log *slog.Logger, pending PendingStore) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:     log,
		pending: pending,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Register adds a provider. Names must be unique; priority ties break
// by registration order.
func (r *Registry) Register(name, category string, priority int, res Resolver) error {
	if name == "" {
		return fmt.Errorf("register resolver: name required")
	}
	if res == nil {
		return fmt.Errorf("register resolver %q: nil resolver", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.name == name {
			return fmt.Errorf("register resolver %q: already registered", name)
		}
	}
	r.entries = append(r.entries, entry{name: name, category: category, priority: priority, resolver: res})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].priority < r.entries[j].priority
	})
	return nil
}

// Providers returns the registered provider names in walk order.
func (r *Registry) Providers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

func (r *Registry) entityLock(entityID string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	m, ok := r.locks[entityID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[entityID] = m
	}
	return m
}

// Resolve settles one conflict. Exactly one of two things happens: a
// provider auto-resolves it, or the conflict is persisted as pending
// and the outcome carries its ID. A provider error skips to the next
// provider rather than losing the conflict.
func (r *Registry) Resolve(ctx context.Context, c *Conflict) (Outcome, error) {
	lock := r.entityLock(c.EntityID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	entries := make([]entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	for _, e := range entries {
		if !e.resolver.CanAutoResolve(c) {
			continue
		}
		res, err := e.resolver.Resolve(c)
		if err != nil {
			r.log.Warn("resolver failed, trying next",
				"resolver", e.name,
				"entity", c.EntityID,
				"error", err)
			continue
		}
		r.log.Info("conflict auto-resolved",
			"resolver", e.name,
			"entity", c.EntityID,
			"winner", res.Winner,
			"data_loss_risk", res.SilentDataLossRisk)
		return Outcome{Resolved: true, Resolution: res}, nil
	}

	return r.escalate(ctx, c)
}

// escalate persists the conflict for manual review. When a terminal
// manual provider is registered, its per-field summary is stored with
// the pending record so the operator sees what diverged.
func (r *Registry) escalate(ctx context.Context, c *Conflict) (Outcome, error) {
	if r.pending == nil {
		return Outcome{}, fmt.Errorf("escalate conflict for %s: no pending store configured", c.EntityID)
	}
	payload := c.ToObject()
	if summary, ok := r.manualSummary(c); ok {
		payload["summary"] = summary
	}
	id, err := ir.ConflictID(payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("escalate conflict for %s: %w", c.EntityID, err)
	}
	if err := r.pending.PutPending(ctx, id, payload); err != nil {
		return Outcome{}, fmt.Errorf("escalate conflict for %s: %w", c.EntityID, err)
	}
	r.log.Info("conflict escalated to manual queue",
		"entity", c.EntityID,
		"conflict_id", id,
		"fields", c.FieldConflicts())
	return Outcome{Resolved: false, ConflictID: id}, nil
}

// manualSummary runs the conflict through the first manual-category
// provider, which never auto-resolves but describes the unresolved
// fields.
func (r *Registry) manualSummary(c *Conflict) (ir.Object, bool) {
	r.mu.Lock()
	var terminal Resolver
	for _, e := range r.entries {
		if e.category == "manual" {
			terminal = e.resolver
			break
		}
	}
	r.mu.Unlock()

	if terminal == nil {
		return nil, false
	}
	res, err := terminal.Resolve(c)
	if err != nil {
		r.log.Warn("manual provider summary failed", "entity", c.EntityID, "error", err)
		return nil, false
	}
	obj, err := resolutionToObject(res)
	if err != nil {
		return nil, false
	}
	return obj, true
}

// ResolvePending applies an operator decision to a pending conflict
// and marks it resolved.
func (r *Registry) ResolvePending(ctx context.Context, id string, res Resolution) error {
	if r.pending == nil {
		return fmt.Errorf("resolve pending %s: no pending store configured", id)
	}
	payload, err := resolutionToObject(res)
	if err != nil {
		return fmt.Errorf("resolve pending %s: %w", id, err)
	}
	if err := r.pending.MarkResolved(ctx, id, payload); err != nil {
		return fmt.Errorf("resolve pending %s: %w", id, err)
	}
	r.log.Info("pending conflict resolved", "conflict_id", id, "winner", res.Winner)
	return nil
}

func resolutionToObject(res Resolution) (ir.Object, error) {
	obj := ir.Object{
		"winner":   ir.String(string(res.Winner)),
		"strategy": ir.String(res.Strategy),
	}
	if res.Details != "" {
		obj["details"] = ir.String(res.Details)
	}
	if res.MergedFields != nil {
		obj["merged_fields"] = res.MergedFields
	}
	if len(res.Unresolved) > 0 {
		arr := make(ir.Array, len(res.Unresolved))
		for i, fc := range res.Unresolved {
			f := ir.Object{"field": ir.String(fc.Field)}
			if fc.ValueA != nil {
				f["value_a"] = fc.ValueA
			}
			if fc.ValueB != nil {
				f["value_b"] = fc.ValueB
			}
			if fc.Ancestor != nil {
				f["ancestor"] = fc.Ancestor
			}
			arr[i] = f
		}
		obj["unresolved"] = arr
	}
	return obj, nil
}
