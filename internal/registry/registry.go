package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cadenzalab/cadenza/internal/ir"
	"github.com/cadenzalab/cadenza/internal/query"
)

// ValidationError reports why a sync was rejected at registration.
type ValidationError struct {
	Sync   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sync %q: %s", e.Sync, e.Reason)
}

type indexed struct {
	sync *ir.Sync
	pos  int // registration order, breaks priority ties
}

// Registry is the sync rule registry plus trigger index. Construct
// with New and inject where needed; there is no package-level default.
type Registry struct {
	decls map[string]ir.ConceptDecl

	mu      sync.RWMutex
	syncs   map[string]*ir.Sync
	index   map[string][]indexed // trigger key -> candidate syncs
	nextPos int
}

// New builds a registry validating against the given concept
// declarations.
func New(decls []ir.ConceptDecl) *Registry {
	declMap := make(map[string]ir.ConceptDecl, len(decls))
	for _, d := range decls {
		declMap[d.Name] = d
	}
	return &Registry{
		decls: declMap,
		syncs: map[string]*ir.Sync{},
		index: map[string][]indexed{},
	}
}

// Register validates and indexes a sync. The sync is indexed under
// every when-clause's trigger key, so multi-when syncs are candidates
// whenever any of their triggers completes.
func (r *Registry) Register(s ir.Sync) error {
	if err := r.validate(&s); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.syncs[s.Name]; exists {
		return &ValidationError{Sync: s.Name, Reason: "already registered"}
	}

	stored := s
	r.syncs[s.Name] = &stored
	entry := indexed{sync: &stored, pos: r.nextPos}
	r.nextPos++

	seen := map[string]bool{}
	for _, when := range stored.When {
		key := when.TriggerKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		r.index[key] = append(r.index[key], entry)
	}

	return nil
}

// validate applies the registration-time checks: trigger targets and
// then targets must be declared, and every variable a where step or
// then template references must be bound earlier.
func (r *Registry) validate(s *ir.Sync) error {
	if s.Name == "" {
		return &ValidationError{Sync: "(unnamed)", Reason: "name required"}
	}
	if len(s.When) == 0 {
		return &ValidationError{Sync: s.Name, Reason: "at least one when clause required"}
	}
	if len(s.Then) == 0 {
		return &ValidationError{Sync: s.Name, Reason: "at least one then clause required"}
	}

	bound := map[string]bool{}
	for i, when := range s.When {
		decl, ok := r.decls[when.Concept]
		if !ok {
			return &ValidationError{Sync: s.Name,
				Reason: fmt.Sprintf("when[%d]: concept %q not declared", i, when.Concept)}
		}
		if when.Action == "*" {
			// Concept-wide trigger: matches every action, so it cannot
			// pin a variant.
			if when.Variant != "" {
				return &ValidationError{Sync: s.Name,
					Reason: fmt.Sprintf("when[%d]: wildcard action cannot constrain variant", i)}
			}
		} else if !decl.HasAction(when.Action) {
			return &ValidationError{Sync: s.Name,
				Reason: fmt.Sprintf("when[%d]: action %q not declared on %q", i, when.Action, when.Concept)}
		}
		if when.From != "" && when.From != ir.BindOutput && when.From != ir.BindInput {
			return &ValidationError{Sync: s.Name,
				Reason: fmt.Sprintf("when[%d]: unknown bind source %q", i, when.From)}
		}
		for varName := range when.Bind {
			bound[varName] = true
		}
	}

	if err := query.CheckVars(s.Where, bound); err != nil {
		return &ValidationError{Sync: s.Name, Reason: err.Error()}
	}

	for i, then := range s.Then {
		decl, ok := r.decls[then.Concept]
		if !ok {
			return &ValidationError{Sync: s.Name,
				Reason: fmt.Sprintf("then[%d]: concept %q not declared", i, then.Concept)}
		}
		if !decl.HasAction(then.Action) {
			return &ValidationError{Sync: s.Name,
				Reason: fmt.Sprintf("then[%d]: action %q not declared on %q", i, then.Action, then.Concept)}
		}
		for arg, tmpl := range then.Args {
			if name, ok := query.Ref(tmpl); ok && !bound[name] {
				return &ValidationError{Sync: s.Name,
					Reason: fmt.Sprintf("then[%d]: arg %q references unbound variable %q", i, arg, name)}
			}
		}
	}

	return nil
}

// Matches returns the syncs whose trigger index covers the completed
// action, ordered by priority ascending with ties in registration
// order. Wildcard buckets (variant, action) are consulted alongside
// the exact key.
func (r *Registry) Matches(concept, action, variant string) []*ir.Sync {
	keys := []string{
		concept + ":" + action + ":" + variant,
		concept + ":" + action + ":*",
		concept + ":*:*",
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []indexed
	seen := map[string]bool{}
	for _, key := range keys {
		for _, entry := range r.index[key] {
			if seen[entry.sync.Name] {
				continue
			}
			seen[entry.sync.Name] = true
			candidates = append(candidates, entry)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].sync.Priority != candidates[j].sync.Priority {
			return candidates[i].sync.Priority < candidates[j].sync.Priority
		}
		return candidates[i].pos < candidates[j].pos
	})

	out := make([]*ir.Sync, len(candidates))
	for i, c := range candidates {
		out[i] = c.sync
	}
	return out
}

// Get returns a registered sync by name.
func (r *Registry) Get(name string) (*ir.Sync, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.syncs[name]
	return s, ok
}

// Names returns all registered sync names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.syncs))
	for name := range r.syncs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Decl returns the declaration for a concept.
func (r *Registry) Decl(concept string) (ir.ConceptDecl, bool) {
	d, ok := r.decls[concept]
	return d, ok
}
