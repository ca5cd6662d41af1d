package engine

import (
	"sync"
	"time"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// DefaultPartialMatchTTL bounds how long a half-completed join waits
// for its remaining clauses before it is evicted.
const DefaultPartialMatchTTL = 5 * time.Minute

// completedJoin is a multi-when match whose every clause has been
// satisfied by mutually unifying completions.
type completedJoin struct {
	env     ir.Object
	fromIDs []string
}

// partialMatch is an open join: the clauses seen so far, their merged
// bindings, and the records that contributed them. created is the time
// of the oldest contribution; the TTL runs from there so a join cannot
// stay open forever by trickling in extensions.
type partialMatch struct {
	seen    map[int]bool
	env     ir.Object
	fromIDs []string
	created time.Time
}

// partialArena holds open joins for multi-when syncs, keyed by sync
// name and scoped by flow. Single-clause syncs never touch it.
type partialArena struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	open map[string][]*partialMatch // "flow|sync" -> open joins
}

func newPartialArena(ttl time.Duration) *partialArena {
	return &partialArena{
		ttl:  ttl,
		now:  time.Now,
		open: map[string][]*partialMatch{},
	}
}

// add records that clause clauseIdx of sync s matched with the given
// bindings, and returns any joins this completes. An incoming match
// extends every compatible open join (shared variables must agree) and
// also opens a fresh join of its own, so later arrivals can still pair
// with it. Expired joins for the sync are evicted first.
func (a *partialArena) add(flow string, s *ir.Sync, clauseIdx int, env ir.Object, recID string) []completedJoin {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := flow + "|" + s.Name
	now := a.now()
	a.evictLocked(key, now)

	var next []*partialMatch
	var done []completedJoin

	for _, p := range a.open[key] {
		next = append(next, p)
		if p.seen[clauseIdx] {
			continue
		}
		merged, ok := mergeEnvs(p.env, env)
		if !ok {
			continue
		}

		extended := &partialMatch{
			seen:    map[int]bool{clauseIdx: true},
			env:     merged,
			fromIDs: append(append([]string{}, p.fromIDs...), recID),
			created: p.created,
		}
		for i := range p.seen {
			extended.seen[i] = true
		}

		if len(extended.seen) == len(s.When) {
			done = append(done, completedJoin{env: extended.env, fromIDs: extended.fromIDs})
			continue
		}
		next = append(next, extended)
	}

	next = append(next, &partialMatch{
		seen:    map[int]bool{clauseIdx: true},
		env:     env.Clone(),
		fromIDs: []string{recID},
		created: now,
	})

	a.open[key] = next
	return done
}

// evictLocked drops joins older than the TTL. Caller holds a.mu.
func (a *partialArena) evictLocked(key string, now time.Time) {
	open := a.open[key]
	kept := open[:0]
	for _, p := range open {
		if now.Sub(p.created) <= a.ttl {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		delete(a.open, key)
		return
	}
	a.open[key] = kept
}

// openCount reports how many joins are open for a sync in a flow,
// after evicting expired ones.
func (a *partialArena) openCount(flow, syncName string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := flow + "|" + syncName
	a.evictLocked(key, a.now())
	return len(a.open[key])
}

// clearFlow drops every open join belonging to a finished flow.
func (a *partialArena) clearFlow(flow string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key := range a.open {
		if len(key) > len(flow) && key[:len(flow)] == flow && key[len(flow)] == '|' {
			delete(a.open, key)
		}
	}
}
