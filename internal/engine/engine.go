package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cadenzalab/cadenza/internal/conflict"
	"github.com/cadenzalab/cadenza/internal/ir"
	"github.com/cadenzalab/cadenza/internal/query"
	"github.com/cadenzalab/cadenza/internal/registry"
	"github.com/cadenzalab/cadenza/internal/store"
)

// Invoker executes one concept action and returns its output. The
// engine records an error return as an error-variant completion; it
// never retries.
type Invoker interface {
	Invoke(ctx context.Context, concept, action string, args ir.Object) (ir.Object, error)
}

// DefaultMaxSteps caps how many completions a single flow may process
// before the engine terminates it.
const DefaultMaxSteps = 1000

const (
	defaultQueueCapacity = 64
	defaultWorkers       = 4
)

// Engine drives sync evaluation. Construct with New; all collaborators
// are injected, there is no package-level instance.
type Engine struct {
	store     *store.Store
	registry  *registry.Registry
	conflicts *conflict.Registry
	invoker   Invoker
	flowGen   FlowGenerator
	log       *slog.Logger

	clock  *Clock
	queue  *eventQueue
	fireCh chan firingUnit
	arena  *partialArena
	cycles *cycleDetector

	workers  int
	maxSteps int
	limiter  *rate.Limiter

	availMu sync.RWMutex
	down    map[string]bool

	stepsMu sync.Mutex
	steps   map[string]int
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithQueueCapacity sets the firing queue's capacity. Producers block
// when it is full.
func WithQueueCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.fireCh = make(chan firingUnit, n)
		}
	}
}

// WithWorkers sets how many goroutines invoke then-actions.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithPartialMatchTTL bounds how long a half-completed join waits for
// its remaining when-clauses.
func WithPartialMatchTTL(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.arena = newPartialArena(d)
		}
	}
}

// WithFireRate throttles then-action invocations across all workers.
func WithFireRate(limit rate.Limit, burst int) Option {
	return func(e *Engine) {
		e.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithMaxSteps sets the per-flow completion quota.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithClock resumes the logical clock from a prior run, for replay.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New builds an engine over its injected collaborators.
func New(
	s *store.Store,
	reg *registry.Registry,
	conflicts *conflict.Registry,
	inv Invoker,
	flowGen FlowGenerator,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:     s,
		registry:  reg,
		conflicts: conflicts,
		invoker:   inv,
		flowGen:   flowGen,
		log:       slog.Default(),
		clock:     NewClock(),
		queue:     newEventQueue(),
		fireCh:    make(chan firingUnit, defaultQueueCapacity),
		arena:     newPartialArena(DefaultPartialMatchTTL),
		cycles:    newCycleDetector(),
		workers:   defaultWorkers,
		maxSteps:  DefaultMaxSteps,
		down:      map[string]bool{},
		steps:     map[string]int{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFlow mints a flow token for a root request. Safe from any
// goroutine.
func (e *Engine) NewFlow() string {
	return e.flowGen.Generate()
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// QueueLen returns the number of completions awaiting evaluation.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// RegisterSync validates and registers a sync rule. A rejected sync
// never participates in matching.
func (e *Engine) RegisterSync(s ir.Sync) ir.Result {
	if err := e.registry.Register(s); err != nil {
		return ir.Invalid(err.Error())
	}
	return ir.OK(ir.Object{"sync": ir.String(s.Name)})
}

// OnCompletion submits a completed concept action for evaluation. The
// record is stamped (flow, seq, timestamp, content-addressed id) here
// so the caller learns its identity; persistence and sync evaluation
// happen in the Run loop.
func (e *Engine) OnCompletion(ctx context.Context, rec ir.ActionRecord) ir.Result {
	if _, ok := e.registry.Decl(rec.Concept); !ok {
		return ir.Invalid(fmt.Sprintf("concept %q not declared", rec.Concept))
	}
	if rec.Variant == "" {
		rec.Variant = ir.VariantOK
	}
	if rec.FlowID == "" {
		rec.FlowID = e.NewFlow()
	}
	if rec.Seq == 0 {
		rec.Seq = e.clock.Next()
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	if rec.ID == "" {
		id, err := ir.RecordID(rec.Concept, rec.Action, rec.Variant, rec.Input, rec.Output, rec.FlowID, rec.Seq)
		if err != nil {
			return ir.Errf(err.Error())
		}
		rec.ID = id
	}

	if !e.queue.Enqueue(event{rec: &rec}) {
		return ir.Errf("engine stopped")
	}
	return ir.OK(ir.Object{
		"id":      ir.String(rec.ID),
		"flow_id": ir.String(rec.FlowID),
		"seq":     ir.Int(rec.Seq),
	})
}

// Dispatch invokes a concept action directly and feeds the completion
// into evaluation. This is the action-shaped entry point for external
// callers; an empty flowID starts a new flow. An unavailable target
// parks the action in the holding queue instead of invoking it.
func (e *Engine) Dispatch(ctx context.Context, concept, action string, input ir.Object, flowID string) ir.Result {
	decl, ok := e.registry.Decl(concept)
	if !ok {
		return ir.Invalid(fmt.Sprintf("concept %q not declared", concept))
	}
	if !decl.HasAction(action) {
		return ir.Invalid(fmt.Sprintf("action %q not declared on %q", action, concept))
	}
	if flowID == "" {
		flowID = e.NewFlow()
	}

	if e.unavailable(concept) {
		payload := heldObject(firingUnit{flowID: flowID}, thenAction{Concept: concept, Action: action, Args: input})
		if err := e.store.HoldAction(ctx, concept, payload); err != nil {
			return ir.Errf(err.Error())
		}
		e.log.Info("action held: target unavailable",
			"concept", concept, "action", action, "flow", flowID)
		return ir.Result{Variant: "held", Output: ir.Object{
			"concept": ir.String(concept),
			"flow_id": ir.String(flowID),
		}}
	}

	output, invokeErr := e.invoker.Invoke(ctx, concept, action, input)
	variant := ir.VariantOK
	if invokeErr != nil {
		variant = ir.VariantError
		output = ir.Object{"message": ir.String(invokeErr.Error())}
		e.log.Error("dispatched action failed",
			"concept", concept, "action", action, "flow", flowID, "error", invokeErr)
	}

	res := e.OnCompletion(ctx, ir.ActionRecord{
		Concept: concept,
		Action:  action,
		Variant: variant,
		Input:   input,
		Output:  output,
		FlowID:  flowID,
	})
	if res.Variant != ir.VariantOK {
		return res
	}
	return ir.Result{Variant: variant, Output: ir.Object{
		"id":      res.Output["id"],
		"flow_id": ir.String(flowID),
		"output":  output,
	}}
}

// OnAvailabilityChange marks a concept up or down. Going down makes
// subsequent actions targeting it park in the durable holding queue;
// coming back up drains held actions in arrival order.
func (e *Engine) OnAvailabilityChange(ctx context.Context, concept string, available bool) ir.Result {
	e.availMu.Lock()
	if available {
		delete(e.down, concept)
	} else {
		e.down[concept] = true
	}
	e.availMu.Unlock()

	e.log.Info("availability changed", "concept", concept, "available", available)

	if !available {
		return ir.OK(ir.Object{"concept": ir.String(concept), "available": ir.Bool(false)})
	}

	held, err := e.store.HeldCount(ctx, concept)
	if err != nil {
		return ir.Errf(err.Error())
	}
	if held > 0 {
		if !e.queue.Enqueue(event{drain: concept}) {
			return ir.Errf("engine stopped")
		}
	}
	return ir.OK(ir.Object{
		"concept":   ir.String(concept),
		"available": ir.Bool(true),
		"held":      ir.Int(int64(held)),
	})
}

func (e *Engine) unavailable(concept string) bool {
	e.availMu.RLock()
	defer e.availMu.RUnlock()
	return e.down[concept]
}

// ResolveConflict runs one conflict through the resolver registry and
// reports the outcome in result form.
func (e *Engine) ResolveConflict(ctx context.Context, c *conflict.Conflict) ir.Result {
	out, err := e.conflicts.Resolve(ctx, c)
	if err != nil {
		return ir.Errf(err.Error())
	}
	if !out.Resolved {
		return ir.Result{Variant: "cannotResolve", Output: ir.Object{
			"conflict_id": ir.String(out.ConflictID),
			"entity_id":   ir.String(c.EntityID),
		}}
	}
	return ir.OK(ir.Object{
		"winner":        ir.String(string(out.Resolution.Winner)),
		"strategy":      ir.String(out.Resolution.Strategy),
		"auto_resolved": ir.Bool(out.Resolution.AutoResolved),
	})
}

// DrainConflicts re-runs every pending conflict through the resolver
// registry, typically after new providers were registered. Conflicts
// that still cannot resolve stay pending.
func (e *Engine) DrainConflicts(ctx context.Context) ir.Result {
	pending, err := e.store.ListPending(ctx)
	if err != nil {
		return ir.Errf(err.Error())
	}

	ids := make([]string, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	resolved, escalated := 0, 0
	for _, id := range ids {
		c, err := conflict.FromObject(pending[id])
		if err != nil {
			e.log.Warn("pending conflict unreadable", "conflict_id", id, "error", err)
			escalated++
			continue
		}
		out, err := e.conflicts.Resolve(ctx, c)
		if err != nil {
			e.log.Warn("pending conflict resolution failed", "conflict_id", id, "error", err)
			escalated++
			continue
		}
		if !out.Resolved {
			escalated++
			continue
		}
		if err := e.conflicts.ResolvePending(ctx, id, out.Resolution); err != nil {
			e.log.Warn("marking conflict resolved failed", "conflict_id", id, "error", err)
			escalated++
			continue
		}
		resolved++
	}

	return ir.OK(ir.Object{
		"resolved":  ir.Int(int64(resolved)),
		"escalated": ir.Int(int64(escalated)),
	})
}

// CleanupFlow drops per-flow bookkeeping (step quota, cycle history,
// open joins) once a flow reaches a terminal state.
func (e *Engine) CleanupFlow(flow string) {
	e.stepsMu.Lock()
	delete(e.steps, flow)
	e.stepsMu.Unlock()
	e.cycles.clear(flow)
	e.arena.clearFlow(flow)
}

// Run starts the worker pool and the single-writer loop. It blocks
// until the context is cancelled or Stop is called. All store writes
// for records and edges happen in this goroutine.
//
// Event processing failures are logged with full context and the loop
// continues; retries would make replay non-deterministic.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine starting",
		"workers", e.workers,
		"queue_capacity", cap(e.fireCh),
		"max_steps", e.maxSteps)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg)
	}

	for {
		ev, ok := e.queue.TryDequeue()
		if ok {
			if err := e.processEvent(ctx, ev); err != nil {
				e.logEventError(ev, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.log.Info("engine stopping: context cancelled")
			e.queue.Close()
			e.shutdown(ctx, &wg)
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Len() == 0 {
				e.log.Info("engine stopping: queue closed")
				e.shutdown(ctx, &wg)
				return nil
			}
		}
	}
}

// Stop gracefully shuts the engine down: the event queue closes, the
// Run loop drains what remains and returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// shutdown closes the firing queue, waits for workers, and parks any
// units they left behind in the durable holding queue so no claimed
// firing is lost.
func (e *Engine) shutdown(ctx context.Context, wg *sync.WaitGroup) {
	close(e.fireCh)
	wg.Wait()

	bg := context.WithoutCancel(ctx)
	parked := 0
	for u := range e.fireCh {
		for _, a := range u.actions {
			if err := e.store.HoldAction(bg, a.Concept, heldObject(u, a)); err != nil {
				e.log.Error("parking unfired action failed",
					"concept", a.Concept, "action", a.Action, "flow", u.flowID, "error", err)
				continue
			}
			parked++
		}
	}
	if parked > 0 {
		e.log.Info("unfired actions parked for restart", "count", parked)
	}

	// Completions still sitting in the event queue belong to
	// invocations that already ran; persist them without evaluation.
	for {
		ev, ok := e.queue.TryDequeue()
		if !ok {
			break
		}
		if ev.rec != nil {
			e.persistDirect(bg, ev.rec, ev.edges)
		}
	}
}

// persistDirect appends a completion and its provenance edges straight
// to the log, bypassing evaluation. Only used during shutdown, after
// the event queue has closed.
func (e *Engine) persistDirect(ctx context.Context, rec *ir.ActionRecord, edges []ir.Edge) {
	if _, err := e.store.AppendRecord(ctx, *rec); err != nil {
		e.log.Error("appending completion during shutdown failed",
			"record_id", rec.ID, "concept", rec.Concept, "action", rec.Action, "error", err)
		return
	}
	for _, edge := range edges {
		if err := e.store.UpsertEdge(ctx, edge); err != nil {
			e.log.Error("edge write during shutdown failed",
				"from", edge.From, "to", edge.To, "error", err)
		}
	}
	e.log.Info("completion persisted during shutdown",
		"record_id", rec.ID, "concept", rec.Concept, "action", rec.Action, "flow", rec.FlowID)
}

func (e *Engine) processEvent(ctx context.Context, ev event) error {
	if ev.drain != "" {
		return e.processDrain(ctx, ev.drain)
	}
	if ev.rec == nil {
		return fmt.Errorf("event missing record")
	}
	return e.processCompletion(ctx, ev)
}

// processDrain releases held actions for a concept that came back up.
func (e *Engine) processDrain(ctx context.Context, concept string) error {
	payloads, err := e.store.DrainHeld(ctx, concept)
	if err != nil {
		return fmt.Errorf("drain held for %s: %w", concept, err)
	}
	for _, payload := range payloads {
		u, err := unitFromHeld(payload)
		if err != nil {
			e.log.Warn("held action unreadable, dropping", "concept", concept, "error", err)
			continue
		}
		e.queueUnit(ctx, u)
	}
	e.log.Info("held actions drained", "concept", concept, "count", len(payloads))
	return nil
}

// processCompletion persists one completion and its provenance edges,
// then evaluates syncs against it. Duplicate records (same content
// address) are appended idempotently and not re-evaluated.
func (e *Engine) processCompletion(ctx context.Context, ev event) error {
	rec := ev.rec
	e.log.Debug("processing completion",
		"id", rec.ID,
		"concept", rec.Concept,
		"action", rec.Action,
		"variant", rec.Variant,
		"flow", rec.FlowID,
		"seq", rec.Seq)

	inserted, err := e.store.AppendRecord(ctx, *rec)
	if err != nil {
		return fmt.Errorf("append record %s: %w", rec.ID, err)
	}
	for _, edge := range ev.edges {
		if err := e.store.UpsertEdge(ctx, edge); err != nil {
			return fmt.Errorf("upsert edge %s->%s: %w", edge.From, edge.To, err)
		}
	}
	if !inserted {
		e.log.Debug("duplicate record, skipping evaluation", "id", rec.ID)
		return nil
	}

	e.stepsMu.Lock()
	e.steps[rec.FlowID]++
	steps := e.steps[rec.FlowID]
	e.stepsMu.Unlock()
	if steps > e.maxSteps {
		e.log.Error("max steps quota exceeded, terminating flow",
			"flow", rec.FlowID,
			"record_id", rec.ID,
			"steps", steps,
			"limit", e.maxSteps)
		return fmt.Errorf("flow %s exceeded %d steps", rec.FlowID, e.maxSteps)
	}

	e.evaluate(ctx, rec)
	return nil
}

// evaluate runs every candidate sync against a freshly appended
// record. A failing sync is logged and skipped; it never blocks its
// siblings.
func (e *Engine) evaluate(ctx context.Context, rec *ir.ActionRecord) {
	for _, s := range e.registry.Matches(rec.Concept, rec.Action, rec.Variant) {
		if len(s.When) == 1 {
			env, ok := unify(s.When[0], *rec)
			if !ok {
				continue
			}
			e.fire(ctx, s, env, []string{rec.ID}, rec)
			continue
		}

		for i, when := range s.When {
			env, ok := unify(when, *rec)
			if !ok {
				continue
			}
			e.log.Debug("join clause matched",
				"sync", s.Name, "clause", i, "record_id", rec.ID, "state", stateMatched)
			for _, join := range e.arena.add(rec.FlowID, s, i, env, rec.ID) {
				e.fire(ctx, s, join.env, join.fromIDs, rec)
			}
		}
	}
}

// fire takes a matched sync from where-evaluation through firing-claim
// to the worker queue. Each surviving binding set claims its own
// firing slot; already-claimed slots are skipped.
func (e *Engine) fire(ctx context.Context, s *ir.Sync, env ir.Object, fromIDs []string, trigger *ir.ActionRecord) {
	e.log.Debug("sync matched",
		"sync", s.Name, "record_id", trigger.ID, "flow", trigger.FlowID, "state", stateEvaluating)

	envs, err := query.Eval(ctx, e.store.State(), s.Where, env)
	if err != nil {
		e.log.Error("where evaluation failed",
			"sync", s.Name, "record_id", trigger.ID, "error", err)
		return
	}
	if len(envs) == 0 {
		e.log.Debug("sync discarded: empty where result",
			"sync", s.Name, "record_id", trigger.ID, "state", stateDiscarded)
		return
	}

	for _, finalEnv := range envs {
		bindingHash, err := ir.BindingHash(finalEnv)
		if err != nil {
			e.log.Error("binding hash failed", "sync", s.Name, "error", err)
			continue
		}
		if e.cycles.check(trigger.FlowID, s.Name+":"+bindingHash) {
			e.log.Warn("cycle detected, skipping firing",
				"sync", s.Name, "flow", trigger.FlowID, "binding_hash", bindingHash)
			continue
		}
		_, inserted, err := e.store.WriteFiring(ctx, trigger.ID, s.Name, bindingHash, e.clock.Next())
		if err != nil {
			e.log.Error("firing claim failed",
				"sync", s.Name, "record_id", trigger.ID, "error", err)
			continue
		}
		if !inserted {
			e.log.Debug("sync already fired, skipping",
				"sync", s.Name, "record_id", trigger.ID, "binding_hash", bindingHash)
			continue
		}

		unit := firingUnit{
			syncName:    s.Name,
			flowID:      trigger.FlowID,
			bindingHash: bindingHash,
			fromIDs:     fromIDs,
		}
		for i, then := range s.Then {
			args, err := resolveArgs(then.Args, finalEnv)
			if err != nil {
				e.log.Error("then args unresolvable, skipping action",
					"sync", s.Name, "then", i, "error", err)
				continue
			}
			unit.actions = append(unit.actions, thenAction{
				Concept: then.Concept,
				Action:  then.Action,
				Args:    args,
			})
		}
		if len(unit.actions) == 0 {
			continue
		}
		e.queueUnit(ctx, unit)
	}
}

// queueUnit hands a claimed unit to the worker pool. The send blocks
// when the queue is full; on shutdown the unit is parked durably
// instead of being dropped.
func (e *Engine) queueUnit(ctx context.Context, u firingUnit) {
	e.log.Debug("firing queued",
		"sync", u.syncName, "flow", u.flowID, "actions", len(u.actions), "state", stateQueued)
	select {
	case e.fireCh <- u:
	case <-ctx.Done():
		bg := context.WithoutCancel(ctx)
		for _, a := range u.actions {
			if err := e.store.HoldAction(bg, a.Concept, heldObject(u, a)); err != nil {
				e.log.Error("parking unit on shutdown failed",
					"concept", a.Concept, "action", a.Action, "error", err)
			}
		}
	}
}

func (e *Engine) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		// Cancellation wins over buffered units: anything still queued
		// is parked durably by shutdown instead of being fired.
		select {
		case <-ctx.Done():
			return
		default:
		}
		select {
		case <-ctx.Done():
			return
		case u, ok := <-e.fireCh:
			if !ok {
				return
			}
			e.execute(ctx, u)
		}
	}
}

// execute runs one firing unit: each then-action is invoked (or held
// when its target is down), and its completion is fed back into the
// evaluation loop with provenance edges from every contributing
// record. Sibling actions are independent; one failure never stops
// the rest.
func (e *Engine) execute(ctx context.Context, u firingUnit) {
	e.log.Debug("firing",
		"sync", u.syncName, "flow", u.flowID, "actions", len(u.actions), "state", stateFiring)

	for _, a := range u.actions {
		if e.unavailable(a.Concept) {
			if err := e.store.HoldAction(ctx, a.Concept, heldObject(u, a)); err != nil {
				e.log.Error("holding action failed",
					"concept", a.Concept, "action", a.Action, "flow", u.flowID, "error", err)
				continue
			}
			e.log.Info("action held: target unavailable",
				"concept", a.Concept, "action", a.Action, "flow", u.flowID, "sync", u.syncName)
			continue
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				bg := context.WithoutCancel(ctx)
				if holdErr := e.store.HoldAction(bg, a.Concept, heldObject(u, a)); holdErr != nil {
					e.log.Error("parking rate-limited action failed",
						"concept", a.Concept, "action", a.Action, "error", holdErr)
				}
				continue
			}
		}

		output, invokeErr := e.invoker.Invoke(ctx, a.Concept, a.Action, a.Args)
		variant := ir.VariantOK
		if invokeErr != nil {
			variant = ir.VariantError
			output = ir.Object{"message": ir.String(invokeErr.Error())}
			e.log.Error("then-action failed",
				"concept", a.Concept, "action", a.Action, "flow", u.flowID,
				"sync", u.syncName, "error", invokeErr)
		}

		seq := e.clock.Next()
		id, err := ir.RecordID(a.Concept, a.Action, variant, a.Args, output, u.flowID, seq)
		if err != nil {
			e.log.Error("record id failed",
				"concept", a.Concept, "action", a.Action, "error", err)
			continue
		}
		rec := ir.ActionRecord{
			ID:        id,
			Concept:   a.Concept,
			Action:    a.Action,
			Variant:   variant,
			Input:     a.Args,
			Output:    output,
			FlowID:    u.flowID,
			Seq:       seq,
			Timestamp: time.Now().UnixMilli(),
		}

		var edges []ir.Edge
		if u.syncName != "" {
			for _, fromID := range u.fromIDs {
				edges = append(edges, ir.Edge{From: fromID, To: id, Sync: u.syncName})
			}
		}

		if !e.queue.Enqueue(event{rec: &rec, edges: edges}) {
			// The invocation already happened; its record must outlive
			// the closed queue even though no syncs will run on it.
			e.persistDirect(context.WithoutCancel(ctx), &rec, edges)
		}
	}

	e.log.Debug("firing done", "sync", u.syncName, "flow", u.flowID, "state", stateDone)
}

func (e *Engine) logEventError(ev event, err error) {
	if ev.drain != "" {
		e.log.Error("drain processing failed", "concept", ev.drain, "error", err)
		return
	}
	if ev.rec != nil {
		e.log.Error("completion processing failed",
			"error", err,
			"record_id", ev.rec.ID,
			"concept", ev.rec.Concept,
			"action", ev.rec.Action,
			"flow", ev.rec.FlowID,
			"seq", ev.rec.Seq)
		return
	}
	e.log.Error("event processing failed", "error", err)
}
