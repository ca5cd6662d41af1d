package testutil

import (
	"context"
	"sync"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// Call records one invocation the scripted invoker received.
type Call struct {
	Concept string
	Action  string
	Args    ir.Object
}

// HandlerFunc produces a concept action's output for the given args.
type HandlerFunc func(args ir.Object) (ir.Object, error)

// ScriptedInvoker dispatches invocations to per-action handlers and
// records every call. Actions without a handler echo their args back
// as the output.
type ScriptedInvoker struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	calls    []Call
}

// NewScriptedInvoker builds an invoker with no handlers installed.
func NewScriptedInvoker() *ScriptedInvoker {
	return &ScriptedInvoker{handlers: map[string]HandlerFunc{}}
}

// Handle installs a handler for concept.action.
func (s *ScriptedInvoker) Handle(concept, action string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[concept+"."+action] = fn
}

// Invoke runs the installed handler, or echoes args when none exists.
func (s *ScriptedInvoker) Invoke(ctx context.Context, concept, action string, args ir.Object) (ir.Object, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Concept: concept, Action: action, Args: args.Clone()})
	fn := s.handlers[concept+"."+action]
	s.mu.Unlock()

	if fn != nil {
		return fn(args)
	}
	return args.Clone(), nil
}

// Calls returns a copy of every recorded call in arrival order.
func (s *ScriptedInvoker) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many times concept.action was invoked.
func (s *ScriptedInvoker) CallCount(concept, action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Concept == concept && c.Action == action {
			n++
		}
	}
	return n
}
