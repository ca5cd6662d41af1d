package engine

import (
	"fmt"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// firingState tracks a firing unit through its lifecycle for logging.
type firingState string

const (
	stateMatched    firingState = "matched"
	stateEvaluating firingState = "evaluating"
	stateQueued     firingState = "queued"
	stateFiring     firingState = "firing"
	stateDone       firingState = "done"
	stateDiscarded  firingState = "discarded"
)

// thenAction is one follow-up invocation with its args already
// resolved against the binding environment.
type thenAction struct {
	Concept string
	Action  string
	Args    ir.Object
}

// firingUnit is one claimed sync firing: the actions to invoke, the
// flow they belong to, and the records that caused them. A unit is
// done only after every action was invoked, failed, or held.
type firingUnit struct {
	syncName    string
	flowID      string
	bindingHash string
	fromIDs     []string
	actions     []thenAction
}

// resolveArgs substitutes bound variables into then-clause arg
// templates. "${bound.x}" resolves to the bound value; any other
// string is a literal.
func resolveArgs(templates map[string]string, env ir.Object) (ir.Object, error) {
	resolved := make(ir.Object, len(templates))
	for key, tmpl := range templates {
		v, err := substituteBinding(tmpl, env)
		if err != nil {
			return nil, fmt.Errorf("arg %q: %w", key, err)
		}
		resolved[key] = v
	}
	return resolved, nil
}

func substituteBinding(tmpl string, env ir.Object) (ir.Value, error) {
	const prefix = "${bound."
	const suffix = "}"

	if len(tmpl) > len(prefix)+len(suffix) &&
		tmpl[:len(prefix)] == prefix &&
		tmpl[len(tmpl)-len(suffix):] == suffix {
		name := tmpl[len(prefix) : len(tmpl)-len(suffix)]
		v, ok := env[name]
		if !ok {
			return nil, fmt.Errorf("binding %q not found", name)
		}
		return v, nil
	}
	return ir.String(tmpl), nil
}

// heldObject serializes one held action for the durable holding queue.
func heldObject(u firingUnit, a thenAction) ir.Object {
	from := make(ir.Array, len(u.fromIDs))
	for i, id := range u.fromIDs {
		from[i] = ir.String(id)
	}
	return ir.Object{
		"concept": ir.String(a.Concept),
		"action":  ir.String(a.Action),
		"args":    a.Args,
		"flow_id": ir.String(u.flowID),
		"sync":    ir.String(u.syncName),
		"from":    from,
	}
}

// unitFromHeld rebuilds a single-action firing unit from a held
// payload.
func unitFromHeld(payload ir.Object) (firingUnit, error) {
	concept, ok := payload["concept"].(ir.String)
	if !ok {
		return firingUnit{}, fmt.Errorf("held action missing concept")
	}
	action, ok := payload["action"].(ir.String)
	if !ok {
		return firingUnit{}, fmt.Errorf("held action missing action")
	}
	flowID, ok := payload["flow_id"].(ir.String)
	if !ok {
		return firingUnit{}, fmt.Errorf("held action missing flow_id")
	}

	args, _ := payload["args"].(ir.Object)
	syncName, _ := payload["sync"].(ir.String)

	var fromIDs []string
	if from, ok := payload["from"].(ir.Array); ok {
		for _, v := range from {
			if id, ok := v.(ir.String); ok {
				fromIDs = append(fromIDs, string(id))
			}
		}
	}

	return firingUnit{
		syncName: string(syncName),
		flowID:   string(flowID),
		fromIDs:  fromIDs,
		actions: []thenAction{{
			Concept: string(concept),
			Action:  string(action),
			Args:    args,
		}},
	}, nil
}
