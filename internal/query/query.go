package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// Storage is the read side of the concept-state boundary the evaluator
// needs. Find returns rows in insertion order; match is a partial
// object (every present field must be equal), nil matches all rows.
type Storage interface {
	Get(ctx context.Context, concept, relation, key string) (ir.Object, bool, error)
	Find(ctx context.Context, concept, relation string, match ir.Object) ([]ir.Object, error)
}

const (
	refPrefix = "${bound."
	refSuffix = "}"
)

// Ref extracts the variable name from a "${bound.x}" expression.
// Returns ("", false) for literal strings.
func Ref(expr string) (string, bool) {
	if strings.HasPrefix(expr, refPrefix) && strings.HasSuffix(expr, refSuffix) &&
		len(expr) > len(refPrefix)+len(refSuffix) {
		return expr[len(refPrefix) : len(expr)-len(refSuffix)], true
	}
	return "", false
}

// resolveExpr evaluates a Bind/Guard expression against an
// environment: a binding reference resolves to the bound value, any
// other string is itself.
func resolveExpr(expr string, env ir.Object) (ir.Value, error) {
	if name, ok := Ref(expr); ok {
		v, bound := env[name]
		if !bound {
			return nil, fmt.Errorf("variable %q not bound", name)
		}
		return v, nil
	}
	return ir.String(expr), nil
}

// Eval runs a where-clause pipeline starting from the when-clause
// bindings. It returns zero or more extended environments; an empty
// result means the sync is discarded for this completion.
//
// A nil or empty pipeline passes the input environment through
// unchanged, which is the common trivially-true where-clause.
func Eval(ctx context.Context, st Storage, steps []ir.Step, env ir.Object) ([]ir.Object, error) {
	envs := []ir.Object{env.Clone()}

	for i, step := range steps {
		var err error
		switch s := step.(type) {
		case ir.BindStep:
			envs, err = evalBind(s, envs)
		case ir.GuardStep:
			envs, err = evalGuard(s, envs)
		case ir.QueryStep:
			envs, err = evalQuery(ctx, st, s, envs)
		default:
			err = fmt.Errorf("unknown step type %T", step)
		}
		if err != nil {
			return nil, fmt.Errorf("where step %d: %w", i, err)
		}
		if len(envs) == 0 {
			return nil, nil // short-circuit: no bindings survive
		}
	}

	return envs, nil
}

func evalBind(s ir.BindStep, envs []ir.Object) ([]ir.Object, error) {
	out := make([]ir.Object, 0, len(envs))
	for _, env := range envs {
		v, err := resolveExpr(s.Expr, env)
		if err != nil {
			return nil, fmt.Errorf("bind %q: %w", s.As, err)
		}
		next := env.Clone()
		next[s.As] = v
		out = append(out, next)
	}
	return out, nil
}

func evalGuard(s ir.GuardStep, envs []ir.Object) ([]ir.Object, error) {
	var out []ir.Object
	for _, env := range envs {
		left, err := resolveExpr(s.Left, env)
		if err != nil {
			return nil, fmt.Errorf("guard left: %w", err)
		}
		right, err := resolveExpr(s.Right, env)
		if err != nil {
			return nil, fmt.Errorf("guard right: %w", err)
		}
		if ir.Equal(left, right) {
			out = append(out, env)
		}
	}
	return out, nil
}

// evalQuery fans each environment out over matching rows. Rows are
// visited in the storage layer's insertion order; syncs must not
// depend on any other ordering.
func evalQuery(ctx context.Context, st Storage, s ir.QueryStep, envs []ir.Object) ([]ir.Object, error) {
	var out []ir.Object
	for _, env := range envs {
		rows, err := st.Find(ctx, s.Concept, s.Relation, nil)
		if err != nil {
			return nil, fmt.Errorf("find %s/%s: %w", s.Concept, s.Relation, err)
		}
		for _, row := range rows {
			ok, err := matchPredicate(s.Filter, row, env)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			next := env.Clone()
			for varName, field := range s.Bind {
				v, exists := row[field]
				if !exists {
					return nil, fmt.Errorf("query bind %q: field %q not in row", varName, field)
				}
				next[varName] = v
			}
			out = append(out, next)
		}
	}
	return out, nil
}

// matchPredicate evaluates a row filter. A nil predicate keeps every
// row; an empty And is vacuously true.
func matchPredicate(p ir.Predicate, row, env ir.Object) (bool, error) {
	switch pred := p.(type) {
	case nil:
		return true, nil
	case ir.Equals:
		v, exists := row[pred.Field]
		return exists && ir.Equal(v, pred.Value), nil
	case ir.BoundEquals:
		bound, ok := env[pred.Var]
		if !ok {
			return false, fmt.Errorf("predicate references unbound variable %q", pred.Var)
		}
		v, exists := row[pred.Field]
		return exists && ir.Equal(v, bound), nil
	case ir.And:
		for _, inner := range pred.Predicates {
			ok, err := matchPredicate(inner, row, env)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unknown predicate type %T", p)
	}
}
