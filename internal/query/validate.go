package query

import (
	"fmt"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// CheckVars verifies that every variable a pipeline references is
// bound before use, walking steps in order. The bound set is mutated:
// on return it also contains every variable the pipeline introduces,
// so callers can check then-clause templates against it.
func CheckVars(steps []ir.Step, bound map[string]bool) error {
	for i, step := range steps {
		switch s := step.(type) {
		case ir.BindStep:
			if s.As == "" {
				return fmt.Errorf("where step %d: bind requires a variable name", i)
			}
			if name, ok := Ref(s.Expr); ok && !bound[name] {
				return fmt.Errorf("where step %d: bind references unbound variable %q", i, name)
			}
			bound[s.As] = true

		case ir.GuardStep:
			for _, expr := range []string{s.Left, s.Right} {
				if name, ok := Ref(expr); ok && !bound[name] {
					return fmt.Errorf("where step %d: guard references unbound variable %q", i, name)
				}
			}

		case ir.QueryStep:
			if s.Concept == "" || s.Relation == "" {
				return fmt.Errorf("where step %d: query requires concept and relation", i)
			}
			if err := checkPredicateVars(s.Filter, bound); err != nil {
				return fmt.Errorf("where step %d: %w", i, err)
			}
			for varName := range s.Bind {
				bound[varName] = true
			}

		default:
			return fmt.Errorf("where step %d: unknown step type %T", i, step)
		}
	}
	return nil
}

func checkPredicateVars(p ir.Predicate, bound map[string]bool) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case ir.Equals:
		return nil
	case ir.BoundEquals:
		if !bound[pred.Var] {
			return fmt.Errorf("filter references unbound variable %q", pred.Var)
		}
		return nil
	case ir.And:
		for _, inner := range pred.Predicates {
			if err := checkPredicateVars(inner, bound); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown predicate type %T", p)
	}
}
