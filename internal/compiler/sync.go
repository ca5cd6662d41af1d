package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// CompileString compiles CUE source into sync rules, in declaration
// order. The filename is used in error positions only.
func CompileString(src, filename string) ([]ir.Sync, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileSyncs(v)
}

// CompileSyncs extracts every rule under the top-level "sync" struct.
func CompileSyncs(v cue.Value) ([]ir.Sync, error) {
	root := v.LookupPath(cue.ParsePath("sync"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "sync",
			Message: "no top-level sync struct",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var syncs []ir.Sync
	for iter.Next() {
		name := strings.Trim(iter.Selector().String(), `"`)
		s, err := compileSync(name, iter.Value())
		if err != nil {
			return nil, err
		}
		syncs = append(syncs, s)
	}
	return syncs, nil
}

func compileSync(name string, v cue.Value) (ir.Sync, error) {
	s := ir.Sync{Name: name}

	if pv := v.LookupPath(cue.ParsePath("priority")); pv.Exists() {
		p, err := pv.Int64()
		if err != nil {
			return s, &CompileError{
				Field:   fmt.Sprintf("sync.%s.priority", name),
				Message: "priority must be an integer",
				Pos:     pv.Pos(),
			}
		}
		s.Priority = int(p)
	}

	when, err := parseWhenClauses(name, v)
	if err != nil {
		return s, err
	}
	s.When = when

	if wv := v.LookupPath(cue.ParsePath("where")); wv.Exists() {
		steps, err := parseWhereSteps(name, wv)
		if err != nil {
			return s, err
		}
		s.Where = steps
	}

	then, err := parseThenClauses(name, v)
	if err != nil {
		return s, err
	}
	s.Then = then

	return s, nil
}

func parseWhenClauses(name string, v cue.Value) ([]ir.WhenClause, error) {
	whenVal := v.LookupPath(cue.ParsePath("when"))
	if !whenVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("sync.%s.when", name),
			Message: "when clause is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := whenVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   fmt.Sprintf("sync.%s.when", name),
			Message: "when must be a list of trigger clauses",
			Pos:     whenVal.Pos(),
		}
	}

	var clauses []ir.WhenClause
	for i := 0; iter.Next(); i++ {
		cv := iter.Value()
		field := fmt.Sprintf("sync.%s.when[%d]", name, i)

		clause := ir.WhenClause{}
		if clause.Concept, err = requiredString(cv, "concept", field); err != nil {
			return nil, err
		}
		if clause.Action, err = requiredString(cv, "action", field); err != nil {
			return nil, err
		}
		if clause.Variant, err = optionalString(cv, "variant", field); err != nil {
			return nil, err
		}
		from, err := optionalString(cv, "from", field)
		if err != nil {
			return nil, err
		}
		clause.From = ir.BindSource(from)

		if clause.Bind, err = stringMap(cv, "bind", field); err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// parseWhereSteps parses the where pipeline. Each list element carries
// exactly one of "bind", "query", or "guard".
func parseWhereSteps(name string, v cue.Value) ([]ir.Step, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   fmt.Sprintf("sync.%s.where", name),
			Message: "where must be a list of steps",
			Pos:     v.Pos(),
		}
	}

	var steps []ir.Step
	for i := 0; iter.Next(); i++ {
		sv := iter.Value()
		field := fmt.Sprintf("sync.%s.where[%d]", name, i)

		switch {
		case sv.LookupPath(cue.ParsePath("bind")).Exists():
			step, err := parseBindStep(sv.LookupPath(cue.ParsePath("bind")), field)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)

		case sv.LookupPath(cue.ParsePath("query")).Exists():
			step, err := parseQueryStep(sv.LookupPath(cue.ParsePath("query")), field)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)

		case sv.LookupPath(cue.ParsePath("guard")).Exists():
			step, err := parseGuardStep(sv.LookupPath(cue.ParsePath("guard")), field)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)

		default:
			return nil, &CompileError{
				Field:   field,
				Message: `step must be one of "bind", "query", "guard"`,
				Pos:     sv.Pos(),
			}
		}
	}
	return steps, nil
}

func parseBindStep(v cue.Value, field string) (ir.BindStep, error) {
	var step ir.BindStep
	var err error
	if step.As, err = requiredString(v, "as", field+".bind"); err != nil {
		return step, err
	}
	if step.Expr, err = requiredString(v, "expr", field+".bind"); err != nil {
		return step, err
	}
	return step, nil
}

func parseGuardStep(v cue.Value, field string) (ir.GuardStep, error) {
	var step ir.GuardStep
	var err error
	if step.Left, err = requiredString(v, "left", field+".guard"); err != nil {
		return step, err
	}
	if step.Right, err = requiredString(v, "right", field+".guard"); err != nil {
		return step, err
	}
	return step, nil
}

func parseQueryStep(v cue.Value, field string) (ir.QueryStep, error) {
	var step ir.QueryStep
	var err error
	field += ".query"

	if step.Concept, err = requiredString(v, "concept", field); err != nil {
		return step, err
	}
	if step.Relation, err = requiredString(v, "relation", field); err != nil {
		return step, err
	}
	if fv := v.LookupPath(cue.ParsePath("filter")); fv.Exists() {
		if step.Filter, err = parsePredicate(fv, field+".filter"); err != nil {
			return step, err
		}
	}
	if step.Bind, err = stringMap(v, "bind", field); err != nil {
		return step, err
	}
	return step, nil
}

// parsePredicate decodes a row filter. Three shapes:
//
//	{field: "f", value: <literal>}  equality against a literal
//	{field: "f", var: "x"}          equality against a bound variable
//	{all: [<predicate>, ...]}       conjunction
func parsePredicate(v cue.Value, field string) (ir.Predicate, error) {
	if av := v.LookupPath(cue.ParsePath("all")); av.Exists() {
		iter, err := av.List()
		if err != nil {
			return nil, &CompileError{
				Field:   field + ".all",
				Message: "all must be a list of predicates",
				Pos:     av.Pos(),
			}
		}
		and := ir.And{}
		for i := 0; iter.Next(); i++ {
			inner, err := parsePredicate(iter.Value(), fmt.Sprintf("%s.all[%d]", field, i))
			if err != nil {
				return nil, err
			}
			and.Predicates = append(and.Predicates, inner)
		}
		return and, nil
	}

	fieldName, err := requiredString(v, "field", field)
	if err != nil {
		return nil, err
	}

	if vv := v.LookupPath(cue.ParsePath("var")); vv.Exists() {
		varName, err := vv.String()
		if err != nil {
			return nil, &CompileError{
				Field:   field + ".var",
				Message: "var must be a string variable name",
				Pos:     vv.Pos(),
			}
		}
		return ir.BoundEquals{Field: fieldName, Var: varName}, nil
	}

	lv := v.LookupPath(cue.ParsePath("value"))
	if !lv.Exists() {
		return nil, &CompileError{
			Field:   field,
			Message: `predicate requires "var" or "value"`,
			Pos:     v.Pos(),
		}
	}
	literal, err := extractLiteral(lv, field+".value")
	if err != nil {
		return nil, err
	}
	return ir.Equals{Field: fieldName, Value: literal}, nil
}

func parseThenClauses(name string, v cue.Value) ([]ir.ThenClause, error) {
	thenVal := v.LookupPath(cue.ParsePath("then"))
	if !thenVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("sync.%s.then", name),
			Message: "then clause is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := thenVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   fmt.Sprintf("sync.%s.then", name),
			Message: "then must be a list of action clauses",
			Pos:     thenVal.Pos(),
		}
	}

	var clauses []ir.ThenClause
	for i := 0; iter.Next(); i++ {
		cv := iter.Value()
		field := fmt.Sprintf("sync.%s.then[%d]", name, i)

		clause := ir.ThenClause{}
		if clause.Concept, err = requiredString(cv, "concept", field); err != nil {
			return nil, err
		}
		if clause.Action, err = requiredString(cv, "action", field); err != nil {
			return nil, err
		}
		if clause.Args, err = stringMap(cv, "args", field); err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// extractLiteral converts a CUE scalar to an ir.Value. Floats are
// rejected; the value model is integer-only.
func extractLiteral(v cue.Value, field string) (ir.Value, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Int(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "float literals are forbidden, use int",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported literal kind %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func requiredString(v cue.Value, key, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(key))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field + "." + key,
			Message: key + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field + "." + key,
			Message: key + " must be a string",
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

func optionalString(v cue.Value, key, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(key))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field + "." + key,
			Message: key + " must be a string",
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

func stringMap(v cue.Value, key, field string) (map[string]string, error) {
	mv := v.LookupPath(cue.ParsePath(key))
	if !mv.Exists() {
		return nil, nil
	}
	iter, err := mv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := map[string]string{}
	for iter.Next() {
		label := strings.Trim(iter.Selector().String(), `"`)
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.%s.%s", field, key, label),
				Message: "value must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		out[label] = s
	}
	return out, nil
}
