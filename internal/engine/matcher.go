package engine

import "github.com/cadenzalab/cadenza/internal/ir"

// unify matches one when-clause against a completed record and, on
// success, returns the binding environment the clause extracts.
// Binding is all-or-nothing: a missing field fails the whole clause.
func unify(when ir.WhenClause, rec ir.ActionRecord) (ir.Object, bool) {
	if when.Concept != rec.Concept {
		return nil, false
	}
	if when.Action != "*" && when.Action != rec.Action {
		return nil, false
	}
	if when.Variant != "" && when.Variant != rec.Variant {
		return nil, false
	}

	payload := rec.Output
	if when.From == ir.BindInput {
		payload = rec.Input
	}

	env := ir.Object{}
	for varName, field := range when.Bind {
		v, ok := payload[field]
		if !ok {
			return nil, false
		}
		env[varName] = v
	}
	return env, true
}

// mergeEnvs joins two binding environments. Variables present in both
// must hold equal values, otherwise the environments do not unify.
func mergeEnvs(a, b ir.Object) (ir.Object, bool) {
	merged := a.Clone()
	for name, v := range b {
		if existing, ok := merged[name]; ok {
			if !ir.Equal(existing, v) {
				return nil, false
			}
			continue
		}
		merged[name] = v
	}
	return merged, true
}
