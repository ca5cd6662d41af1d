package ir

// Sync is a compiled synchronization rule: when certain completions
// arrive (When, all clauses), and the Where steps produce at least one
// binding set, invoke the Then actions with those bindings.
type Sync struct {
	Name     string       `json:"name"`
	Priority int          `json:"priority"` // lower evaluated first; ties in registration order
	When     []WhenClause `json:"when"`
	Where    []Step       `json:"where,omitempty"`
	Then     []ThenClause `json:"then"`
}

// BindSource selects which side of a completion a binding reads from.
type BindSource string

const (
	// BindOutput reads from the completion's output payload (default).
	BindOutput BindSource = "output"
	// BindInput reads from the completion's input payload.
	BindInput BindSource = "input"
)

// WhenClause is one trigger pattern. A completion matches when
// Concept and Action are equal and Variant is equal or the clause
// leaves it empty. Bind maps variable names to field names in the
// selected payload.
type WhenClause struct {
	Concept string            `json:"concept"`
	Action  string            `json:"action"`
	Variant string            `json:"variant,omitempty"` // empty matches any
	From    BindSource        `json:"from,omitempty"`    // defaults to BindOutput
	Bind    map[string]string `json:"bind,omitempty"`    // var name -> field name
}

// TriggerKey returns the exact-match index key for this clause.
func (w WhenClause) TriggerKey() string {
	v := w.Variant
	if v == "" {
		v = "*"
	}
	return w.Concept + ":" + w.Action + ":" + v
}

// ThenClause is one follow-up action. Args maps argument names to
// template strings; "${bound.x}" references a bound variable, any
// other string is a literal.
type ThenClause struct {
	Concept string            `json:"concept"`
	Action  string            `json:"action"`
	Args    map[string]string `json:"args,omitempty"`
}

// ConceptDecl declares a concept and its actions for registration-time
// validation of then-clauses.
type ConceptDecl struct {
	Name    string   `json:"name" yaml:"name"`
	Actions []string `json:"actions" yaml:"actions"`
}

// HasAction reports whether the declaration includes the action.
func (c ConceptDecl) HasAction(action string) bool {
	for _, a := range c.Actions {
		if a == action {
			return true
		}
	}
	return false
}
