package ir

// Step is one stage of a where-clause pipeline. A pipeline starts from
// the binding environment produced by the when-clauses and each step
// extends or filters the working set of environments:
//
//   - Bind introduces a variable from an expression
//   - Query fans out over matching concept-state rows, one environment
//     per row
//   - Guard keeps only environments where two expressions are equal
//
// This is a sealed interface; the marker method keeps the set of step
// kinds closed so evaluators can switch exhaustively.
type Step interface {
	whereStep()
}

// BindStep introduces a new variable. Expr is either "${bound.x}" (a
// reference to an existing variable) or a literal string.
type BindStep struct {
	As   string `json:"as"`
	Expr string `json:"expr"`
}

func (BindStep) whereStep() {}

// QueryStep reads rows from a concept-state relation and extends the
// environment once per matching row. Rows arrive in the storage
// layer's insertion order; no other ordering is guaranteed.
type QueryStep struct {
	Concept  string            `json:"concept"`
	Relation string            `json:"relation"`
	Filter   Predicate         `json:"filter,omitempty"` // nil keeps every row
	Bind     map[string]string `json:"bind,omitempty"`   // var name -> row field
}

func (QueryStep) whereStep() {}

// GuardStep keeps an environment only when Left and Right evaluate to
// equal values. Both sides use the same expression syntax as BindStep.
type GuardStep struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

func (GuardStep) whereStep() {}

// Predicate filters rows inside a QueryStep. Sealed for the same
// reason as Step.
type Predicate interface {
	predicate()
}

// Equals matches rows whose Field equals the literal Value.
type Equals struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

func (Equals) predicate() {}

// BoundEquals matches rows whose Field equals the value of a bound
// variable from the working environment.
type BoundEquals struct {
	Field string `json:"field"`
	Var   string `json:"var"` // variable name, without the ${bound.} wrapper
}

func (BoundEquals) predicate() {}

// And matches rows satisfying every inner predicate. An empty list is
// vacuously true.
type And struct {
	Predicates []Predicate `json:"predicates"`
}

func (And) predicate() {}
