package ir

// ActionRecord is one entry in the Action Log: a completed concept
// action with its input, its tagged output, and the flow it belongs
// to. Records are immutable once appended.
type ActionRecord struct {
	ID        string `json:"id"`      // content-addressed (DomainRecord)
	Concept   string `json:"concept"` // e.g. "ArticlePublish"
	Action    string `json:"action"`  // e.g. "create"
	Variant   string `json:"variant"` // "ok", "error", or a custom case
	Input     Object `json:"input"`
	Output    Object `json:"output"`
	FlowID    string `json:"flow_id"` // groups records from one root invocation
	Seq       int64  `json:"seq"`     // logical clock
	Timestamp int64  `json:"ts"`      // unix millis, informational only
}

// VariantOK and VariantError are the conventional result tags. Concepts
// may define additional custom variants.
const (
	VariantOK    = "ok"
	VariantError = "error"
)

// Edge is a causal link: To was produced by Sync reacting to From.
// Edges are keyed (From, To); rewriting the same key overwrites.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Sync string `json:"sync"`
}

// Result is the tagged output envelope every exposed operation
// returns: a variant name plus a structured payload.
type Result struct {
	Variant string `json:"variant"`
	Output  Object `json:"output,omitempty"`
}

// OK builds an ok-variant result.
func OK(output Object) Result {
	return Result{Variant: VariantOK, Output: output}
}

// Invalid builds an invalid-variant result with a reason.
func Invalid(reason string) Result {
	return Result{Variant: "invalid", Output: Object{"reason": String(reason)}}
}

// Errf builds an error-variant result with a message.
func Errf(msg string) Result {
	return Result{Variant: VariantError, Output: Object{"message": String(msg)}}
}

// CannotResolve builds the cannotResolve-variant result used by the
// conflict subsystem when a conflict is escalated rather than won.
func CannotResolve(reason string) Result {
	return Result{Variant: "cannotResolve", Output: Object{"reason": String(reason)}}
}
