package engine

import "github.com/google/uuid"

// FlowGenerator mints flow tokens for root requests. Tokens are
// generated exactly once at the root of a flow; every record and
// firing downstream inherits the same token.
type FlowGenerator interface {
	Generate() string
}

// UUIDv7Flows generates time-sortable UUIDv7 flow tokens. Stateless
// and safe for concurrent use.
type UUIDv7Flows struct{}

// Generate returns a new hyphenated UUIDv7 string.
func (UUIDv7Flows) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
