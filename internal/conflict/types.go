package conflict

import (
	"fmt"
	"slices"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// VersionData is one side of a conflicting entity version.
type VersionData struct {
	// Fields holds the entity's field values.
	Fields ir.Object `json:"fields"`
	// Timestamp is the wall-clock write time in unix millis. Zero means
	// unknown and is treated as oldest.
	Timestamp int64 `json:"timestamp"`
	// ReplicaID identifies the replica that produced this version.
	ReplicaID string `json:"replica_id,omitempty"`
}

// Conflict describes divergent versions of the same logical entity,
// detected during replica reconciliation.
type Conflict struct {
	EntityID string       `json:"entity_id"`
	VersionA VersionData  `json:"version_a"`
	VersionB VersionData  `json:"version_b"`
	Ancestor *VersionData `json:"ancestor,omitempty"` // enables three-way merge
}

// FieldConflicts returns the names of fields on which the two versions
// disagree, in canonical key order.
func (c *Conflict) FieldConflicts() []string {
	var out []string
	for _, field := range allFieldKeys(c) {
		va, okA := c.VersionA.Fields[field]
		vb, okB := c.VersionB.Fields[field]
		if okA != okB || (okA && !ir.Equal(va, vb)) {
			out = append(out, field)
		}
	}
	return out
}

// allFieldKeys collects every field name across both versions and the
// ancestor, sorted canonically for deterministic iteration.
func allFieldKeys(c *Conflict) []string {
	seen := ir.Object{}
	for k := range c.VersionA.Fields {
		seen[k] = ir.Bool(true)
	}
	for k := range c.VersionB.Fields {
		seen[k] = ir.Bool(true)
	}
	if c.Ancestor != nil {
		for k := range c.Ancestor.Fields {
			seen[k] = ir.Bool(true)
		}
	}
	return seen.SortedKeys()
}

// Winner identifies which side won a resolution.
type Winner string

const (
	WinnerA      Winner = "a"
	WinnerB      Winner = "b"
	WinnerMerged Winner = "merged"
	WinnerManual Winner = "manual"
)

// FieldConflict is the per-field detail for a true conflict a merge
// provider could not settle automatically.
type FieldConflict struct {
	Field    string   `json:"field"`
	ValueA   ir.Value `json:"value_a,omitempty"`
	ValueB   ir.Value `json:"value_b,omitempty"`
	Ancestor ir.Value `json:"ancestor,omitempty"`
}

// Resolution is the outcome a resolver produces.
type Resolution struct {
	Winner       Winner    `json:"winner"`
	MergedFields ir.Object `json:"merged_fields,omitempty"`
	Strategy     string    `json:"strategy"`
	Details      string    `json:"details"`
	AutoResolved bool      `json:"auto_resolved"`
	// MarginMillis is the absolute timestamp difference for
	// timestamp-based strategies.
	MarginMillis int64 `json:"margin_ms,omitempty"`
	// SilentDataLossRisk flags that the chosen strategy discarded
	// field-level changes from the losing version.
	SilentDataLossRisk bool `json:"silent_data_loss_risk,omitempty"`
	// Unresolved lists fields the strategy defaulted rather than truly
	// resolved.
	Unresolved []FieldConflict `json:"unresolved,omitempty"`
}

// versionToObject converts a VersionData for persistence.
func versionToObject(v VersionData) ir.Object {
	obj := ir.Object{
		"fields":    v.Fields,
		"timestamp": ir.Int(v.Timestamp),
	}
	if v.ReplicaID != "" {
		obj["replica_id"] = ir.String(v.ReplicaID)
	}
	return obj
}

func versionFromObject(obj ir.Object) (VersionData, error) {
	v := VersionData{}
	fields, ok := obj["fields"].(ir.Object)
	if !ok {
		return v, fmt.Errorf("version missing fields object")
	}
	v.Fields = fields
	if ts, ok := obj["timestamp"].(ir.Int); ok {
		v.Timestamp = int64(ts)
	}
	if rid, ok := obj["replica_id"].(ir.String); ok {
		v.ReplicaID = string(rid)
	}
	return v, nil
}

// ToObject serializes a conflict for the pending-conflict relation.
func (c *Conflict) ToObject() ir.Object {
	obj := ir.Object{
		"entity_id": ir.String(c.EntityID),
		"version_a": versionToObject(c.VersionA),
		"version_b": versionToObject(c.VersionB),
	}
	if c.Ancestor != nil {
		obj["ancestor"] = versionToObject(*c.Ancestor)
	}
	fields := c.FieldConflicts()
	if len(fields) > 0 {
		arr := make(ir.Array, len(fields))
		for i, f := range fields {
			arr[i] = ir.String(f)
		}
		obj["field_conflicts"] = arr
	}
	return obj
}

// FromObject deserializes a conflict from a pending-conflict record.
func FromObject(obj ir.Object) (*Conflict, error) {
	entity, ok := obj["entity_id"].(ir.String)
	if !ok {
		return nil, fmt.Errorf("conflict record missing entity_id")
	}
	c := &Conflict{EntityID: string(entity)}

	va, ok := obj["version_a"].(ir.Object)
	if !ok {
		return nil, fmt.Errorf("conflict record missing version_a")
	}
	var err error
	if c.VersionA, err = versionFromObject(va); err != nil {
		return nil, fmt.Errorf("version_a: %w", err)
	}

	vb, ok := obj["version_b"].(ir.Object)
	if !ok {
		return nil, fmt.Errorf("conflict record missing version_b")
	}
	if c.VersionB, err = versionFromObject(vb); err != nil {
		return nil, fmt.Errorf("version_b: %w", err)
	}

	if anc, ok := obj["ancestor"].(ir.Object); ok {
		v, err := versionFromObject(anc)
		if err != nil {
			return nil, fmt.Errorf("ancestor: %w", err)
		}
		c.Ancestor = &v
	}
	return c, nil
}

// lostFields returns the loser's fields whose values the winner does
// not carry, sorted canonically.
func lostFields(winner, loser VersionData) []string {
	var out []string
	keys := make([]string, 0, len(loser.Fields))
	for k := range loser.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, field := range keys {
		wv, ok := winner.Fields[field]
		if !ok || !ir.Equal(wv, loser.Fields[field]) {
			out = append(out, field)
		}
	}
	return out
}
