package conflict

import (
	"fmt"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// ThreeWay diffs both versions against the common ancestor and merges
// non-overlapping changes, including deletions. It claims a conflict
// only when an ancestor exists and no field was changed by both sides
// to different values. Without an ancestor it degrades to a union
// merge with version A winning disagreements.
type ThreeWay struct{}

// NewThreeWay builds the three-way merge provider.
func NewThreeWay() *ThreeWay { return &ThreeWay{} }

func (t *ThreeWay) Name() string { return "three_way_merge" }

// fieldDelta is one field's change relative to the ancestor. A nil
// Value with Deleted true records a removal.
type fieldDelta struct {
	Value   ir.Value
	Deleted bool
}

func diffVersion(base, modified ir.Object) map[string]fieldDelta {
	out := map[string]fieldDelta{}
	for field, bv := range base {
		mv, ok := modified[field]
		if !ok {
			out[field] = fieldDelta{Deleted: true}
		} else if !ir.Equal(bv, mv) {
			out[field] = fieldDelta{Value: mv}
		}
	}
	for field, mv := range modified {
		if _, ok := base[field]; !ok {
			out[field] = fieldDelta{Value: mv}
		}
	}
	return out
}

// overlapping lists fields both diffs touched with differing results.
func overlapping(diffA, diffB map[string]fieldDelta) []string {
	var out []string
	for field, da := range diffA {
		db, ok := diffB[field]
		if !ok {
			continue
		}
		if da.Deleted != db.Deleted || (!da.Deleted && !ir.Equal(da.Value, db.Value)) {
			out = append(out, field)
		}
	}
	return out
}

func (t *ThreeWay) CanAutoResolve(c *Conflict) bool {
	if c.Ancestor == nil {
		return false
	}
	diffA := diffVersion(c.Ancestor.Fields, c.VersionA.Fields)
	diffB := diffVersion(c.Ancestor.Fields, c.VersionB.Fields)
	return len(overlapping(diffA, diffB)) == 0
}

func (t *ThreeWay) Resolve(c *Conflict) (Resolution, error) {
	if c.Ancestor == nil {
		return t.resolveWithoutAncestor(c), nil
	}

	diffA := diffVersion(c.Ancestor.Fields, c.VersionA.Fields)
	diffB := diffVersion(c.Ancestor.Fields, c.VersionB.Fields)
	conflicted := map[string]bool{}
	for _, field := range overlapping(diffA, diffB) {
		conflicted[field] = true
	}

	merged := c.Ancestor.Fields.Clone()
	apply := func(diff map[string]fieldDelta) {
		for field, d := range diff {
			if conflicted[field] {
				continue
			}
			if d.Deleted {
				delete(merged, field)
			} else {
				merged[field] = d.Value
			}
		}
	}
	apply(diffA)
	apply(diffB)

	// Overlapping changes default to version A but stay flagged.
	var unresolved []FieldConflict
	for _, field := range allFieldKeys(c) {
		if !conflicted[field] {
			continue
		}
		if v, ok := c.VersionA.Fields[field]; ok {
			merged[field] = v
		} else {
			delete(merged, field)
		}
		unresolved = append(unresolved, FieldConflict{
			Field:    field,
			ValueA:   c.VersionA.Fields[field],
			ValueB:   c.VersionB.Fields[field],
			Ancestor: c.Ancestor.Fields[field],
		})
	}

	autoResolved := len(unresolved) == 0
	details := fmt.Sprintf("three-way merge against ancestor: %d change(s) from a, %d from b",
		len(diffA), len(diffB))
	if !autoResolved {
		details += fmt.Sprintf("; %d overlapping conflict(s) defaulted to version a", len(unresolved))
	}

	return Resolution{
		Winner:       WinnerMerged,
		MergedFields: merged,
		Strategy:     t.Name(),
		Details:      details,
		AutoResolved: autoResolved,
		Unresolved:   unresolved,
	}, nil
}

func (t *ThreeWay) resolveWithoutAncestor(c *Conflict) Resolution {
	merged := ir.Object{}
	var unresolved []FieldConflict

	for _, field := range allFieldKeys(c) {
		valA, okA := c.VersionA.Fields[field]
		valB, okB := c.VersionB.Fields[field]
		switch {
		case okA && okB && ir.Equal(valA, valB):
			merged[field] = valA
		case okA && !okB:
			merged[field] = valA
		case !okA && okB:
			merged[field] = valB
		default:
			merged[field] = valA
			unresolved = append(unresolved, FieldConflict{Field: field, ValueA: valA, ValueB: valB})
		}
	}

	return Resolution{
		Winner:       WinnerMerged,
		MergedFields: merged,
		Strategy:     t.Name(),
		Details:      fmt.Sprintf("degraded merge without ancestor: %d unresolved conflict(s)", len(unresolved)),
		AutoResolved: len(unresolved) == 0,
		Unresolved:   unresolved,
	}
}
