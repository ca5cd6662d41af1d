package conflict

import (
	"fmt"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// FieldMerge compares versions field by field against the ancestor.
// Fields changed by only one side merge automatically; fields both
// sides changed to different values are true conflicts, which make the
// provider decline. Without an ancestor every disagreement is a true
// conflict.
type FieldMerge struct{}

// NewFieldMerge builds the per-field merge provider.
func NewFieldMerge() *FieldMerge { return &FieldMerge{} }

func (f *FieldMerge) Name() string { return "field_merge" }

type fieldAnalysis struct {
	changedOnlyByA []string
	changedOnlyByB []string
	trueConflicts  []FieldConflict
	unchanged      int
}

func analyzeFields(c *Conflict) fieldAnalysis {
	var out fieldAnalysis
	hasAncestor := c.Ancestor != nil

	for _, field := range allFieldKeys(c) {
		valA, okA := c.VersionA.Fields[field]
		valB, okB := c.VersionB.Fields[field]
		var valAnc ir.Value
		var okAnc bool
		if hasAncestor {
			valAnc, okAnc = c.Ancestor.Fields[field]
		}

		if okA == okB && (!okA || ir.Equal(valA, valB)) {
			out.unchanged++
			continue
		}

		if !hasAncestor {
			out.trueConflicts = append(out.trueConflicts, FieldConflict{
				Field: field, ValueA: valA, ValueB: valB,
			})
			continue
		}

		aChanged := okA != okAnc || (okA && !ir.Equal(valA, valAnc))
		bChanged := okB != okAnc || (okB && !ir.Equal(valB, valAnc))

		switch {
		case aChanged && !bChanged:
			out.changedOnlyByA = append(out.changedOnlyByA, field)
		case !aChanged && bChanged:
			out.changedOnlyByB = append(out.changedOnlyByB, field)
		case aChanged && bChanged:
			out.trueConflicts = append(out.trueConflicts, FieldConflict{
				Field: field, ValueA: valA, ValueB: valB, Ancestor: valAnc,
			})
		default:
			out.unchanged++
		}
	}
	return out
}

func (f *FieldMerge) CanAutoResolve(c *Conflict) bool {
	return len(analyzeFields(c).trueConflicts) == 0
}

func (f *FieldMerge) Resolve(c *Conflict) (Resolution, error) {
	analysis := analyzeFields(c)

	var merged ir.Object
	if c.Ancestor != nil {
		merged = c.Ancestor.Fields.Clone()
	} else {
		merged = c.VersionA.Fields.Clone()
	}

	applySide := func(fields []string, version VersionData) {
		for _, field := range fields {
			if v, ok := version.Fields[field]; ok {
				merged[field] = v
			} else {
				delete(merged, field)
			}
		}
	}
	applySide(analysis.changedOnlyByA, c.VersionA)
	applySide(analysis.changedOnlyByB, c.VersionB)

	// True conflicts default to version A but stay flagged.
	for _, fc := range analysis.trueConflicts {
		if fc.ValueA != nil {
			merged[fc.Field] = fc.ValueA
		}
	}

	autoResolved := len(analysis.trueConflicts) == 0
	details := fmt.Sprintf("merged %d field(s) from a, %d from b, %d unchanged",
		len(analysis.changedOnlyByA), len(analysis.changedOnlyByB), analysis.unchanged)
	if !autoResolved {
		details += fmt.Sprintf("; %d true conflict(s) defaulted to version a", len(analysis.trueConflicts))
	}

	return Resolution{
		Winner:       WinnerMerged,
		MergedFields: merged,
		Strategy:     f.Name(),
		Details:      details,
		AutoResolved: autoResolved,
		Unresolved:   analysis.trueConflicts,
	}, nil
}
