package conflict

import "fmt"

// Manual never auto-resolves. It exists as the explicit terminal
// provider: its Resolve summarizes the conflict for the escalation
// queue, preserving both versions untouched.
type Manual struct{}

// NewManual builds the manual-queue provider.
func NewManual() *Manual { return &Manual{} }

func (m *Manual) Name() string { return "manual_queue" }

func (m *Manual) CanAutoResolve(_ *Conflict) bool { return false }

func (m *Manual) Resolve(c *Conflict) (Resolution, error) {
	var unresolved []FieldConflict
	for _, field := range c.FieldConflicts() {
		fc := FieldConflict{
			Field:  field,
			ValueA: c.VersionA.Fields[field],
			ValueB: c.VersionB.Fields[field],
		}
		if c.Ancestor != nil {
			fc.Ancestor = c.Ancestor.Fields[field]
		}
		unresolved = append(unresolved, fc)
	}

	return Resolution{
		Winner:       WinnerManual,
		Strategy:     m.Name(),
		Details:      fmt.Sprintf("queued for human review: %d conflicting field(s)", len(unresolved)),
		AutoResolved: false,
		Unresolved:   unresolved,
	}, nil
}
