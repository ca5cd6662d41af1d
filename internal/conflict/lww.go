package conflict

import (
	"fmt"
	"strings"
)

// LWW resolves by picking the version with the later wall-clock
// timestamp. It always claims a conflict, so register it only when
// losing the older version's changes is acceptable. Resolutions flag
// SilentDataLossRisk whenever the losing side carried field values the
// winner does not.
//
// Tie-breaking: equal timestamps go to version A.
type LWW struct{}

// NewLWW builds the last-write-wins provider.
func NewLWW() *LWW { return &LWW{} }

func (l *LWW) Name() string { return "lww_timestamp" }

func (l *LWW) CanAutoResolve(_ *Conflict) bool { return true }

func (l *LWW) Resolve(c *Conflict) (Resolution, error) {
	winner, winVer, loseVer := WinnerA, c.VersionA, c.VersionB
	if c.VersionB.Timestamp > c.VersionA.Timestamp {
		winner, winVer, loseVer = WinnerB, c.VersionB, c.VersionA
	}
	margin := winVer.Timestamp - loseVer.Timestamp

	var details strings.Builder
	if margin > 0 {
		fmt.Fprintf(&details, "selected version %s (timestamp delta %dms)", winner, margin)
	} else {
		fmt.Fprintf(&details, "timestamps equal (%d); tie broken toward version a", winVer.Timestamp)
	}

	lost := lostFields(winVer, loseVer)
	if len(lost) > 0 {
		replica := loseVer.ReplicaID
		if replica == "" {
			replica = "unknown"
		}
		fmt.Fprintf(&details, "; silent data loss on %d field(s) [%s] from replica %q",
			len(lost), strings.Join(lost, ", "), replica)
	}

	return Resolution{
		Winner:             winner,
		MergedFields:       winVer.Fields.Clone(),
		Strategy:           l.Name(),
		Details:            details.String(),
		AutoResolved:       true,
		MarginMillis:       margin,
		SilentDataLossRisk: len(lost) > 0,
	}, nil
}
