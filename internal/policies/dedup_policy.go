package policies

import (
	"fmt"

	"toolpin/internal/ports"
	"toolpin/internal/types"
)

// LaterWinsPolicy merges duplicate plan entries by document order: when
// two entries share the same concrete path and target subdirectory, the
// later definition replaces the earlier one. Overwrites are reported, not
// fatal.
type LaterWinsPolicy struct{}

func NewLaterWinsPolicy() LaterWinsPolicy {
	return LaterWinsPolicy{}
}

func (LaterWinsPolicy) Merge(entries []types.PlanEntry) ([]types.PlanEntry, []types.OverwriteRecord) {
	seen := map[string]int{}
	var records []types.OverwriteRecord
	merged := make([]types.PlanEntry, 0, len(entries))
	for _, entry := range entries {
		key := dedupKey(entry)
		if prev, ok := seen[key]; ok {
			records = append(records, types.OverwriteRecord{
				ConcretePath: entry.Package.ConcretePath,
				TargetSubdir: entry.TargetSubdir,
				KeptLine:     entry.SourceLine,
				DroppedLine:  merged[prev].SourceLine,
			})
			merged[prev] = entry
			continue
		}
		seen[key] = len(merged)
		merged = append(merged, entry)
	}
	return merged, records
}

func dedupKey(entry types.PlanEntry) string {
	return fmt.Sprintf("%s\x00%s", entry.Package.ConcretePath, entry.TargetSubdir)
}

var _ ports.ConflictPolicyPort = LaterWinsPolicy{}
