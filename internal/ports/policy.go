package ports

import "toolpin/internal/types"

// ConflictPolicyPort decides how duplicate plan entries are merged.
type ConflictPolicyPort interface {
	// Merge deduplicates entries sharing (ConcretePath, TargetSubdir) and
	// returns the surviving entries in document order plus a record for
	// every entry that was dropped.
	Merge(entries []types.PlanEntry) ([]types.PlanEntry, []types.OverwriteRecord)
}
