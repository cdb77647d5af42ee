package policies

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolpin/internal/types"
)

func entry(path string, version string, subdir string, line int) types.PlanEntry {
	return types.PlanEntry{
		Package: types.ResolvedPackage{
			ConcretePath: path,
			Version:      version,
			SupportLevel: types.SupportLevelVerified,
		},
		TargetSubdir: subdir,
		SourceLine:   line,
	}
}

func TestMergeLaterWins(t *testing.T) {
	policy := NewLaterWinsPolicy()
	merged, records := policy.Merge([]types.PlanEntry{
		entry("infra/tools/x", "v1", "", 2),
		entry("infra/tools/y", "v1", "", 3),
		entry("infra/tools/x", "v2", "", 4),
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "v2", merged[0].Package.Version)
	assert.Equal(t, "infra/tools/y", merged[1].Package.ConcretePath)

	require.Len(t, records, 1)
	if diff := cmp.Diff(types.OverwriteRecord{
		ConcretePath: "infra/tools/x",
		TargetSubdir: "",
		KeptLine:     4,
		DroppedLine:  2,
	}, records[0]); diff != "" {
		t.Fatalf("unexpected overwrite record (-want +got):\n%s", diff)
	}
}

func TestMergeDistinguishesSubdirs(t *testing.T) {
	policy := NewLaterWinsPolicy()
	merged, records := policy.Merge([]types.PlanEntry{
		entry("infra/tools/x", "v1", "", 2),
		entry("infra/tools/x", "v2", "alt", 3),
	})
	assert.Len(t, merged, 2)
	assert.Empty(t, records)
}

func TestMergeEmptyInput(t *testing.T) {
	policy := NewLaterWinsPolicy()
	merged, records := policy.Merge(nil)
	assert.Empty(t, merged)
	assert.Empty(t, records)
}
