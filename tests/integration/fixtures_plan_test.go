package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolpin/internal/adapters"
	"toolpin/internal/app"
	"toolpin/internal/core"
	"toolpin/internal/policies"
	"toolpin/internal/types"
	"toolpin/tests/testutil"
)

// TestFixturesManifestPlan exercises the full parse -> validate -> plan
// pipeline against the checked-in fixture manifest, including the nested
// manifest inclusion under @Subdir.
func TestFixturesManifestPlan(t *testing.T) {
	repoRoot := testutil.RepoRoot(t)
	manifestPath := filepath.Join(repoRoot, "fixtures", "cipd_manifest.txt")
	text, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	parser := core.NewManifestParser()
	manifest, err := parser.Parse(string(text))
	require.NoError(t, err)
	require.NoError(t, parser.Validate(t.Context(), manifest))

	assert.Equal(t, "resolved.versions.yaml", manifest.ResolvedVersionsPath())
	assert.Len(t, manifest.VerifiedPlatforms(), 4)

	planner := core.NewPlanner(
		adapters.NewManifestFileAdapter(filepath.Dir(manifestPath)),
		policies.NewLaterWinsPolicy(),
	)
	result, err := planner.Plan(t.Context(), manifest, types.PlatformSpec{OS: "linux", Arch: "amd64"})
	require.NoError(t, err)
	require.Empty(t, result.SkippedUnsupported)
	require.Empty(t, result.Overwrites)

	got := map[string]string{}
	for _, entry := range result.Plan.Entries {
		got[entry.Package.ConcretePath] = entry.TargetSubdir
	}
	expected := map[string]string{
		"infra/tools/probe/linux-amd64":    "",
		"infra/tools/buildgen/linux-amd64": "",
		"infra/rbe/reclient/linux-amd64":   "reclient",
		"infra/tools/authcli/linux-amd64":  "",
		"gn/gn/linux-amd64":                "nested",
		"ninja/ninja/linux-amd64":          "nested",
	}
	assert.Equal(t, expected, got)

	for _, entry := range result.Plan.Entries {
		assert.Equal(t, types.SupportLevelVerified, entry.Package.SupportLevel, entry.Package.ConcretePath)
	}
}

// TestFixturesPlanBestEffortAndSkips checks the same manifest against the
// two remaining declared platform shapes: linux-arm64 is declared
// best-effort, and windows-amd64 drops the os-alternation entry.
func TestFixturesPlanBestEffortAndSkips(t *testing.T) {
	repoRoot := testutil.RepoRoot(t)
	manifestPath := filepath.Join(repoRoot, "fixtures", "cipd_manifest.txt")
	text, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	manifest, err := core.NewManifestParser().Parse(string(text))
	require.NoError(t, err)
	planner := core.NewPlanner(
		adapters.NewManifestFileAdapter(filepath.Dir(manifestPath)),
		policies.NewLaterWinsPolicy(),
	)

	arm, err := planner.Plan(t.Context(), manifest, types.PlatformSpec{OS: "linux", Arch: "arm64"})
	require.NoError(t, err)
	require.NotEmpty(t, arm.Plan.Entries)
	for _, entry := range arm.Plan.Entries {
		assert.Equal(t, types.SupportLevelBestEffort, entry.Package.SupportLevel, entry.Package.ConcretePath)
	}

	windows, err := planner.Plan(t.Context(), manifest, types.PlatformSpec{OS: "windows", Arch: "amd64"})
	require.NoError(t, err)
	require.Len(t, windows.SkippedUnsupported, 1)
	assert.Equal(t, "infra/tools/buildgen/${os=linux,mac}-${arch=amd64}", windows.SkippedUnsupported[0].PathTemplate)
}

// TestFixturesVersionsCache loads the checked-in resolved-versions side
// file and verifies the pin declared in the fixture manifest hits it.
func TestFixturesVersionsCache(t *testing.T) {
	repoRoot := testutil.RepoRoot(t)
	cache, err := adapters.LoadVersionsFile(filepath.Join(repoRoot, "fixtures", "resolved.versions.yaml"))
	require.NoError(t, err)

	info, ok := cache.Lookup("infra/tools/authcli/linux-amd64", "git_revision:0a1b2c3d4e")
	require.True(t, ok)
	assert.Equal(t, "4d967ccb4e1073b23e881d53b5530bcd1dd0b2a2f0f370b2c1433b72b0a63a51", info.InstanceID)

	_, ok = cache.Lookup("infra/tools/authcli/linux-amd64", "latest")
	assert.False(t, ok)
}

// TestValidateFixtureManifests runs the validate operation over every
// fixture manifest to keep the fixtures loadable.
func TestValidateFixtureManifests(t *testing.T) {
	repoRoot := testutil.RepoRoot(t)
	service := app.NewService()

	result, err := service.Validate(t.Context(), app.ValidateRequest{
		ManifestPath: filepath.Join(repoRoot, "fixtures", "cipd_manifest.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Entries)
	assert.Equal(t, 4, result.Platforms)

	result, err = service.Validate(t.Context(), app.ValidateRequest{
		ManifestPath: filepath.Join(repoRoot, "fixtures", "nested", "tools.manifest"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Entries)
}
