package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVersionsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resolved.versions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadVersionsFileLookup(t *testing.T) {
	path := writeVersionsFile(t, `
- package: infra/tools/x/linux-amd64
  version: v1
  instance_id: aabbcc
  digest: ddeeff
- package: gn/gn/linux-amd64
  version: v2
  instance_id: "112233"
`)
	cache, err := LoadVersionsFile(path)
	require.NoError(t, err)

	instance, ok := cache.Lookup("infra/tools/x/linux-amd64", "v1")
	require.True(t, ok)
	assert.Equal(t, "aabbcc", instance.InstanceID)
	assert.Equal(t, "ddeeff", instance.Digest)

	// Without an explicit digest the instance id doubles as the digest.
	instance, ok = cache.Lookup("gn/gn/linux-amd64", "v2")
	require.True(t, ok)
	assert.Equal(t, "112233", instance.Digest)

	_, ok = cache.Lookup("infra/tools/x/linux-amd64", "v9")
	assert.False(t, ok)
}

func TestLoadVersionsFileMissing(t *testing.T) {
	_, err := LoadVersionsFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestLoadVersionsFileRejectsIncompleteEntries(t *testing.T) {
	path := writeVersionsFile(t, "- package: infra/tools/x\n  version: v1\n")
	_, err := LoadVersionsFile(path)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestLoadVersionsFileRejectsBadYAML(t *testing.T) {
	path := writeVersionsFile(t, "not: [valid")
	_, err := LoadVersionsFile(path)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
