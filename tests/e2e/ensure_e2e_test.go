package e2e

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolpin/tests/testutil"
)

func TestResolveCommandE2E(t *testing.T) {
	root := testutil.RepoRoot(t)
	outDir := t.TempDir()

	cmd := exec.Command("go", "run", "./cmd/toolpin", "resolve",
		"--manifest", "fixtures/cipd_manifest.txt",
		"--os", "linux",
		"--arch", "amd64",
		"--output", outDir,
	)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "GO111MODULE=on")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	require.FileExists(t, filepath.Join(outDir, "install.plan"))
	plan, err := os.ReadFile(filepath.Join(outDir, "install.plan"))
	require.NoError(t, err)
	assert.Contains(t, string(plan), "infra/rbe/reclient/linux-amd64 re_client_version:0.118.0 subdir=reclient")
	assert.Contains(t, string(out), "resolved: 6 entries, 0 skipped for linux-amd64")
}

func TestEnsureCommandE2E(t *testing.T) {
	repoRoot := testutil.RepoRoot(t)
	dir := t.TempDir()

	content := []byte("gizmo-binary-bytes")
	digest := sha256Hex(content)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/instances/"):
			_ = json.NewEncoder(w).Encode(map[string]string{
				"instance_id": digest,
				"digest":      digest,
			})
		case r.URL.Path == "/blobs/"+digest:
			_, _ = w.Write(content)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	manifestPath := filepath.Join(dir, "tools.txt")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`$VerifiedPlatform linux-amd64
infra/tools/gizmo/${platform} v1
`), 0644))
	installRoot := filepath.Join(dir, "root")

	cmd := exec.Command("go", "run", "./cmd/toolpin", "ensure",
		"--manifest", manifestPath,
		"--os", "linux",
		"--arch", "amd64",
		"--root", installRoot,
		"--backend-url", server.URL,
	)
	cmd.Dir = repoRoot
	cmd.Env = append(os.Environ(), "GO111MODULE=on")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	assert.Contains(t, string(out), "ensured: 1 installed, 0 cached, 0 failed, 0 skipped")

	installed, err := os.ReadFile(filepath.Join(installRoot, "infra", "tools", "gizmo", "linux-amd64"))
	require.NoError(t, err)
	assert.Equal(t, content, installed)
	require.FileExists(t, filepath.Join(installRoot, "install.report.yaml"))
}

func TestValidateCommandRejectsMalformedE2E(t *testing.T) {
	repoRoot := testutil.RepoRoot(t)
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(manifestPath, []byte("infra/tools/x v1 extra\n"), 0644))

	// Build the binary and exec it directly: `go run` exits 1 regardless of
	// the child's exit code, which would mask the code under test.
	binPath := filepath.Join(dir, "toolpin")
	buildCmd := exec.Command("go", "build", "-o", binPath, "./cmd/toolpin")
	buildCmd.Dir = repoRoot
	buildOut, err := buildCmd.CombinedOutput()
	require.NoError(t, err, string(buildOut))

	cmd := exec.Command(binPath, "validate", "--manifest", manifestPath)
	cmd.Dir = repoRoot
	out, err := cmd.CombinedOutput()
	require.Error(t, err, string(out))

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
