package adapters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"toolpin/internal/ports"
)

// ManifestFileAdapter loads manifest text from disk. Nested manifest
// references resolve relative to Root, the directory of the top-level
// manifest.
type ManifestFileAdapter struct {
	Root string
}

func NewManifestFileAdapter(root string) ManifestFileAdapter {
	return ManifestFileAdapter{Root: root}
}

func (a ManifestFileAdapter) LoadManifest(ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest reference is empty")
	}
	path := filepath.Join(a.Root, filepath.FromSlash(ref))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("manifest file not found: " + ref).
			WithCause(err)
	}
	return string(data), nil
}

// IsManifestRef treats @Subdir values ending in .manifest as nested
// manifest includes; anything else is a plain subdirectory.
func (a ManifestFileAdapter) IsManifestRef(ref string) bool {
	return strings.HasSuffix(ref, ".manifest")
}

var _ ports.ManifestSourcePort = ManifestFileAdapter{}
