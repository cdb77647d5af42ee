package adapters

import (
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"toolpin/internal/ports"
	"toolpin/internal/types"
)

// VersionsFileAdapter serves instance lookups from a resolved-versions
// side file so the engine can skip backend resolve calls for pins the
// file already covers. The file is read once and never written.
type VersionsFileAdapter struct {
	entries map[string]types.InstanceInfo
}

func LoadVersionsFile(path string) (VersionsFileAdapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VersionsFileAdapter{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("resolved versions file not found").
			WithCause(err)
	}
	var entries []types.ResolvedVersionEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return VersionsFileAdapter{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse resolved versions file").
			WithCause(err)
	}
	mapped := make(map[string]types.InstanceInfo, len(entries))
	for _, entry := range entries {
		if entry.Package == "" || entry.Version == "" || entry.InstanceID == "" {
			return VersionsFileAdapter{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("resolved versions entries require package, version, and instance_id")
		}
		digest := entry.Digest
		if digest == "" {
			// Instance ids are content digests, so older files that
			// omit the digest field still allow verification.
			digest = entry.InstanceID
		}
		mapped[versionsKey(entry.Package, entry.Version)] = types.InstanceInfo{
			InstanceID: entry.InstanceID,
			Digest:     digest,
		}
	}
	return VersionsFileAdapter{entries: mapped}, nil
}

func (a VersionsFileAdapter) Lookup(packagePath string, versionPin string) (types.InstanceInfo, bool) {
	instance, ok := a.entries[versionsKey(packagePath, versionPin)]
	return instance, ok
}

func versionsKey(packagePath string, versionPin string) string {
	return fmt.Sprintf("%s@%s", packagePath, versionPin)
}

var _ ports.VersionsCachePort = VersionsFileAdapter{}
