package ports

import "toolpin/internal/types"

// VersionsCachePort is the read-only resolved-versions side file. A hit
// lets the engine skip the backend resolve call for that pin.
type VersionsCachePort interface {
	Lookup(packagePath string, versionPin string) (types.InstanceInfo, bool)
}
