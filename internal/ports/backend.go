package ports

import (
	"context"
	"io"

	"toolpin/internal/types"
)

// BackendPort is the package backend the engine resolves and fetches
// against. Implementations are shared read-only across workers.
type BackendPort interface {
	// ResolveInstance maps a package path and version pin to the exact
	// instance that pin points at.
	ResolveInstance(ctx context.Context, packagePath string, versionPin string) (types.InstanceInfo, error)

	// Fetch streams the content of an instance. The caller closes the
	// returned reader.
	Fetch(ctx context.Context, instanceID string) (io.ReadCloser, error)
}
