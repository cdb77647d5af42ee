package ports

// ManifestSourcePort loads manifest text for the planner, including
// nested manifests referenced by @Subdir directives.
type ManifestSourcePort interface {
	// LoadManifest returns the raw text of a manifest file. ref is
	// interpreted relative to the loader's root.
	LoadManifest(ref string) (string, error)

	// IsManifestRef reports whether a @Subdir value names a nested
	// manifest file rather than a plain subdirectory.
	IsManifestRef(ref string) bool
}
