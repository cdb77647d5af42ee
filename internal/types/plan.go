package types

// ResolvedPackage is a manifest entry after platform expansion: a concrete
// backend path plus its pin, tagged with the support level of the target
// platform it was expanded for.
type ResolvedPackage struct {
	ConcretePath string
	Version      string
	SupportLevel SupportLevel
}

// PlanEntry binds a resolved package to the subdirectory it installs into,
// relative to the install root. An empty TargetSubdir means the root.
type PlanEntry struct {
	Package      ResolvedPackage
	TargetSubdir string
	SourceLine   int
}

// InstallPlan is the fully resolved, platform-specific install sequence.
// Order is document order with nested manifests spliced at their
// inclusion point; each (ConcretePath, TargetSubdir) appears once.
type InstallPlan struct {
	Platform PlatformSpec
	Entries  []PlanEntry
}

// InstanceInfo identifies the exact backend instance a pin resolved to.
// Digest is the hex SHA-256 of the package content.
type InstanceInfo struct {
	InstanceID string
	Digest     string
}

// OverwriteRecord notes a plan entry that was replaced by a later entry
// with the same concrete path and target subdirectory.
type OverwriteRecord struct {
	ConcretePath string
	TargetSubdir string
	KeptLine     int
	DroppedLine  int
}
