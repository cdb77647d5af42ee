package types

type DirectiveKind string

const (
	DirectiveResolvedVersions DirectiveKind = "resolved-versions"
	DirectiveVerifiedPlatform DirectiveKind = "verified-platform"
	DirectiveSubdir           DirectiveKind = "subdir"
)

type SupportLevel string

const (
	SupportLevelVerified   SupportLevel = "verified"
	SupportLevelBestEffort SupportLevel = "best-effort"
)

type EntryStatus string

const (
	EntryStatusInstalled EntryStatus = "installed"
	EntryStatusCached    EntryStatus = "cached"
	EntryStatusFailed    EntryStatus = "failed"
	EntryStatusSkipped   EntryStatus = "skipped"
)
