package types

import "time"

// InstallRecord is the outcome for one manifest entry. Error carries the
// failure or skip reason; skipped entries keep their unexpanded template
// as Package since no concrete path exists for the target.
type InstallRecord struct {
	Package      string       `yaml:"package"`
	Version      string       `yaml:"version"`
	Subdir       string       `yaml:"subdir,omitempty"`
	InstanceID   string       `yaml:"instance_id,omitempty"`
	Status       EntryStatus  `yaml:"status"`
	SupportLevel SupportLevel `yaml:"support_level,omitempty"`
	Error        string       `yaml:"error,omitempty"`
}

// InstallReport aggregates per-entry outcomes for one executed plan,
// including entries dropped before planning because the target platform
// was not declared for them.
type InstallReport struct {
	Platform    string          `yaml:"platform"`
	GeneratedAt time.Time       `yaml:"generated_at"`
	Installed   int             `yaml:"installed"`
	Cached      int             `yaml:"cached"`
	Failed      int             `yaml:"failed"`
	Skipped     int             `yaml:"skipped"`
	BestEffort  int             `yaml:"best_effort"`
	Records     []InstallRecord `yaml:"records"`
}

// ResolvedVersionEntry maps one package pin to the exact backend instance
// it resolved to, as stored in a resolved-versions side file.
type ResolvedVersionEntry struct {
	Package    string `yaml:"package"`
	Version    string `yaml:"version"`
	InstanceID string `yaml:"instance_id"`
	Digest     string `yaml:"digest,omitempty"`
}
