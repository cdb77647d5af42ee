package types

// ManifestEntry is a single package line from a manifest: a path template
// that may contain platform tokens, plus an exact version pin. Pins are
// opaque backend identifiers and are only ever compared for equality.
type ManifestEntry struct {
	PathTemplate string
	VersionPin   string
	SourceLine   int
}

// Directive is a non-package manifest line ($ResolvedVersions,
// $VerifiedPlatform, @Subdir). Directives take effect in document order.
type Directive struct {
	Kind       DirectiveKind
	Value      string
	Platforms  []PlatformDecl
	SourceLine int
}

// PlatformDecl is one os-arch token from a $VerifiedPlatform line,
// optionally tagged best-effort.
type PlatformDecl struct {
	Platform PlatformSpec
	Level    SupportLevel
}

// Item is one parsed manifest line in document order. Exactly one of
// Entry or Directive is set.
type Item struct {
	Entry     *ManifestEntry
	Directive *Directive
}

// Manifest is the parse result for one manifest file.
type Manifest struct {
	Items []Item
}

// Entries returns the package entries of the manifest in document order.
func (m Manifest) Entries() []ManifestEntry {
	var out []ManifestEntry
	for _, item := range m.Items {
		if item.Entry != nil {
			out = append(out, *item.Entry)
		}
	}
	return out
}

// ResolvedVersionsPath returns the side-file path declared by the last
// $ResolvedVersions directive, or "" when the manifest declares none.
func (m Manifest) ResolvedVersionsPath() string {
	path := ""
	for _, item := range m.Items {
		if item.Directive != nil && item.Directive.Kind == DirectiveResolvedVersions {
			path = item.Directive.Value
		}
	}
	return path
}

// VerifiedPlatforms returns all platform declarations accumulated across
// the manifest's $VerifiedPlatform directives.
func (m Manifest) VerifiedPlatforms() []PlatformDecl {
	var out []PlatformDecl
	for _, item := range m.Items {
		if item.Directive != nil && item.Directive.Kind == DirectiveVerifiedPlatform {
			out = append(out, item.Directive.Platforms...)
		}
	}
	return out
}
