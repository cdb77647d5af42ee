package core

import (
	"context"
	"fmt"
	"path"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"toolpin/internal/types"
)

// ManifestParser turns manifest text into an ordered item list. Parsing is
// a pure function of the input text; it never touches the filesystem.
type ManifestParser struct{}

func NewManifestParser() ManifestParser {
	return ManifestParser{}
}

const bestEffortSuffix = "(best-effort)"

func (p ManifestParser) Parse(text string) (types.Manifest, error) {
	manifest := types.Manifest{}
	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "$"):
			directive, err := parseDollarDirective(line, lineNo)
			if err != nil {
				return types.Manifest{}, err
			}
			manifest.Items = append(manifest.Items, types.Item{Directive: &directive})
		case strings.HasPrefix(line, "@"):
			directive, err := parseAtDirective(line, lineNo)
			if err != nil {
				return types.Manifest{}, err
			}
			manifest.Items = append(manifest.Items, types.Item{Directive: &directive})
		default:
			entry, err := parseEntry(line, lineNo)
			if err != nil {
				return types.Manifest{}, err
			}
			manifest.Items = append(manifest.Items, types.Item{Entry: &entry})
		}
	}
	return manifest, nil
}

// Validate applies structural checks beyond the line grammar: directive
// arguments must be sane relative paths and platform declarations must
// parse as os-arch pairs.
func (p ManifestParser) Validate(ctx context.Context, manifest types.Manifest) error {
	for _, item := range manifest.Items {
		if item.Entry != nil {
			assert.NotEmpty(ctx, item.Entry.PathTemplate, "entry path template must be set")
			assert.NotEmpty(ctx, item.Entry.VersionPin, "entry version pin must be set")
			if _, err := ParseTemplate(item.Entry.PathTemplate); err != nil {
				return err
			}
			continue
		}
		directive := item.Directive
		switch directive.Kind {
		case types.DirectiveSubdir:
			if directive.Value != "" {
				if err := validateRelPath(directive.Value, directive.SourceLine); err != nil {
					return err
				}
			}
		case types.DirectiveResolvedVersions:
			if err := validateRelPath(directive.Value, directive.SourceLine); err != nil {
				return err
			}
		case types.DirectiveVerifiedPlatform:
			if len(directive.Platforms) == 0 {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("line %d: $VerifiedPlatform requires at least one os-arch pair", directive.SourceLine))
			}
		}
	}
	log.Ctx(ctx).Debug().Int("items", len(manifest.Items)).Msg("manifest validated")
	return nil
}

func parseEntry(line string, lineNo int) (types.ManifestEntry, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return types.ManifestEntry{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("malformed line %d: expected '<package-template> <version-pin>', got %d fields", lineNo, len(fields)))
	}
	return types.ManifestEntry{
		PathTemplate: fields[0],
		VersionPin:   fields[1],
		SourceLine:   lineNo,
	}, nil
}

func parseDollarDirective(line string, lineNo int) (types.Directive, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "$ResolvedVersions":
		if len(fields) != 2 {
			return types.Directive{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("malformed line %d: $ResolvedVersions takes exactly one path", lineNo))
		}
		return types.Directive{
			Kind:       types.DirectiveResolvedVersions,
			Value:      fields[1],
			SourceLine: lineNo,
		}, nil
	case "$VerifiedPlatform":
		if len(fields) < 2 {
			return types.Directive{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("malformed line %d: $VerifiedPlatform requires at least one os-arch pair", lineNo))
		}
		decls := make([]types.PlatformDecl, 0, len(fields)-1)
		for _, token := range fields[1:] {
			decl, err := parsePlatformDecl(token, lineNo)
			if err != nil {
				return types.Directive{}, err
			}
			decls = append(decls, decl)
		}
		return types.Directive{
			Kind:       types.DirectiveVerifiedPlatform,
			Platforms:  decls,
			SourceLine: lineNo,
		}, nil
	default:
		return types.Directive{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown directive on line %d: %s", lineNo, fields[0]))
	}
}

func parseAtDirective(line string, lineNo int) (types.Directive, error) {
	fields := strings.Fields(line)
	if fields[0] != "@Subdir" {
		return types.Directive{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown directive on line %d: %s", lineNo, fields[0]))
	}
	switch len(fields) {
	case 1:
		// Bare @Subdir resets the cursor back to the manifest root.
		return types.Directive{Kind: types.DirectiveSubdir, SourceLine: lineNo}, nil
	case 2:
		return types.Directive{
			Kind:       types.DirectiveSubdir,
			Value:      fields[1],
			SourceLine: lineNo,
		}, nil
	default:
		return types.Directive{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("malformed line %d: @Subdir takes at most one path", lineNo))
	}
}

func parsePlatformDecl(token string, lineNo int) (types.PlatformDecl, error) {
	level := types.SupportLevelVerified
	if strings.HasSuffix(token, bestEffortSuffix) {
		level = types.SupportLevelBestEffort
		token = strings.TrimSuffix(token, bestEffortSuffix)
	}
	parts := strings.SplitN(token, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return types.PlatformDecl{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("malformed line %d: invalid platform %q, expected os-arch", lineNo, token))
	}
	return types.PlatformDecl{
		Platform: types.PlatformSpec{OS: parts[0], Arch: parts[1]},
		Level:    level,
	}, nil
}

func validateRelPath(value string, lineNo int) error {
	cleaned := path.Clean(value)
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("line %d: path must stay inside the manifest root: %s", lineNo, value))
	}
	return nil
}
