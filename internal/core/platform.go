package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"toolpin/internal/types"
)

// PlatformMatcher holds the accumulated $VerifiedPlatform declarations and
// answers membership and expansion queries for one target platform.
//
// A manifest without any declarations performs no filtering: every entry
// expands and installs at the verified support level.
type PlatformMatcher struct {
	declared []types.PlatformDecl
}

func NewPlatformMatcher(declared []types.PlatformDecl) PlatformMatcher {
	return PlatformMatcher{declared: declared}
}

// Membership reports whether target is a declared platform and at which
// support level. With no declarations every target is a verified member.
func (m PlatformMatcher) Membership(target types.PlatformSpec) (types.SupportLevel, bool) {
	if len(m.declared) == 0 {
		return types.SupportLevelVerified, true
	}
	level := types.SupportLevel("")
	for _, decl := range m.declared {
		if decl.Platform != target {
			continue
		}
		// A verified declaration outranks a best-effort one for the
		// same platform.
		if level != types.SupportLevelVerified {
			level = decl.Level
		}
	}
	if level == "" {
		return "", false
	}
	return level, true
}

// Expand evaluates an entry's path template against target. The second
// return value is false when the entry is not shipped for target: either
// a token alternation excludes it, or the template is platform-dependent
// and target is not a declared platform.
func (m PlatformMatcher) Expand(entry types.ManifestEntry, target types.PlatformSpec) (types.ResolvedPackage, bool, error) {
	segments, err := ParseTemplate(entry.PathTemplate)
	if err != nil {
		return types.ResolvedPackage{}, false, err
	}

	templated := false
	var builder strings.Builder
	for _, segment := range segments {
		if segment.Token == nil {
			builder.WriteString(segment.Literal)
			continue
		}
		templated = true
		expanded, ok := evalToken(*segment.Token, target)
		if !ok {
			return types.ResolvedPackage{}, false, nil
		}
		builder.WriteString(expanded)
	}

	// Platform-independent entries install everywhere; templated ones
	// only on declared platforms.
	level, member := m.Membership(target)
	if !member {
		if templated {
			return types.ResolvedPackage{}, false, nil
		}
		level = types.SupportLevelVerified
	}

	return types.ResolvedPackage{
		ConcretePath: builder.String(),
		Version:      entry.VersionPin,
		SupportLevel: level,
	}, true, nil
}

// templateSegment is either a literal run or one expansion token.
type templateSegment struct {
	Literal string
	Token   *types.TemplateToken
}

// ParseTemplate splits a package path template into literal runs and
// tagged tokens. Token grammar: ${platform}, ${os=a,b}, ${arch=x}.
func ParseTemplate(template string) ([]templateSegment, error) {
	var segments []templateSegment
	rest := template
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			if rest != "" {
				segments = append(segments, templateSegment{Literal: rest})
			}
			return segments, nil
		}
		if start > 0 {
			segments = append(segments, templateSegment{Literal: rest[:start]})
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unterminated token in template: %s", template))
		}
		raw := rest[start : start+end+1]
		token, err := parseToken(raw)
		if err != nil {
			return nil, err
		}
		segments = append(segments, templateSegment{Token: &token})
		rest = rest[start+end+1:]
	}
}

func parseToken(raw string) (types.TemplateToken, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(raw, "${"), "}")
	if body == "platform" {
		return types.TemplateToken{Kind: types.TokenPlatform, Raw: raw}, nil
	}
	name, arg, hasArg := strings.Cut(body, "=")
	if !hasArg || arg == "" {
		return types.TemplateToken{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid template token: %s", raw))
	}
	switch name {
	case "os":
		alternatives := strings.Split(arg, ",")
		for i, alt := range alternatives {
			alternatives[i] = strings.TrimSpace(alt)
		}
		return types.TemplateToken{
			Kind:           types.TokenOSAlternation,
			Raw:            raw,
			OSAlternatives: alternatives,
		}, nil
	case "arch":
		return types.TemplateToken{
			Kind:      types.TokenArchFixed,
			Raw:       raw,
			FixedArch: arg,
		}, nil
	default:
		return types.TemplateToken{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid template token: %s", raw))
	}
}

func evalToken(token types.TemplateToken, target types.PlatformSpec) (string, bool) {
	switch token.Kind {
	case types.TokenPlatform:
		return target.String(), true
	case types.TokenOSAlternation:
		for _, alt := range token.OSAlternatives {
			if alt == target.OS {
				return target.OS, true
			}
		}
		return "", false
	case types.TokenArchFixed:
		return token.FixedArch, true
	default:
		return "", false
	}
}
