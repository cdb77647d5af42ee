package core

import (
	"context"
	"fmt"
	"path"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"toolpin/internal/ports"
	"toolpin/internal/types"
)

const DefaultMaxIncludeDepth = 8

// Planner folds parsed manifest items into an install plan: a subdirectory
// cursor tracks @Subdir directives, entries expand through the platform
// matcher, and @Subdir values naming nested manifests are included in
// place with their own cursor scope.
type Planner struct {
	Source   ports.ManifestSourcePort
	Policy   ports.ConflictPolicyPort
	MaxDepth int
}

// PlanResult carries the deduplicated plan plus everything the caller may
// want to report on: overwritten duplicates, entries skipped for the
// target platform, and the manifest's resolved-versions side file path.
type PlanResult struct {
	Plan                 types.InstallPlan
	Overwrites           []types.OverwriteRecord
	SkippedUnsupported   []types.ManifestEntry
	ResolvedVersionsPath string
}

func NewPlanner(source ports.ManifestSourcePort, policy ports.ConflictPolicyPort) Planner {
	return Planner{
		Source:   source,
		Policy:   policy,
		MaxDepth: DefaultMaxIncludeDepth,
	}
}

func (p Planner) Plan(ctx context.Context, manifest types.Manifest, target types.PlatformSpec) (PlanResult, error) {
	if p.Policy == nil {
		return PlanResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("planner requires a conflict policy")
	}
	matcher := NewPlatformMatcher(manifest.VerifiedPlatforms())

	result := PlanResult{
		Plan:                 types.InstallPlan{Platform: target},
		ResolvedVersionsPath: manifest.ResolvedVersionsPath(),
	}
	visited := map[string]struct{}{}
	entries, skipped, err := p.walk(ctx, manifest, matcher, target, "", 0, visited)
	if err != nil {
		return PlanResult{}, err
	}
	result.SkippedUnsupported = skipped

	merged, overwrites := p.Policy.Merge(entries)
	for _, record := range overwrites {
		log.Ctx(ctx).Warn().
			Str("package", record.ConcretePath).
			Str("subdir", record.TargetSubdir).
			Int("kept_line", record.KeptLine).
			Int("dropped_line", record.DroppedLine).
			Msg("duplicate plan entry overwritten")
	}
	result.Plan.Entries = merged
	result.Overwrites = overwrites

	log.Ctx(ctx).Debug().
		Str("platform", target.String()).
		Int("entries", len(merged)).
		Int("skipped", len(skipped)).
		Msg("plan built")
	return result, nil
}

func (p Planner) walk(
	ctx context.Context,
	manifest types.Manifest,
	matcher PlatformMatcher,
	target types.PlatformSpec,
	prefix string,
	depth int,
	visited map[string]struct{},
) ([]types.PlanEntry, []types.ManifestEntry, error) {
	maxDepth := p.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxIncludeDepth
	}
	if depth > maxDepth {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("manifest include depth exceeds limit %d", maxDepth))
	}

	var entries []types.PlanEntry
	var skipped []types.ManifestEntry
	cursor := ""
	for _, item := range manifest.Items {
		if item.Entry != nil {
			resolved, ok, err := matcher.Expand(*item.Entry, target)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				skipped = append(skipped, *item.Entry)
				log.Ctx(ctx).Debug().
					Str("template", item.Entry.PathTemplate).
					Str("platform", target.String()).
					Msg("entry not shipped for platform")
				continue
			}
			entries = append(entries, types.PlanEntry{
				Package:      resolved,
				TargetSubdir: joinSubdir(prefix, cursor),
				SourceLine:   item.Entry.SourceLine,
			})
			continue
		}

		directive := item.Directive
		if directive.Kind != types.DirectiveSubdir {
			continue
		}
		if p.Source != nil && directive.Value != "" && p.Source.IsManifestRef(directive.Value) {
			nested, nestedSkipped, err := p.include(ctx, directive.Value, matcher, target, prefix, depth, visited)
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries, nested...)
			skipped = append(skipped, nestedSkipped...)
			// Inclusion does not move the cursor of the including manifest.
			continue
		}
		cursor = directive.Value
	}
	return entries, skipped, nil
}

func (p Planner) include(
	ctx context.Context,
	ref string,
	matcher PlatformMatcher,
	target types.PlatformSpec,
	prefix string,
	depth int,
	visited map[string]struct{},
) ([]types.PlanEntry, []types.ManifestEntry, error) {
	// Refs are relative to the including manifest's directory, which is
	// exactly the accumulated prefix, so the root-relative path doubles
	// as the cycle-detection key.
	fullRef := joinSubdir(prefix, ref)
	if _, seen := visited[fullRef]; seen {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("manifest include cycle at %s", fullRef))
	}
	visited[fullRef] = struct{}{}
	defer delete(visited, fullRef)

	text, err := p.Source.LoadManifest(fullRef)
	if err != nil {
		return nil, nil, err
	}
	parser := NewManifestParser()
	nested, err := parser.Parse(text)
	if err != nil {
		return nil, nil, err
	}
	if err := parser.Validate(ctx, nested); err != nil {
		return nil, nil, err
	}
	// Nested entries land under the directory holding the nested
	// manifest, and its own $VerifiedPlatform declarations extend the
	// outer set.
	nestedMatcher := matcher
	if decls := nested.VerifiedPlatforms(); len(decls) > 0 {
		nestedMatcher = NewPlatformMatcher(append(manifestDecls(matcher), decls...))
	}
	nestedPrefix := joinSubdir(prefix, path.Dir(ref))
	return p.walk(ctx, nested, nestedMatcher, target, nestedPrefix, depth+1, visited)
}

func manifestDecls(matcher PlatformMatcher) []types.PlatformDecl {
	return append([]types.PlatformDecl(nil), matcher.declared...)
}

func joinSubdir(prefix string, subdir string) string {
	joined := path.Join(prefix, subdir)
	if joined == "." {
		return ""
	}
	return joined
}
