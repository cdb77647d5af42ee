package app

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"toolpin/internal/core"
)

func (s Service) Platforms(ctx context.Context, req PlatformsRequest) (PlatformsResult, error) {
	manifestPath := strings.TrimSpace(req.ManifestPath)
	if manifestPath == "" {
		return PlatformsResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	text, err := os.ReadFile(manifestPath)
	if err != nil {
		return PlatformsResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("manifest file not found").
			WithCause(err)
	}
	manifest, err := core.NewManifestParser().Parse(string(text))
	if err != nil {
		return PlatformsResult{}, err
	}
	decls := manifest.VerifiedPlatforms()
	sort.Slice(decls, func(i, j int) bool {
		if decls[i].Platform.String() != decls[j].Platform.String() {
			return decls[i].Platform.String() < decls[j].Platform.String()
		}
		return decls[i].Level < decls[j].Level
	})
	return PlatformsResult{Platforms: decls}, nil
}
