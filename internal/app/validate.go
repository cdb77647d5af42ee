package app

import (
	"context"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"toolpin/internal/core"
)

func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	manifestPath := strings.TrimSpace(req.ManifestPath)
	if manifestPath == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	text, err := os.ReadFile(manifestPath)
	if err != nil {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("manifest file not found").
			WithCause(err)
	}
	parser := core.NewManifestParser()
	manifest, err := parser.Parse(string(text))
	if err != nil {
		return ValidateResult{}, err
	}
	if err := parser.Validate(ctx, manifest); err != nil {
		return ValidateResult{}, err
	}
	return ValidateResult{
		Entries:   len(manifest.Entries()),
		Platforms: len(manifest.VerifiedPlatforms()),
	}, nil
}
