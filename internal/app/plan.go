package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"toolpin/internal/adapters"
	"toolpin/internal/core"
	"toolpin/internal/policies"
	"toolpin/internal/types"
)

func (s Service) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	target, err := targetPlatform(req.OS, req.Arch)
	if err != nil {
		return PlanResult{}, err
	}
	result, _, err := s.buildPlan(ctx, req.ManifestPath, target)
	if err != nil {
		return PlanResult{}, err
	}
	if outputDir := strings.TrimSpace(req.OutputDir); outputDir != "" {
		output := adapters.NewReportFileAdapter(outputDir)
		if err := output.WritePlan(result.Plan); err != nil {
			return PlanResult{}, err
		}
	}
	return PlanResult{
		Plan:       result.Plan,
		Skipped:    len(result.SkippedUnsupported),
		Overwrites: len(result.Overwrites),
	}, nil
}

// buildPlan runs the parse → validate → plan pipeline shared by the Plan
// and Ensure operations. The returned manifest directory anchors relative
// references such as the resolved-versions side file.
func (s Service) buildPlan(ctx context.Context, manifestPath string, target types.PlatformSpec) (core.PlanResult, string, error) {
	manifestPath = strings.TrimSpace(manifestPath)
	if manifestPath == "" {
		return core.PlanResult{}, "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	text, err := os.ReadFile(manifestPath)
	if err != nil {
		return core.PlanResult{}, "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("manifest file not found").
			WithCause(err)
	}
	parser := core.NewManifestParser()
	manifest, err := parser.Parse(string(text))
	if err != nil {
		return core.PlanResult{}, "", err
	}
	if err := parser.Validate(ctx, manifest); err != nil {
		return core.PlanResult{}, "", err
	}

	manifestDir := filepath.Dir(manifestPath)
	planner := core.NewPlanner(adapters.NewManifestFileAdapter(manifestDir), policies.NewLaterWinsPolicy())
	result, err := planner.Plan(ctx, manifest, target)
	if err != nil {
		return core.PlanResult{}, "", err
	}
	return result, manifestDir, nil
}

func targetPlatform(osName string, arch string) (types.PlatformSpec, error) {
	osName = strings.TrimSpace(osName)
	arch = strings.TrimSpace(arch)
	if osName == "" || arch == "" {
		return types.PlatformSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("target os and arch are required")
	}
	return types.PlatformSpec{OS: osName, Arch: arch}, nil
}
