package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"toolpin/internal/adapters"
	"toolpin/internal/core"
	"toolpin/internal/ports"
	"toolpin/internal/types"
)

func (s Service) Ensure(ctx context.Context, req EnsureRequest) (EnsureResult, error) {
	root := strings.TrimSpace(req.Root)
	if root == "" {
		return EnsureResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("install root is required")
	}
	target, err := targetPlatform(req.OS, req.Arch)
	if err != nil {
		return EnsureResult{}, err
	}

	planResult, manifestDir, err := s.buildPlan(ctx, req.ManifestPath, target)
	if err != nil {
		return EnsureResult{}, err
	}

	backend := s.Backend
	if backend == nil {
		if strings.TrimSpace(req.BackendURL) == "" {
			return EnsureResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("backend URL is required")
		}
		backend = adapters.NewHTTPBackendAdapter(
			req.BackendURL,
			req.BackendUser,
			req.BackendAPIKey,
			req.BackendTimeoutSec,
			req.BackendRetries,
			req.BackendRetryDelayMs,
		)
	}

	cache, err := loadVersionsCache(req.VersionsFile, manifestDir, planResult.ResolvedVersionsPath)
	if err != nil {
		return EnsureResult{}, err
	}

	engine := core.NewInstallEngine(backend, adapters.NewStageFSAdapter(root))
	engine.Cache = cache
	engine.Strict = req.Strict
	if req.Workers > 0 {
		engine.Workers = req.Workers
	}

	report, execErr := engine.Execute(ctx, planResult.Plan, root)
	if s.Clock != nil {
		report.GeneratedAt = s.Clock().UTC()
	}
	for _, entry := range planResult.SkippedUnsupported {
		report.Records = append(report.Records, types.InstallRecord{
			Package: entry.PathTemplate,
			Version: entry.VersionPin,
			Status:  types.EntryStatusSkipped,
			Error:   fmt.Sprintf("not shipped for %s", target),
		})
		report.Skipped++
	}

	output := adapters.NewReportFileAdapter(root)
	if err := output.WriteInstallReport(report); err != nil {
		// A strict-mode abort outranks a report write failure.
		if execErr == nil {
			return EnsureResult{}, err
		}
		log.Ctx(ctx).Warn().Err(err).Msg("failed to write install report")
	}
	result := EnsureResult{
		Report:  report,
		Skipped: report.Skipped,
		Root:    root,
	}
	if execErr != nil {
		return result, execErr
	}
	return result, nil
}

// loadVersionsCache resolves the side-file path: an explicit flag wins,
// then the manifest's $ResolvedVersions directive relative to the
// manifest directory. A flag-named file must exist; a directive-named one
// is optional so a manifest stays usable before its first pin refresh.
func loadVersionsCache(explicit string, manifestDir string, declared string) (ports.VersionsCachePort, error) {
	if path := strings.TrimSpace(explicit); path != "" {
		cache, err := adapters.LoadVersionsFile(path)
		if err != nil {
			return nil, err
		}
		return cache, nil
	}
	if declared == "" {
		return nil, nil
	}
	path := filepath.Join(manifestDir, filepath.FromSlash(declared))
	cache, err := adapters.LoadVersionsFile(path)
	if err != nil {
		if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return cache, nil
}
