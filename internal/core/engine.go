package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"toolpin/internal/ports"
	"toolpin/internal/shared"
	"toolpin/internal/types"
)

const defaultInstallWorkers = 4

// InstallEngine executes an install plan: for each entry it resolves the
// pin to an instance (versions cache first, backend second), fetches the
// content, verifies its digest, and installs it through a staged write
// plus atomic rename. Entries run on a bounded worker pool and complete
// in any order.
type InstallEngine struct {
	Backend ports.BackendPort
	Stage   ports.StagePort
	Cache   ports.VersionsCachePort
	Workers int

	// Strict aborts the plan on the first per-entry failure. Completed
	// installs are left in place; atomicity is per entry, never global.
	Strict bool
}

func NewInstallEngine(backend ports.BackendPort, stage ports.StagePort) InstallEngine {
	return InstallEngine{
		Backend: backend,
		Stage:   stage,
		Workers: defaultInstallWorkers,
	}
}

// Execute materializes plan under root. The returned report always covers
// every attempted entry, including in strict mode where the error return
// is also non-nil.
func (e InstallEngine) Execute(ctx context.Context, plan types.InstallPlan, root string) (types.InstallReport, error) {
	if e.Backend == nil || e.Stage == nil {
		return types.InstallReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("install engine requires backend and stage ports")
	}
	if strings.TrimSpace(root) == "" {
		return types.InstallReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("install root is required")
	}
	if err := e.Stage.EnsureDir(root); err != nil {
		return types.InstallReport{}, err
	}

	report := types.InstallReport{Platform: plan.Platform.String()}
	if len(plan.Entries) == 0 {
		return report, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerCount := e.Workers
	if workerCount <= 0 {
		workerCount = defaultInstallWorkers
	}
	if len(plan.Entries) < workerCount {
		workerCount = len(plan.Entries)
	}

	tasks := make(chan types.PlanEntry)
	results := make(chan types.InstallRecord, len(plan.Entries))
	locks := newPathLocks()
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range tasks {
				results <- e.installOne(ctx, entry, root, locks)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Feed in a goroutine so a strict-mode cancel cannot deadlock the
	// send loop against workers that already exited.
	go func() {
		defer close(tasks)
		for _, entry := range plan.Entries {
			select {
			case tasks <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()

	var firstErr error
	for record := range results {
		report.Records = append(report.Records, record)
		switch record.Status {
		case types.EntryStatusInstalled:
			report.Installed++
		case types.EntryStatusCached:
			report.Cached++
		case types.EntryStatusFailed:
			report.Failed++
		}
		if record.SupportLevel == types.SupportLevelBestEffort {
			report.BestEffort++
		}
		if record.Status == types.EntryStatusFailed && e.Strict && firstErr == nil {
			firstErr = errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("strict mode: install failed for %s: %s", record.Package, record.Error))
			cancel()
		}
	}

	sort.Slice(report.Records, func(i, j int) bool {
		if report.Records[i].Package != report.Records[j].Package {
			return report.Records[i].Package < report.Records[j].Package
		}
		return report.Records[i].Subdir < report.Records[j].Subdir
	})
	log.Ctx(ctx).Debug().
		Int("installed", report.Installed).
		Int("cached", report.Cached).
		Int("failed", report.Failed).
		Msg("install plan executed")
	return report, firstErr
}

func (e InstallEngine) installOne(ctx context.Context, entry types.PlanEntry, root string, locks *pathLocks) types.InstallRecord {
	record := types.InstallRecord{
		Package:      entry.Package.ConcretePath,
		Version:      entry.Package.Version,
		Subdir:       entry.TargetSubdir,
		SupportLevel: entry.Package.SupportLevel,
	}
	if err := ctx.Err(); err != nil {
		record.Status = types.EntryStatusFailed
		record.Error = "canceled"
		return record
	}
	if entry.Package.SupportLevel == types.SupportLevelBestEffort {
		log.Ctx(ctx).Warn().
			Str("package", entry.Package.ConcretePath).
			Msg("installing best-effort package")
	}

	instance, err := e.resolveInstance(ctx, entry.Package)
	if err != nil {
		record.Status = types.EntryStatusFailed
		record.Error = errorMessage(err)
		return record
	}
	record.InstanceID = instance.InstanceID

	finalPath := filepath.Join(root, filepath.FromSlash(entry.TargetSubdir), filepath.FromSlash(entry.Package.ConcretePath))

	// Duplicate final paths cannot survive deduplication, but a write-write
	// race on the same file is never acceptable, so serialize defensively.
	unlock := locks.lock(finalPath)
	defer unlock()

	if existingMatches(finalPath, instance.Digest) {
		record.Status = types.EntryStatusCached
		return record
	}

	data, err := e.fetchVerified(ctx, instance)
	if err != nil {
		record.Status = types.EntryStatusFailed
		record.Error = errorMessage(err)
		return record
	}

	// Once content is staged the rename runs to completion even under
	// cancellation, keeping the per-entry atomicity guarantee.
	if err := e.Stage.EnsureDir(filepath.Dir(finalPath)); err != nil {
		record.Status = types.EntryStatusFailed
		record.Error = errorMessage(err)
		return record
	}
	tempPath, err := e.Stage.StageWrite(data)
	if err != nil {
		record.Status = types.EntryStatusFailed
		record.Error = errorMessage(err)
		return record
	}
	if err := e.Stage.AtomicRename(tempPath, finalPath); err != nil {
		record.Status = types.EntryStatusFailed
		record.Error = errorMessage(err)
		return record
	}
	record.Status = types.EntryStatusInstalled
	return record
}

func (e InstallEngine) resolveInstance(ctx context.Context, pkg types.ResolvedPackage) (types.InstanceInfo, error) {
	if e.Cache != nil {
		if instance, ok := e.Cache.Lookup(pkg.ConcretePath, pkg.Version); ok {
			log.Ctx(ctx).Debug().
				Str("package", pkg.ConcretePath).
				Msg("resolved from versions file")
			return instance, nil
		}
	}
	return e.Backend.ResolveInstance(ctx, pkg.ConcretePath, pkg.Version)
}

func (e InstallEngine) fetchVerified(ctx context.Context, instance types.InstanceInfo) ([]byte, error) {
	stream, err := e.Backend.Fetch(ctx, instance.InstanceID)
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to read package content").
			WithCause(err)
	}
	if digest := shared.SHA256Hex(data); digest != instance.Digest {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeDataLoss).
			WithMsg(fmt.Sprintf("digest mismatch for instance %s: want %s, got %s", instance.InstanceID, instance.Digest, digest))
	}
	return data, nil
}

func existingMatches(finalPath string, digest string) bool {
	data, err := os.ReadFile(finalPath)
	if err != nil {
		return false
	}
	return shared.SHA256Hex(data) == digest
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// pathLocks hands out one mutex per final path.
type pathLocks struct {
	mu    sync.Mutex
	paths map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{paths: map[string]*sync.Mutex{}}
}

func (l *pathLocks) lock(path string) func() {
	l.mu.Lock()
	pathMu, ok := l.paths[path]
	if !ok {
		pathMu = &sync.Mutex{}
		l.paths[path] = pathMu
	}
	l.mu.Unlock()
	pathMu.Lock()
	return pathMu.Unlock
}
