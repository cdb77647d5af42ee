package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"toolpin/internal/ports"
	"toolpin/internal/types"
)

const (
	reportFileName = "install.report.yaml"
	planFileName   = "install.plan"
)

type ReportFileAdapter struct {
	Dir string
}

func NewReportFileAdapter(dir string) ReportFileAdapter {
	return ReportFileAdapter{Dir: dir}
}

func (a ReportFileAdapter) WriteInstallReport(report types.InstallReport) error {
	path, err := a.ensurePath(reportFileName)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode install report").
			WithCause(err)
	}
	return os.WriteFile(path, data, 0644)
}

// WritePlan emits the plan in document order, one entry per line:
// <concrete-path> <version> [subdir=<dir>] [best-effort].
func (a ReportFileAdapter) WritePlan(plan types.InstallPlan) error {
	path, err := a.ensurePath(planFileName)
	if err != nil {
		return err
	}
	var lines []string
	for _, entry := range plan.Entries {
		line := fmt.Sprintf("%s %s", entry.Package.ConcretePath, entry.Package.Version)
		if entry.TargetSubdir != "" {
			line += fmt.Sprintf(" subdir=%s", entry.TargetSubdir)
		}
		if entry.Package.SupportLevel == types.SupportLevelBestEffort {
			line += " best-effort"
		}
		lines = append(lines, line)
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

func (a ReportFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}

var _ ports.OutputPort = ReportFileAdapter{}
