package ports

import "toolpin/internal/types"

type OutputPort interface {
	WriteInstallReport(report types.InstallReport) error
	WritePlan(plan types.InstallPlan) error
}
