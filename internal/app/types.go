package app

import "toolpin/internal/types"

type ValidateRequest struct {
	ManifestPath string
}

type ValidateResult struct {
	Entries   int
	Platforms int
}

type PlanRequest struct {
	ManifestPath string
	OS           string
	Arch         string
	OutputDir    string
}

type PlanResult struct {
	Plan       types.InstallPlan
	Skipped    int
	Overwrites int
}

type EnsureRequest struct {
	ManifestPath string
	OS           string
	Arch         string
	Root         string
	VersionsFile string

	BackendURL          string
	BackendUser         string
	BackendAPIKey       string
	BackendTimeoutSec   int
	BackendRetries      int
	BackendRetryDelayMs int

	Workers int
	Strict  bool
}

type EnsureResult struct {
	Report  types.InstallReport
	Skipped int
	Root    string
}

type PlatformsRequest struct {
	ManifestPath string
}

type PlatformsResult struct {
	Platforms []types.PlatformDecl
}
