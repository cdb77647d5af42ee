package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toolpin/internal/app"
)

type ensureOptions struct {
	Manifest     string
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

func newEnsureCommand() *cobra.Command {
	opts := ensureOptions{}
	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Resolve a manifest and install the pinned tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnsure(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "Manifest file path")
	cmd.Flags().StringVar(&opts.OS, "os", "", "Target operating system")
	cmd.Flags().StringVar(&opts.Arch, "arch", "", "Target architecture")
	cmd.Flags().StringVar(&opts.Root, "root", "", "Install root directory")
	cmd.Flags().StringVar(&opts.VersionsFile, "versions-file", "", "Resolved versions file (overrides $ResolvedVersions)")
	cmd.Flags().StringVar(&opts.BackendURL, "backend-url", "", "Package backend endpoint")
	cmd.Flags().StringVar(&opts.BackendUser, "backend-user", "", "Backend basic-auth user")
	cmd.Flags().StringVar(&opts.BackendAPIKey, "backend-api-key", "", "Backend API key")
	cmd.Flags().IntVar(&opts.BackendTimeoutSec, "backend-timeout", 60, "Backend request timeout in seconds")
	cmd.Flags().IntVar(&opts.BackendRetries, "backend-retries", 3, "Backend resolve retry count")
	cmd.Flags().IntVar(&opts.BackendRetryDelayMs, "backend-retry-delay-ms", 200, "Backend retry delay in milliseconds")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "Parallel install workers")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Abort on the first failed entry")

	_ = viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("os", cmd.Flags().Lookup("os"))
	_ = viper.BindPFlag("arch", cmd.Flags().Lookup("arch"))
	_ = viper.BindPFlag("root", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("versions_file", cmd.Flags().Lookup("versions-file"))
	_ = viper.BindPFlag("backend_url", cmd.Flags().Lookup("backend-url"))
	_ = viper.BindPFlag("backend_user", cmd.Flags().Lookup("backend-user"))
	_ = viper.BindPFlag("backend_api_key", cmd.Flags().Lookup("backend-api-key"))
	_ = viper.BindPFlag("backend_timeout", cmd.Flags().Lookup("backend-timeout"))
	_ = viper.BindPFlag("backend_retries", cmd.Flags().Lookup("backend-retries"))
	_ = viper.BindPFlag("backend_retry_delay_ms", cmd.Flags().Lookup("backend-retry-delay-ms"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("strict", cmd.Flags().Lookup("strict"))
	return cmd
}

func runEnsure(ctx context.Context, cmd *cobra.Command, opts ensureOptions) error {
	service := newAppService()
	result, err := service.Ensure(ctx, app.EnsureRequest{
		ManifestPath:        resolveString(cmd, opts.Manifest, "manifest", "manifest"),
		OS:                  resolveString(cmd, opts.OS, "os", "os"),
		Arch:                resolveString(cmd, opts.Arch, "arch", "arch"),
		Root:                resolveString(cmd, opts.Root, "root", "root"),
		VersionsFile:        resolveString(cmd, opts.VersionsFile, "versions_file", "versions-file"),
		BackendURL:          resolveString(cmd, opts.BackendURL, "backend_url", "backend-url"),
		BackendUser:         resolveString(cmd, opts.BackendUser, "backend_user", "backend-user"),
		BackendAPIKey:       resolveString(cmd, opts.BackendAPIKey, "backend_api_key", "backend-api-key"),
		BackendTimeoutSec:   resolveInt(cmd, opts.BackendTimeoutSec, "backend_timeout", "backend-timeout"),
		BackendRetries:      resolveInt(cmd, opts.BackendRetries, "backend_retries", "backend-retries"),
		BackendRetryDelayMs: resolveInt(cmd, opts.BackendRetryDelayMs, "backend_retry_delay_ms", "backend-retry-delay-ms"),
		Workers:             resolveInt(cmd, opts.Workers, "workers", "workers"),
		Strict:              resolveBool(cmd, opts.Strict, "strict", "strict"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("ensured: %d installed, %d cached, %d failed, %d skipped\n",
		result.Report.Installed, result.Report.Cached, result.Report.Failed, result.Skipped)
	return nil
}
