package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toolpin/internal/app"
	"toolpin/internal/types"
)

type resolveOptions struct {
	Manifest  string
	OS        string
	Arch      string
	OutputDir string
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a manifest into an install plan without installing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "Manifest file path")
	cmd.Flags().StringVar(&opts.OS, "os", "", "Target operating system")
	cmd.Flags().StringVar(&opts.Arch, "arch", "", "Target architecture")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "Directory to write the plan file into (optional)")

	_ = viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("os", cmd.Flags().Lookup("os"))
	_ = viper.BindPFlag("arch", cmd.Flags().Lookup("arch"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions) error {
	service := newAppService()
	result, err := service.Plan(ctx, app.PlanRequest{
		ManifestPath: resolveString(cmd, opts.Manifest, "manifest", "manifest"),
		OS:           resolveString(cmd, opts.OS, "os", "os"),
		Arch:         resolveString(cmd, opts.Arch, "arch", "arch"),
		OutputDir:    resolveString(cmd, opts.OutputDir, "output", "output"),
	})
	if err != nil {
		return err
	}
	for _, entry := range result.Plan.Entries {
		line := fmt.Sprintf("%s %s", entry.Package.ConcretePath, entry.Package.Version)
		if entry.TargetSubdir != "" {
			line += " subdir=" + entry.TargetSubdir
		}
		if entry.Package.SupportLevel == types.SupportLevelBestEffort {
			line += " best-effort"
		}
		fmt.Println(line)
	}
	fmt.Printf("resolved: %d entries, %d skipped for %s\n", len(result.Plan.Entries), result.Skipped, result.Plan.Platform)
	return nil
}
