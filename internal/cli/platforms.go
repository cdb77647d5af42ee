package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toolpin/internal/app"
)

type platformsOptions struct {
	Manifest string
}

func newPlatformsCommand() *cobra.Command {
	opts := platformsOptions{}
	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "List the platforms a manifest declares support for",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlatforms(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "Manifest file path")
	_ = viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	return cmd
}

func runPlatforms(ctx context.Context, cmd *cobra.Command, opts platformsOptions) error {
	service := newAppService()
	result, err := service.Platforms(ctx, app.PlatformsRequest{
		ManifestPath: resolveString(cmd, opts.Manifest, "manifest", "manifest"),
	})
	if err != nil {
		return err
	}
	for _, decl := range result.Platforms {
		fmt.Printf("%s %s\n", decl.Platform, decl.Level)
	}
	return nil
}
