package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Run executes the command tree with args (without the program name).
func Run(args []string) error {
	return RunContext(context.Background(), args)
}

func RunContext(ctx context.Context, args []string) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func NewRootCommand() *cobra.Command {
	var configFlag string
	var endpointFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &endpointFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:   "tracker-studio",
		Short: "Blob-tracking render studio for a local processing service",
		Long: "tracker-studio picks a video, configures the tracking overlay and submits it to the\n" +
			"processing service, then lets you play or download the rendered result.\n\n" +
			"Quick Start:\n" +
			"  tracker-studio config init\n" +
			"  tracker-studio doctor\n" +
			"  tracker-studio studio\n" +
			"  tracker-studio render --file clip.mp4 --label-type index",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Processing service URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newStudioCommand(ctx))
	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newParamsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newStubServerCommand(ctx))

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
