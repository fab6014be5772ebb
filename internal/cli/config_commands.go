package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tracker-studio/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = strings.TrimSpace(cmd.Flag("config").Value.String())
			}
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target, overwrite); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintf(out, "Point [service].endpoint (or %s) at your processing server, then run `tracker-studio doctor`.\n", config.EndpointEnvVar)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), struct {
					Path   string         `json:"path"`
					Exists bool           `json:"exists"`
					Config *config.Config `json:"config"`
				}{ctx.configPath, ctx.configSeen, cfg})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configSeen {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			d := cfg.Defaults
			rows := [][]string{
				{"service.endpoint", cfg.Service.Endpoint},
				{"service.request_timeout_seconds", strconv.Itoa(cfg.Service.RequestTimeoutSeconds)},
				{"output.download_dir", cfg.Output.DownloadDir},
				{"output.download_name", cfg.Output.DownloadName},
				{"output.cache_dir", cfg.Output.CacheDir},
				{"defaults.shape", d.Shape},
				{"defaults.box_color", d.BoxColor},
				{"defaults.stroke_width", strconv.Itoa(d.StrokeWidth)},
				{"defaults.connection", d.Connection},
				{"defaults.conn_color", d.ConnColor},
				{"defaults.label_type", d.LabelType},
				{"defaults.custom_text", d.CustomText},
				{"defaults.text_color", d.TextColor},
				{"defaults.max_blobs", strconv.Itoa(d.MaxBlobs)},
				{"defaults.min_size", strconv.Itoa(d.MinSize)},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
				{"logging.dir", cfg.Logging.Dir},
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}
