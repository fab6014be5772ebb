package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tracker-studio/internal/params"
)

type paramRow struct {
	params.Spec
	Flag    string `json:"flag"`
	Current string `json:"current"`
}

func newParamsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "params",
		Short: "List the tracking controls, their ranges and defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			controls, err := params.FromParameters(cfg.Parameters())
			if err != nil {
				return fmt.Errorf("config defaults: %w", err)
			}

			specs := params.Specs()
			rows := make([]paramRow, 0, len(specs))
			for _, s := range specs {
				rows = append(rows, paramRow{Spec: s, Flag: "--" + controlFlagName(s.Key), Current: controls.Display(s.Key)})
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), rows)
			}

			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{r.Key, r.Label, string(r.Kind), allowedValues(r.Spec), r.Default, r.Current})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Label", "Kind", "Allowed", "Default", "Current"},
				table,
				nil,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func allowedValues(s params.Spec) string {
	switch s.Kind {
	case params.KindSelect:
		return strings.Join(s.Options, " | ")
	case params.KindRange:
		return strconv.Itoa(s.Min) + "-" + strconv.Itoa(s.Max) + s.Suffix
	case params.KindColor:
		return "#rrggbb"
	default:
		return "any text"
	}
}
