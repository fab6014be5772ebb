package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tracker-studio/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the processing service and local directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}
			client, err := ctx.newProcessor(cfg, logger, nil)
			if err != nil {
				return err
			}

			res := preflight.Doctor(cmd.Context(), cfg, client)
			if jsonOut {
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(res.Checks))
				for _, c := range res.Checks {
					status := "ok"
					if !c.OK {
						status = "FAIL"
						if c.Optional {
							status = "warn"
						}
					}
					rows = append(rows, []string{c.Name, status, c.Message})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Details"}, rows, nil))
				fmt.Fprintf(out, "overall: %s\n", yesNo(res.OK))
			}
			if !res.OK {
				return errors.New("doctor found failing checks")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}
