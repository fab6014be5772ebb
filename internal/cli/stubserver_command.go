package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tracker-studio/internal/stubserver"
)

func newStubServerCommand(ctx *commandContext) *cobra.Command {
	var addr string
	var failStatus int
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "stub-server",
		Short: "Run a local stand-in for the processing service",
		Long: "stub-server accepts the same multipart form as the real processing service and\n" +
			"echoes the uploaded video back. It performs no tracking; use it to exercise the\n" +
			"studio without the real server.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if failStatus != 0 && (failStatus < 300 || failStatus > 599) {
				return fmt.Errorf("--fail-status must be between 300 and 599")
			}
			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}
			srv := stubserver.New(stubserver.Options{
				FailStatus: failStatus,
				Delay:      delay,
				Logger:     logger,
			})

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.OutOrStdout(), "stub processing server on %s%s (%s)\n", addr, stubserver.ProcessPath, describeStub(failStatus, delay))
			return srv.ListenAndServe(runCtx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5000", "Listen address")
	cmd.Flags().IntVar(&failStatus, "fail-status", 0, "Answer every request with this HTTP status")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Hold each response for this long")
	return cmd
}

func describeStub(failStatus int, delay time.Duration) string {
	mode := "echo"
	if failStatus != 0 {
		mode = fmt.Sprintf("fail with %d %s", failStatus, http.StatusText(failStatus))
	}
	if delay > 0 {
		mode += fmt.Sprintf(", delay %s", delay)
	}
	return mode
}
