package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tracker-studio/internal/model"
	"tracker-studio/internal/params"
	"tracker-studio/internal/selection"
	"tracker-studio/internal/studio"
)

type renderReport struct {
	OK         bool                   `json:"ok"`
	File       string                 `json:"file,omitempty"`
	Endpoint   string                 `json:"endpoint"`
	Parameters model.RenderParameters `json:"parameters"`
	Bytes      int64                  `json:"bytes,omitempty"`
	MediaType  string                 `json:"media_type,omitempty"`
	SavedTo    string                 `json:"saved_to,omitempty"`
	DurationMS int64                  `json:"duration_ms"`
	Notice     *renderNotice          `json:"notice,omitempty"`
}

type renderNotice struct {
	Kind    studio.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var filePath string
	var outPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Submit one video headlessly and save the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]string{}
			for _, s := range params.Specs() {
				f := cmd.Flags().Lookup(controlFlagName(s.Key))
				if f != nil && f.Changed {
					overrides[s.Key] = f.Value.String()
				}
			}
			return runRender(cmd, ctx, renderOptions{
				File:      filePath,
				Out:       outPath,
				JSON:      jsonOut,
				Overrides: overrides,
			})
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Video to submit")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Where to save the result (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print a JSON report")
	for _, s := range params.Specs() {
		usage := s.Label
		if len(s.Options) > 0 {
			usage += " (" + strings.Join(s.Options, ", ") + ")"
		} else if s.Kind == params.KindRange {
			usage += fmt.Sprintf(" (%d-%d)", s.Min, s.Max)
		}
		cmd.Flags().String(controlFlagName(s.Key), "", usage)
	}
	return cmd
}

type renderOptions struct {
	File      string
	Out       string
	JSON      bool
	Overrides map[string]string
}

func runRender(cmd *cobra.Command, ctx *commandContext, opts renderOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	controls, err := params.FromParameters(cfg.Parameters())
	if err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	if err := controls.Apply(opts.Overrides); err != nil {
		return err
	}

	var notice *studio.Error
	upload := &uploadProgress{}
	session, err := ctx.openSession(false, controls, upload, func(e *studio.Error) {
		notice = e
	})
	if err != nil {
		return err
	}
	defer session.Close()

	report := renderReport{
		Endpoint:   cfg.Service.Endpoint,
		Parameters: controls.Collect(),
	}
	if strings.TrimSpace(opts.File) != "" {
		sel, err := selection.FromPath(opts.File)
		if err != nil {
			return err
		}
		if err := session.ctrl.SelectFile(sel); err != nil {
			return err
		}
		report.File = sel.Path
	}

	live := newLiveProgress(!opts.JSON && stderrIsTTY(), cmd.ErrOrStderr(), filepath.Base(report.File), upload)
	started := time.Now()
	live.Start()
	handle, err := session.ctrl.SubmitAndWait(cmd.Context())
	live.Stop("")
	report.DurationMS = time.Since(started).Milliseconds()
	if err != nil {
		if notice != nil {
			report.Notice = &renderNotice{Kind: notice.Kind, Message: notice.Message}
		}
		if opts.JSON {
			_ = printJSON(cmd.OutOrStdout(), report)
		}
		return fmt.Errorf("render failed: %w", err)
	}

	dest := strings.TrimSpace(opts.Out)
	if dest == "" {
		dest = cfg.DownloadPath()
	}
	saved, err := session.ctrl.Download(dest)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	report.OK = true
	report.Bytes = handle.Size()
	report.MediaType = handle.MediaType()
	report.SavedTo = saved
	session.logger.Debug("render command finished", slog.String("saved_to", saved))

	if opts.JSON {
		return printJSON(cmd.OutOrStdout(), report)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rendered %s in %s\n", report.File, time.Duration(report.DurationMS)*time.Millisecond)
	fmt.Fprintf(out, "Result: %s (%s)\n", formatBytesIEC(report.Bytes), report.MediaType)
	fmt.Fprintf(out, "Saved to %s\n", saved)
	return nil
}

func controlFlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
