package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tracker-studio/internal/model"
	"tracker-studio/internal/params"
	"tracker-studio/internal/preview"
	"tracker-studio/internal/selection"
	"tracker-studio/internal/studio"
)

type studioMode int

const (
	studioModeMain studioMode = iota
	studioModePicker
	studioModeEdit
)

type studioModel struct {
	ctx          context.Context
	ctrl         *studio.Controller
	controls     *params.Controls
	upload       *uploadProgress
	downloadPath string
	pickerStart  string

	mode   studioMode
	width  int
	height int
	cursor int

	picker    filepicker.Model
	spinner   spinner.Model
	input     textinput.Model
	editKey   string
	editError string

	statusMessage string
}

type renderDoneMsg struct {
	outcome studio.Outcome
}

type downloadDoneMsg struct {
	path string
	err  error
}

type playDoneMsg struct {
	err error
}

var (
	studioTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	studioMutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	studioErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	studioOKStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	studioPanelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	studioSelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	studioTriggerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("35")).Bold(true).Padding(0, 2)
	studioBusyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236")).Padding(0, 2)
	studioAlertStyle   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("203")).Padding(1, 2)
)

func newStudioCommand(ctx *commandContext) *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Interactive render studio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !stdinIsTTY() {
				return errors.New("studio requires an interactive terminal (TTY); use `tracker-studio render` for scripts")
			}
			return runStudio(cmd.Context(), ctx, filePath)
		},
	}
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Video to preselect")
	return cmd
}

func runStudio(runCtx context.Context, ctx *commandContext, filePath string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	controls, err := params.FromParameters(cfg.Parameters())
	if err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	upload := &uploadProgress{}
	session, err := ctx.openSession(true, controls, upload, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	startDir, _ := os.Getwd()
	if strings.TrimSpace(filePath) != "" {
		sel, err := selection.FromPath(filePath)
		if err != nil {
			return err
		}
		if err := session.ctrl.SelectFile(sel); err != nil {
			return err
		}
		startDir = filepath.Dir(sel.Path)
	}

	m := newStudioModel(runCtx, session.ctrl, controls, upload, cfg.DownloadPath(), startDir)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(runCtx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && runCtx.Err() != nil {
			return runCtx.Err()
		}
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("studio requires an interactive terminal (TTY)")
		}
		return err
	}
	return nil
}

func newStudioModel(ctx context.Context, ctrl *studio.Controller, controls *params.Controls, upload *uploadProgress, downloadPath, pickerStart string) studioModel {
	if ctx == nil {
		ctx = context.Background()
	}
	if upload == nil {
		upload = &uploadProgress{}
	}
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 256
	input.Width = 40

	return studioModel{
		ctx:          ctx,
		ctrl:         ctrl,
		controls:     controls,
		upload:       upload,
		downloadPath: downloadPath,
		pickerStart:  pickerStart,
		mode:         studioModeMain,
		spinner:      spin,
		input:        input,
	}
}

func (m studioModel) Init() tea.Cmd {
	return nil
}

func (m studioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = clampInt(m.width-8, 20, 120)
		m.picker.Height = clampInt(m.height-8, 6, 24)
		if m.mode == studioModePicker {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}
		return m, nil
	case renderDoneMsg:
		return m.handleRenderDone(msg)
	case downloadDoneMsg:
		if msg.err != nil {
			m.statusMessage = "error: download failed: " + msg.err.Error()
			return m, nil
		}
		m.statusMessage = "saved to " + msg.path
		return m, nil
	case playDoneMsg:
		if msg.err != nil {
			m.statusMessage = "error: " + msg.err.Error()
			return m, nil
		}
		m.statusMessage = "opened result in the default player"
		return m, nil
	case spinner.TickMsg:
		if m.ctrl.Phase() != model.PhaseRendering {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.ctrl.View().Notice != nil {
			return m.updateAlert(msg)
		}
		switch m.mode {
		case studioModePicker:
			return m.updatePicker(msg)
		case studioModeEdit:
			return m.updateEdit(msg)
		default:
			return m.updateMain(msg)
		}
	}

	// filepicker reads directories through its own messages
	if m.mode == studioModePicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m studioModel) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visibleSpecs()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "o":
		return m.openPicker()
	case "r", "enter":
		return m.startRender()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
		return m, nil
	case "left", "h":
		m.stepControl(-1)
		return m, nil
	case "right", "l":
		m.stepControl(1)
		return m, nil
	case "e", " ":
		return m.openEditor()
	case "d":
		if !m.ctrl.View().DownloadVisible {
			m.statusMessage = "nothing to download yet"
			return m, nil
		}
		m.statusMessage = "saving result..."
		return m, downloadCmd(m.ctrl, m.downloadPath)
	case "p":
		h := m.ctrl.Result()
		if h == nil {
			m.statusMessage = "nothing to play yet"
			return m, nil
		}
		return m, playCmd(h.Path())
	}
	return m, nil
}

func (m studioModel) updateAlert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
		m.ctrl.DismissNotice()
	}
	return m, nil
}

func (m studioModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.mode = studioModeMain
		m.statusMessage = "file selection cancelled"
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m = m.applyPickedFile(path)
		return m, cmd
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.statusMessage = fmt.Sprintf("error: %s is not a supported video (%s)", filepath.Base(path), strings.Join(selection.AcceptedExtensions, ", "))
		return m, cmd
	}
	return m, cmd
}

func (m studioModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = studioModeMain
		m.editKey = ""
		m.editError = ""
		return m, nil
	case "enter":
		if err := m.controls.Set(m.editKey, m.input.Value()); err != nil {
			m.editError = err.Error()
			return m, nil
		}
		spec, _ := params.Lookup(m.editKey)
		m.statusMessage = "updated " + strings.ToLower(spec.Label)
		m.mode = studioModeMain
		m.editKey = ""
		m.editError = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m studioModel) openPicker() (studioModel, tea.Cmd) {
	fp := filepicker.New()
	fp.AllowedTypes = append([]string(nil), selection.AcceptedExtensions...)
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.ShowHidden = false
	fp.AutoHeight = false
	fp.Height = clampInt(m.height-8, 6, 24)
	if strings.TrimSpace(m.pickerStart) != "" {
		fp.CurrentDirectory = m.pickerStart
	}
	m.picker = fp
	m.mode = studioModePicker
	m.statusMessage = ""
	return m, m.picker.Init()
}

// applyPickedFile turns a picked path into the current selection.
func (m studioModel) applyPickedFile(path string) studioModel {
	m.mode = studioModeMain
	sel, err := selection.FromPath(path)
	if err != nil {
		m.statusMessage = "error: " + err.Error()
		return m
	}
	if err := m.ctrl.SelectFile(sel); err != nil {
		m.statusMessage = "error: " + err.Error()
		return m
	}
	m.pickerStart = filepath.Dir(sel.Path)
	m.statusMessage = "selected " + sel.Name
	return m
}

func (m studioModel) openEditor() (studioModel, tea.Cmd) {
	spec, ok := m.currentSpec()
	if !ok {
		return m, nil
	}
	if spec.Kind == params.KindSelect {
		m.controls.Step(spec.Key, 1)
		return m, nil
	}
	m.editKey = spec.Key
	m.editError = ""
	m.input.SetValue(m.controls.Get(spec.Key))
	m.input.CursorEnd()
	m.mode = studioModeEdit
	return m, m.input.Focus()
}

func (m studioModel) startRender() (studioModel, tea.Cmd) {
	m.upload.Reset()
	a, err := m.ctrl.Submit(m.ctx)
	if err != nil {
		switch {
		case errors.Is(err, studio.ErrNoFileSelected):
			// the alert carries it
		case errors.Is(err, studio.ErrSubmissionInFlight):
			m.statusMessage = studio.MessageSubmissionInFlight
		default:
			m.statusMessage = "error: " + err.Error()
		}
		return m, nil
	}
	m.statusMessage = "rendering " + a.Selection.Name + "..."
	return m, tea.Batch(runAttemptCmd(a), m.spinner.Tick)
}

func (m studioModel) handleRenderDone(msg renderDoneMsg) (studioModel, tea.Cmd) {
	notice := m.ctrl.Settle(msg.outcome)
	if notice != nil {
		m.statusMessage = "error: " + notice.Message
		return m, nil
	}
	if h := m.ctrl.Result(); h != nil && msg.outcome.Result == h {
		m.statusMessage = fmt.Sprintf("render finished in %s (%s)", msg.outcome.Duration.Round(time.Millisecond), formatBytesIEC(h.Size()))
	}
	return m, nil
}

func (m *studioModel) stepControl(delta int) {
	spec, ok := m.currentSpec()
	if !ok {
		return
	}
	m.controls.Step(spec.Key, delta)
	m.clampCursor()
}

// visibleSpecs mirrors the form: custom text only shows for custom labels.
func (m studioModel) visibleSpecs() []params.Spec {
	all := params.Specs()
	out := make([]params.Spec, 0, len(all))
	for _, s := range all {
		if s.Key == model.FieldCustomText && !m.controls.CustomTextVisible() {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (m studioModel) currentSpec() (params.Spec, bool) {
	visible := m.visibleSpecs()
	if len(visible) == 0 {
		return params.Spec{}, false
	}
	return visible[clampInt(m.cursor, 0, len(visible)-1)], true
}

func (m *studioModel) clampCursor() {
	m.cursor = clampInt(m.cursor, 0, maxInt(len(m.visibleSpecs())-1, 0))
}

func runAttemptCmd(a *studio.Attempt) tea.Cmd {
	return func() tea.Msg {
		return renderDoneMsg{outcome: a.Run()}
	}
}

func downloadCmd(ctrl *studio.Controller, dest string) tea.Cmd {
	return func() tea.Msg {
		path, err := ctrl.Download(dest)
		return downloadDoneMsg{path: path, err: err}
	}
}

func playCmd(path string) tea.Cmd {
	return func() tea.Msg {
		return playDoneMsg{err: preview.Open(path)}
	}
}
