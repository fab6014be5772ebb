package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tracker-studio/internal/params"
	"tracker-studio/internal/selection"
	"tracker-studio/internal/studio"
)

func (m studioModel) View() string {
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}

	view := m.ctrl.View()
	if view.Notice != nil {
		return m.viewAlert(view.Notice)
	}
	switch m.mode {
	case studioModePicker:
		return m.viewPicker()
	case studioModeEdit:
		return m.viewEdit()
	default:
		return m.viewMain(view)
	}
}

func (m studioModel) viewMain(view studio.View) string {
	header := studioTitleStyle.Render("tracker-studio") + "\n" +
		studioMutedStyle.Render("o: pick video | up/down: control | left/right: adjust | e: edit | r/enter: render | p: play | d: download | q: quit")

	if m.width < 90 {
		body := lipgloss.JoinVertical(lipgloss.Left,
			m.renderUploadPanel(view, m.width),
			m.renderControlsPanel(m.width),
			m.renderTrigger(view, m.width),
			m.renderResultPanel(view, m.width),
		)
		return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusLine(m.width))
	}

	leftW := clampInt(m.width/2, 40, 64)
	rightW := m.width - leftW - 1
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderUploadPanel(view, leftW),
		m.renderControlsPanel(leftW),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTrigger(view, rightW),
		m.renderResultPanel(view, rightW),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusLine(m.width))
}

func (m studioModel) renderUploadPanel(view studio.View, width int) string {
	lines := []string{"Source video", ""}
	if view.HasSelection {
		sel := view.Selection
		lines = append(lines, studioOKStyle.Render("READY: "+sel.Name+" ✓"))
		lines = append(lines, kv("type", defaultIfEmpty(sel.MediaType, "unknown")))
		if sel.Size > 0 {
			lines = append(lines, kv("size", formatBytesIEC(sel.Size)))
		}
		if sel.MediaType != "" && !selection.Accepted(sel.MediaType) {
			lines = append(lines, studioMutedStyle.Render("not a recognised video type; the server may reject it"))
		}
	} else {
		lines = append(lines, "Press o to pick a video")
		lines = append(lines, studioMutedStyle.Render("accepted: "+strings.Join(selection.AcceptedExtensions, " ")))
	}
	for i := range lines {
		lines[i] = wrapOrTrim(lines[i], maxInt(width-6, 12))
	}
	return studioPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m studioModel) renderControlsPanel(width int) string {
	visible := m.visibleSpecs()
	cursor := clampInt(m.cursor, 0, maxInt(len(visible)-1, 0))
	maxRows := clampInt(m.height-14, 4, len(visible))
	start, end := listWindow(len(visible), cursor, maxRows)

	lines := make([]string, 0, len(visible)+4)
	lines = append(lines, "Tracking controls", "")
	if start > 0 {
		lines = append(lines, studioMutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		s := visible[i]
		value := m.controls.Display(s.Key)
		switch s.Kind {
		case params.KindSelect:
			value = "< " + value + " >"
		case params.KindRange:
			value = fmt.Sprintf("%s  (%d-%d)", value, s.Min, s.Max)
		case params.KindText:
			value = `"` + value + `"`
		}
		line := truncateRunes(fmt.Sprintf("%s: %s", s.Label, value), maxInt(width-6, 10))
		if i == cursor {
			line = studioSelStyle.Width(maxInt(width-4, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	if end < len(visible) {
		lines = append(lines, studioMutedStyle.Render("..."))
	}
	if s, ok := m.currentSpec(); ok && s.Help != "" {
		lines = append(lines, "", studioMutedStyle.Render(wrapOrTrim(s.Help, maxInt(width-6, 12))))
	}
	return studioPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m studioModel) renderTrigger(view studio.View, width int) string {
	if view.Trigger.Enabled {
		return studioPanelStyle.Width(width).Render(studioTriggerStyle.Render(view.Trigger.Label))
	}
	line := m.spinner.View() + " " + studioBusyStyle.Render(view.Trigger.Label)
	line += "\n" + studioMutedStyle.Render(m.upload.Summary())
	if view.AttemptID != "" {
		line += "\n" + studioMutedStyle.Render("attempt "+truncateRunes(view.AttemptID, 8))
	}
	return studioPanelStyle.Width(width).Render(line)
}

func (m studioModel) renderResultPanel(view studio.View, width int) string {
	if !view.DownloadVisible || view.Result == nil {
		return ""
	}
	lines := []string{
		studioOKStyle.Render("Render complete"),
		"",
		kv("size", formatBytesIEC(view.Result.Size())),
		kv("type", view.Result.MediaType()),
		"",
		"p: play | d: download",
		studioMutedStyle.Render("saves to " + m.downloadPath),
	}
	for i := range lines {
		lines[i] = wrapOrTrim(lines[i], maxInt(width-6, 12))
	}
	return studioPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m studioModel) renderStatusLine(width int) string {
	msg := strings.TrimSpace(m.statusMessage)
	if msg == "" {
		msg = "Tip: pick a video with o, tune the overlay, then press r."
	}
	style := studioMutedStyle
	lower := strings.ToLower(msg)
	if strings.HasPrefix(lower, "error:") {
		style = studioErrorStyle
	} else if strings.HasPrefix(lower, "saved") || strings.HasPrefix(lower, "render finished") || strings.HasPrefix(lower, "selected") {
		style = studioOKStyle
	}
	return style.Width(width).Render(truncateRunes(msg, maxInt(width-2, 10)))
}

func (m studioModel) viewPicker() string {
	header := studioTitleStyle.Render("Select a video")
	hints := studioMutedStyle.Render("up/down: move | enter/right: open or select | left/backspace: parent | esc: cancel")
	dir := studioMutedStyle.Render(truncateRunes(m.picker.CurrentDirectory, maxInt(m.width-6, 20)))
	panel := studioPanelStyle.Width(maxInt(m.width-2, 40)).Render(dir + "\n\n" + m.picker.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel, m.renderStatusLine(m.width))
}

func (m studioModel) viewEdit() string {
	spec, _ := params.Lookup(m.editKey)
	header := studioTitleStyle.Render("Edit " + spec.Label)
	hints := studioMutedStyle.Render("enter: apply | esc: cancel")

	body := spec.Label + "\n"
	switch spec.Kind {
	case params.KindColor:
		body += studioMutedStyle.Render("hex color, e.g. #00ff00") + "\n"
	case params.KindRange:
		body += studioMutedStyle.Render(fmt.Sprintf("%d-%d%s, values outside are clamped", spec.Min, spec.Max, spec.Suffix)) + "\n"
	}
	if spec.Help != "" {
		body += studioMutedStyle.Render(spec.Help) + "\n"
	}
	body += m.input.View()
	if strings.TrimSpace(m.editError) != "" {
		body += "\n" + studioErrorStyle.Render(m.editError)
	}
	panel := studioPanelStyle.Width(maxInt(m.width-2, 40)).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}

func (m studioModel) viewAlert(notice *studio.Error) string {
	text := studioErrorStyle.Render("ALERT") + "\n\n" + notice.Message + "\n\n" +
		studioMutedStyle.Render("Press Enter or Esc to dismiss.")
	boxW := clampInt(m.width-8, 36, 72)
	panel := studioAlertStyle.Width(boxW).Render(text)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
