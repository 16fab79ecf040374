package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/csheth/oeescout/internal/filters"
)

func (m *model) View() string {
	m.refreshTranscriptIfDirty()
	parts := []string{m.heroView(), m.filterBarView()}

	transcript := transcriptBoxStyle.Render(m.viewport.View())
	dashboard := dashboardBoxStyle.Width(m.layout.dashboardWidth).Render(m.buildDashboard(m.layout.dashboardWidth - 4))
	if m.layout.sideBySide {
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, transcript, "  ", dashboard))
	} else {
		parts = append(parts, transcript, dashboard)
	}

	parts = append(parts, m.composerView(), m.statusBarView())
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	return lipgloss.JoinHorizontal(lipgloss.Center, renderLogo(), taglineStyle.Render(heroTagline))
}

func (m *model) filterBarView() string {
	selection := m.controller.Catalog().CurrentSelection()
	cells := make([]string, 0, len(filterDimensions))
	for idx, dim := range filterDimensions {
		value := selection.Get(dim)
		if value == "" {
			value = "all"
		}
		cell := fmt.Sprintf("%s: %s", filterLabel(dim), value)
		if idx == m.filterFocus {
			cells = append(cells, filterFocusStyle.Render(cell))
		} else {
			cells = append(cells, filterStyle.Render(cell))
		}
	}
	bar := strings.Join(cells, " ")
	if m.catalogLoading {
		bar += " " + helperStyle.Render(m.spinner.View()+" loading filters")
	}
	return bar
}

func filterLabel(dim filters.Dimension) string {
	switch dim {
	case filters.DimensionDevice:
		return "Device"
	case filters.DimensionLocation:
		return "Location"
	case filters.DimensionMonth:
		return "Month"
	default:
		return dim.String()
	}
}

func (m *model) composerView() string {
	label := "Ask"
	if m.composerMode == composerModeUpload {
		label = "Upload"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, composerLabelStyle.Render(label), " ", m.composer.View())
}

func (m *model) statusBarView() string {
	stats := []string{
		m.backendName(),
		fmt.Sprintf("Messages %d", len(m.controller.Messages())),
		"Query " + m.controller.State().String(),
		"Upload " + m.controller.UploadState().String(),
	}
	if m.lastJob != nil {
		stats = append(stats, fmt.Sprintf("Last %s %s in %s", m.lastJob.Kind, m.lastJob.Status, m.lastJob.Duration.Round(10*time.Millisecond)))
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) backendName() string {
	if m.config.Backend == nil {
		return "No backend"
	}
	return m.config.Backend.Name()
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"enter", "Send question"},
		{"ctrl+u", "Upload dataset"},
		{"tab", "Next filter"},
		{"ctrl+n/p", "Cycle filter value"},
		{"ctrl+x", "Clear filters"},
		{"ctrl+r", "Reload filters"},
		{"pgup/pgdn", "Scroll conversation"},
		{"esc", "Cancel or quit"},
		{"f1", "Toggle help"},
	}
	rows := []string{sectionHeaderStyle.Render("Keyboard Shortcuts")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n")
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width++
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}
	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	// shadow first, offset down and right
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r != ' ' {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r != ' ' {
				grid[y][x] = cell{r: r, style: logoFaceStyle}
			}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}
