package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/oeescout/internal/conversation"
	"github.com/csheth/oeescout/internal/dialogue"
	"github.com/csheth/oeescout/internal/oee"
)

type pageLayout struct {
	windowWidth      int
	windowHeight     int
	sideBySide       bool
	transcriptWidth  int
	transcriptHeight int
	dashboardWidth   int
	composerWidth    int
}

func newPageLayout() pageLayout {
	return pageLayout{
		transcriptWidth:  80,
		transcriptHeight: 16,
		dashboardWidth:   80,
		composerWidth:    70,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	const chrome = 8
	usable := height - chrome
	l.sideBySide = width >= sideBySideMinWidth
	if l.sideBySide {
		l.dashboardWidth = dashboardColumnWidth
		l.transcriptWidth = innerWidth - dashboardColumnWidth - 2
		l.transcriptHeight = usable
	} else {
		l.dashboardWidth = innerWidth
		l.transcriptWidth = innerWidth
		l.transcriptHeight = usable / 2
	}
	if l.transcriptHeight < 6 {
		l.transcriptHeight = 6
	}
	l.composerWidth = innerWidth - 4
	if l.composerWidth < 20 {
		l.composerWidth = 20
	}
}

func (m *model) buildTranscript() string {
	var b strings.Builder
	messages := m.controller.Messages()
	wrap := m.wrapWidth(4)
	if len(messages) == 0 && !m.working() {
		b.WriteString(helperStyle.Render("The conversation appears here. Upload a dataset with Ctrl+U, then ask about OEE."))
		b.WriteRune('\n')
	}
	for idx, msg := range messages {
		b.WriteString(senderLabel(msg.Sender))
		b.WriteString(helperStyle.Render("  " + msg.CreatedAt.Format("15:04")))
		b.WriteRune('\n')
		b.WriteString(indentMultiline(wordwrap.String(msg.Text, wrap), "  "))
		b.WriteRune('\n')
		if msg.Metrics != nil {
			b.WriteString(metricsLineStyle.Render(indentMultiline(wordwrap.String(msg.Metrics.String(), wrap), "  ")))
			b.WriteRune('\n')
		}
		if idx < len(messages)-1 {
			b.WriteRune('\n')
		}
	}
	for _, line := range m.pendingLines() {
		b.WriteRune('\n')
		b.WriteString(helperStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), line)))
		b.WriteRune('\n')
	}
	return b.String()
}

func (m *model) pendingLines() []string {
	var lines []string
	if m.controller.State() == dialogue.StateAwaitingResponse {
		lines = append(lines, "Analyzing…")
	}
	if m.readingDataset {
		lines = append(lines, "Reading dataset…")
	}
	if m.pendingUpload != "" {
		lines = append(lines, "Uploading "+m.pendingUpload+"…")
	}
	return lines
}

func senderLabel(sender conversation.Sender) string {
	if sender == conversation.SenderUser {
		return userLabelStyle.Render("You")
	}
	return assistantLabelStyle.Render("OEE Assistant")
}

func (m *model) buildDashboard(width int) string {
	parts := []string{sectionHeaderStyle.Render("OEE Dashboard")}
	metrics, ok := m.controller.LatestMetrics()
	if !ok {
		parts = append(parts, helperStyle.Render(wordwrap.String("Ask about OEE to populate the dashboard.", width)))
		return strings.Join(parts, "\n")
	}
	parts = append(parts, kpiCards(metrics, width), "")
	for _, component := range oee.Components {
		parts = append(parts, barRow(component, metrics.Value(component)))
	}
	parts = append(parts, "", sectionHeaderStyle.Render("Insights"))
	insights := oee.DeriveInsights(metrics)
	if len(insights) == 0 {
		parts = append(parts, helperStyle.Render("Every tracked figure meets its baseline."))
	}
	for _, insight := range insights {
		icon := insightIcon(insight.Kind)
		body := wordwrap.String(insight.Message, width-3)
		parts = append(parts, icon+" "+strings.TrimLeft(indentMultiline(body, "  "), " "))
	}
	return strings.Join(parts, "\n")
}

func kpiCards(metrics oee.Metrics, width int) string {
	cardWidth := width/2 - 2
	if cardWidth < 14 {
		cardWidth = 14
	}
	cards := make([]string, 0, len(oee.Components))
	for _, component := range oee.Components {
		body := lipgloss.JoinVertical(lipgloss.Left,
			kpiLabelStyle.Render(string(component)),
			kpiValueStyle.Render(oee.FormatPercent(metrics.Value(component))),
		)
		cards = append(cards, kpiCardStyle.Width(cardWidth).Render(body))
	}
	rows := make([]string, 0, 2)
	for i := 0; i < len(cards); i += 2 {
		end := i + 2
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func barRow(component oee.Component, value float64) string {
	return fmt.Sprintf("%-12s %s %s", component, renderBar(value, barWidth), oee.FormatPercent(value))
}

// renderBar clamps only the drawn length; the printed figure stays as received.
func renderBar(value float64, width int) string {
	clamped := math.Max(0, math.Min(100, value))
	filled := int(math.Round(clamped / 100 * float64(width)))
	style := barGoodStyle
	switch {
	case value < 60:
		style = barBadStyle
	case value < oee.OEEBaseline:
		style = barWarnStyle
	}
	return style.Render(strings.Repeat("█", filled)) + barTrackStyle.Render(strings.Repeat("░", width-filled))
}

func insightIcon(kind oee.InsightKind) string {
	switch kind {
	case oee.InsightWarning:
		return insightWarningStyle.Render("✖")
	case oee.InsightImprovement:
		return insightInfoStyle.Render("ℹ")
	default:
		return insightOKStyle.Render("✔")
	}
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}
