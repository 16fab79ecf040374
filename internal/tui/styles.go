package tui

import "github.com/charmbracelet/lipgloss"

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	accentColor        = lipgloss.Color("#2a9d8f")
	emberColor         = lipgloss.Color("#0b2522")
	textColor          = lipgloss.Color("#e9f5f2")
	secondaryTextColor = lipgloss.Color("#8ad1c2")

	taglineStyle        = lipgloss.NewStyle().Foreground(secondaryTextColor).Italic(true).PaddingLeft(2)
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd166"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	metricsLineStyle    = lipgloss.NewStyle().Foreground(secondaryTextColor)
	transcriptBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e"))
	dashboardBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accentColor).Padding(0, 1)
	kpiCardStyle        = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#3d5a80")).Padding(0, 1)
	kpiLabelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	kpiValueStyle       = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	barGoodStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#2a9d8f"))
	barWarnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#e9c46a"))
	barBadStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#e76f51"))
	barTrackStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#3a3a3a"))
	insightWarningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e76f51"))
	insightInfoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8ecae6"))
	insightOKStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a3be8c"))
	filterStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4")).Padding(0, 1)
	filterFocusStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	composerLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	statusBarStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle            = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	logoFaceStyle       = lipgloss.NewStyle().Bold(true).Foreground(textColor).Background(emberColor)
	logoShadowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#031210"))
	logoContainerStyle  = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines        = []string{
		"█▀▀█ █▀▀ █▀▀   █▀▀ █▀▀ █▀▀█ █  █ ▀█▀",
		"█  █ █▀▀ █▀▀   ▀▀█ █   █  █ █  █  █ ",
		"▀▀▀▀ ▀▀▀ ▀▀▀   ▀▀▀ ▀▀▀ ▀▀▀▀ ▀▀▀▀  ▀ ",
	}
)
