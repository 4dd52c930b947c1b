package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorPositive  = lipgloss.Color("78")  // Green
	colorNegative  = lipgloss.Color("203") // Red
	colorNeutral   = lipgloss.Color("250") // Light gray
	colorSelected  = lipgloss.Color("220") // Amber
)

// TitleBar style for the top line.
var TitleBar = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// SelectedItem style for the highlighted post.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("237"))

// NormalItem style for other posts.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// SourceBadge style for source names.
var SourceBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Bold(true)

// ProductBadge style for product labels.
var ProductBadge = lipgloss.NewStyle().
	Foreground(colorHighlight)

// MetaText style for timestamps and authors.
var MetaText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// Sentiment markers.
var (
	PositiveStyle = lipgloss.NewStyle().Foreground(colorPositive)
	NegativeStyle = lipgloss.NewStyle().Foreground(colorNegative)
	NeutralStyle  = lipgloss.NewStyle().Foreground(colorNeutral)
	// SelectedBar paints buckets inside the drag overlay or the date filter.
	SelectedBar = lipgloss.NewStyle().Foreground(colorSelected)
)

// AxisStyle for chart axes and labels.
var AxisStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// NoticeStyle for transient chart notices.
var NoticeStyle = lipgloss.NewStyle().
	Foreground(colorSelected).
	Padding(0, 1)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help and empty-state text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 2)

// FilterBar style for the active filter line.
var FilterBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("240")).
	Padding(0, 1)

// FilterBarPrompt style for input prompts.
var FilterBarPrompt = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// FilterChip style for one active filter.
var FilterChip = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Bold(true)

// FilterBarCount style for the filtered count.
var FilterBarCount = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252"))

// DebugPanel style for the debug overlay container.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers within the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
