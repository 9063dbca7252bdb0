package ui

import "charm.land/lipgloss/v2"

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorBorder    = lipgloss.Color("#374151") // Dark gray
	ColorText      = lipgloss.Color("#F9FAFB") // Light text
	ColorTextMuted = lipgloss.Color("#B0B8C4") // Muted text
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorSuccess   = lipgloss.Color("#10B981") // Green
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 1)
)

// Status line styles, one per connection state
var (
	StatusConnectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorSuccess)

	StatusConnectingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorWarning)

	StatusDisconnectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorError)

	StatusAddressStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted)
)

// Log and input styles
var (
	LogStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// Footer styles
var (
	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	FooterKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)
)
