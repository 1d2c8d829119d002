package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/crewhq/crew/internal/team"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on dark surfaces
	primaryColor = lipgloss.Color("#A78BFA") // Purple (violet-400)
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	surfaceColor = lipgloss.Color("#1F2937") // Dark surface
	textColor    = lipgloss.Color("#F9FAFB") // Light text
	borderColor  = lipgloss.Color("#6B7280") // Gray (gray-500)

	greenColor  = lipgloss.Color("#10B981") // Green
	redColor    = lipgloss.Color("#F87171") // Red (red-400)
	blueColor   = lipgloss.Color("#60A5FA") // Blue
	yellowColor = lipgloss.Color("#FBBF24") // Yellow
	purpleColor = lipgloss.Color("#A78BFA") // Purple
	orangeColor = lipgloss.Color("#FB923C") // Orange
	pinkColor   = lipgloss.Color("#F472B6") // Pink
	cyanColor   = lipgloss.Color("#22D3EE") // Cyan (cyan-400)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(redColor)

	helpKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(greenColor)
)

// memberColors maps the roster's display-color names to terminal colors.
// The names come from the fixed rotation teammates are assigned from at
// spawn time.
var memberColors = map[string]lipgloss.Color{
	"blue":   blueColor,
	"green":  greenColor,
	"yellow": yellowColor,
	"purple": purpleColor,
	"orange": orangeColor,
	"pink":   pinkColor,
	"cyan":   cyanColor,
	"red":    redColor,
}

// memberStyle returns the style for a member's display color. The lead
// has no color and renders in the default text color.
func memberStyle(color string) lipgloss.Style {
	if c, ok := memberColors[color]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle().Foreground(textColor)
}

// statusDot renders a member's liveness as a colored dot.
func statusDot(status team.MemberStatus) string {
	switch status {
	case team.StatusAlive:
		return lipgloss.NewStyle().Foreground(greenColor).Render("●")
	case team.StatusDead:
		return lipgloss.NewStyle().Foreground(redColor).Render("●")
	default:
		return mutedStyle.Render("●")
	}
}
