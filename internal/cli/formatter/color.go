package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mediajel/apidocs/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// IntentStyle returns the color used for an intent everywhere it is shown.
func IntentStyle(intent domain.QueryIntent) lipgloss.Style {
	switch intent {
	case domain.IntentSchemaQuery:
		return StyleBlue
	case domain.IntentDomainKnowledge:
		return StylePurple
	case domain.IntentHybrid:
		return StyleGreen
	default:
		return StyleDim
	}
}

// IntentBadge renders an intent such as "● HYBRID".
func IntentBadge(intent domain.QueryIntent) string {
	return IntentStyle(intent).Render("● " + string(intent))
}

// ConfidenceText renders a 0..1 confidence as a percentage, colored by how
// sure the classifier was.
func ConfidenceText(c float64) string {
	text := fmt.Sprintf("%.0f%%", c*100)
	switch {
	case c >= 0.7:
		return StyleGreen.Render(text)
	case c >= 0.5:
		return StyleYellow.Render(text)
	default:
		return StyleRed.Render(text)
	}
}

// StatusText colors an HTTP status code by class. Zero means no response.
func StatusText(code int, text string) string {
	label := fmt.Sprintf("%d %s", code, text)
	switch {
	case code == 0:
		return StyleRed.Render("no response")
	case code < 300:
		return StyleGreen.Render(label)
	case code < 400:
		return StyleBlue.Render(label)
	case code < 500:
		return StyleYellow.Render(label)
	default:
		return StyleRed.Render(label)
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
