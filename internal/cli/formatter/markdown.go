package formatter

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const defaultWrap = 80

// NewMarkdownRenderer returns a glamour renderer wrapping at width, or at 80
// columns when width is not positive.
func NewMarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	if width <= 0 {
		width = defaultWrap
	}
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
}

// RenderMarkdown renders md for the terminal. The markdown is returned as is
// when it cannot be rendered.
func RenderMarkdown(md string, width int) string {
	r, err := NewMarkdownRenderer(width)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}
