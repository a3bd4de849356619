package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette for text output. Colors only render on a terminal; writers that
// are not TTYs get plain text.
var (
	colorPass  = lipgloss.Color("#9ece6a")
	colorFail  = lipgloss.Color("#f7768e")
	colorWarn  = lipgloss.Color("#e0af68")
	colorMuted = lipgloss.Color("#565f89")
)

// styles renders status marks for one output writer.
type styles struct {
	pass  lipgloss.Style
	fail  lipgloss.Style
	warn  lipgloss.Style
	muted lipgloss.Style
	bold  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		pass:  r.NewStyle().Foreground(colorPass),
		fail:  r.NewStyle().Foreground(colorFail).Bold(true),
		warn:  r.NewStyle().Foreground(colorWarn),
		muted: r.NewStyle().Foreground(colorMuted),
		bold:  r.NewStyle().Bold(true),
	}
}

func (s styles) mark(ok bool) string {
	if ok {
		return s.pass.Render("✓")
	}
	return s.fail.Render("✗")
}
