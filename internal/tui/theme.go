package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lazypower/ephemeral/internal/decay"
)

var (
	Paper   = lipgloss.Color("#f5f1e8")
	Ink     = lipgloss.Color("#3a3226")
	Faded   = lipgloss.Color("#8b7355")
	Ember   = lipgloss.Color("#d4a574")
	Glitchy = lipgloss.Color("#7d8fa3")

	Frame = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Faded).
		Padding(1, 2)

	Title = lipgloss.NewStyle().Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Faded)
	Hot   = lipgloss.NewStyle().Foreground(Ember).Bold(true)
)

// inkAt fades the ink colour toward the paper colour as opacity drops.
func inkAt(base decay.RGB, opacity float64) lipgloss.Color {
	paper := decay.RGB{R: 0xf5, G: 0xf1, B: 0xe8}
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a)*opacity + float64(b)*(1-opacity))
	}
	return hex(decay.RGB{R: mix(base.R, paper.R), G: mix(base.G, paper.G), B: mix(base.B, paper.B)})
}

func hex(c decay.RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// parseHex reads "#rrggbb"; anything else is ink.
func parseHex(s string) decay.RGB {
	var c decay.RGB
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return decay.RGB{R: 0x3a, G: 0x32, B: 0x26}
	}
	return c
}

// Label title-cases an identifier such as a mode or algorithm id for display.
func Label(s string) string {
	return cases.Title(language.English).String(s)
}
