package decay

import (
	"fmt"
	"strings"
)

// PlaceholderGlyph stands in for each character of a short memory.
const PlaceholderGlyph = "•"

const (
	traceShortLimit = 10
	traceKeep       = 3
)

// Trace returns the archival digest of a text memory. Memories of ten
// characters or fewer are masked entirely; longer ones keep only their first
// and last three characters.
func Trace(s string) string {
	runes := []rune(s)
	if len(runes) <= traceShortLimit {
		return strings.Repeat(PlaceholderGlyph, len(runes))
	}
	return string(runes[:traceKeep]) + "..." + string(runes[len(runes)-traceKeep:])
}

// TraceOf digests any captured content. Images keep only their dimensions and
// audio keeps nothing.
func TraceOf(c Content) string {
	switch c.Type {
	case Text:
		return Trace(c.Text)
	case Image:
		if c.Image == nil {
			return "0x0"
		}
		b := c.Image.Bounds()
		return fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
	}
	return ""
}

// LengthOf measures content in its natural unit: characters, pixels or bytes.
func LengthOf(c Content) int {
	switch c.Type {
	case Text:
		return len([]rune(c.Text))
	case Image:
		if c.Image == nil {
			return 0
		}
		b := c.Image.Bounds()
		return b.Dx() * b.Dy()
	case Audio:
		return len(c.Audio)
	}
	return 0
}
