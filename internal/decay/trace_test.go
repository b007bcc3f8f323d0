package decay

import (
	"image"
	"strings"
	"testing"
	"unicode/utf8"

	"pgregory.net/rapid"
)

func TestTrace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello", "•••••"},
		{"a very long memory text", "a v...ext"},
		{"", ""},
		{"0123456789", "••••••••••"},
		{"0123456789A", "012...89A"},
		{"café au lait!", "caf...it!"},
		{"ñandú", "•••••"},
	}

	for _, tt := range tests {
		if got := Trace(tt.input); got != tt.want {
			t.Errorf("Trace(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTraceOf(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 16))

	tests := []struct {
		name    string
		content Content
		trace   string
		length  int
	}{
		{"text", Content{Type: Text, Text: "hello"}, "•••••", 5},
		{"image", Content{Type: Image, Image: img}, "32x16", 512},
		{"audio", Content{Type: Audio, Audio: make([]byte, 2048)}, "", 2048},
	}
	for _, tt := range tests {
		if got := TraceOf(tt.content); got != tt.trace {
			t.Errorf("%s: TraceOf = %q, want %q", tt.name, got, tt.trace)
		}
		if got := LengthOf(tt.content); got != tt.length {
			t.Errorf("%s: LengthOf = %d, want %d", tt.name, got, tt.length)
		}
	}
}

func TestTraceKeepsAtMostSixCharacters(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.String().Draw(rt, "memory")
		trace := Trace(s)

		n := utf8.RuneCountInString(s)
		if n <= 10 {
			if trace != strings.Repeat(PlaceholderGlyph, n) {
				rt.Fatalf("Trace(%q) = %q, want %d placeholders", s, trace, n)
			}
			return
		}
		kept := strings.Replace(trace, "...", "", 1)
		if c := utf8.RuneCountInString(kept); c != 6 {
			rt.Fatalf("Trace(%q) keeps %d characters, want 6", s, c)
		}
	})
}
