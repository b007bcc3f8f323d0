package decay

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// TablesVersion is the table document version this build understands.
const TablesVersion = 1

//go:embed tables.yaml
var defaultTablesYAML []byte

// Tables holds the fixed lookup data the transforms draw from. Tables are
// loaded once when an engine is built and treated as read-only afterwards.
type Tables struct {
	Version          int                 `yaml:"version"`
	Accents          map[string][]string `yaml:"accents"`
	CharredGlyph     string              `yaml:"charred_glyph"`
	CorruptionGlyphs []string            `yaml:"corruption_glyphs"`
	Hallucinations   []string            `yaml:"hallucinations"`

	accents map[rune][]rune
	charred rune
	glyphs  []rune
}

var defaultTables = sync.OnceValues(func() (*Tables, error) {
	return LoadTables(bytes.NewReader(defaultTablesYAML))
})

// DefaultTables returns the tables compiled into the binary.
func DefaultTables() *Tables {
	t, err := defaultTables()
	if err != nil {
		// The embedded document is covered by tests; failing here is a build defect.
		panic(fmt.Sprintf("decay: embedded tables: %v", err))
	}
	return t
}

// LoadTablesFile reads a table document from disk.
func LoadTablesFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tables: %w", err)
	}
	defer f.Close()
	return LoadTables(f)
}

// LoadTables parses and validates a table document.
func LoadTables(r io.Reader) (*Tables, error) {
	var t Tables
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	if t.Version != TablesVersion {
		return nil, fmt.Errorf("tables version %d not supported (want %d)", t.Version, TablesVersion)
	}

	t.accents = make(map[rune][]rune, len(t.Accents))
	for key, variants := range t.Accents {
		k, err := singleRune(key)
		if err != nil {
			return nil, fmt.Errorf("accent key %q: %w", key, err)
		}
		for _, v := range variants {
			vr, err := singleRune(v)
			if err != nil {
				return nil, fmt.Errorf("accent variant %q for %q: %w", v, key, err)
			}
			t.accents[k] = append(t.accents[k], vr)
		}
	}

	charred, err := singleRune(t.CharredGlyph)
	if err != nil {
		return nil, fmt.Errorf("charred glyph: %w", err)
	}
	t.charred = charred

	if len(t.CorruptionGlyphs) == 0 {
		return nil, fmt.Errorf("corruption glyphs: empty")
	}
	for _, g := range t.CorruptionGlyphs {
		gr, err := singleRune(g)
		if err != nil {
			return nil, fmt.Errorf("corruption glyph %q: %w", g, err)
		}
		t.glyphs = append(t.glyphs, gr)
	}

	if len(t.Hallucinations) == 0 {
		return nil, fmt.Errorf("hallucinations: empty")
	}
	return &t, nil
}

// singleRune requires s to be exactly one visible, non-space character.
func singleRune(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("want exactly one character")
	}
	r, _ := utf8.DecodeRuneInString(s)
	if unicode.IsSpace(r) || !unicode.IsPrint(r) {
		return 0, fmt.Errorf("must be a visible character")
	}
	return r, nil
}

// accentFor picks a variant of r, or returns r unchanged when it has none.
func (t *Tables) accentFor(r rune, rng Rand) rune {
	variants := t.accents[r]
	if len(variants) == 0 {
		return r
	}
	return variants[rng.IntN(len(variants))]
}

func (t *Tables) corruptionGlyph(rng Rand) rune {
	return t.glyphs[rng.IntN(len(t.glyphs))]
}

func (t *Tables) hallucination(rng Rand) string {
	return t.Hallucinations[rng.IntN(len(t.Hallucinations))]
}
