package decay

import (
	"math"
	"unicode"
)

// mutateText drifts characters toward look-alikes. Whitespace is never
// touched, so line and word boundaries survive any number of rounds.
func mutateText(f *Frame, integrity int, rng Rand, t *Tables) {
	p := float64(100-integrity) / 200
	for i, r := range f.Text {
		if unicode.IsSpace(r) || rng.Float64() >= p {
			continue
		}
		if rng.Float64() < 0.7 {
			f.Text[i] = t.accentFor(r, rng)
			continue
		}
		if rng.Float64() < 0.5 {
			f.Text[i] = rune('A' + rng.IntN(26))
		}
	}
}

// erodeText blanks or removes characters; removal shortens the text.
func erodeText(f *Frame, integrity int, rng Rand) {
	p := float64(100-integrity) / 100 * 0.3
	out := f.Text[:0]
	for _, r := range f.Text {
		if !unicode.IsSpace(r) && rng.Float64() < p {
			if rng.Float64() < 0.5 {
				out = append(out, ' ')
			}
			continue
		}
		out = append(out, r)
	}
	f.Text = out
}

func burnText(f *Frame, rng Rand, t *Tables) {
	if rng.Float64() >= burnTickChance {
		return
	}
	for i, r := range f.Text {
		if !unicode.IsSpace(r) && rng.Float64() < burnUnitChance {
			f.Text[i] = t.charred
		}
	}
}

// corruptText overwrites roughly five percent of the visible characters,
// always at least one when any remain.
func corruptText(f *Frame, rng Rand, t *Tables) {
	var visible []int
	for i, r := range f.Text {
		if !unicode.IsSpace(r) {
			visible = append(visible, i)
		}
	}
	if len(visible) == 0 {
		return
	}
	n := int(math.Round(corruptShare * float64(len(visible))))
	if n < 1 {
		n = 1
	}
	for k := 0; k < n; k++ {
		f.Text[visible[rng.IntN(len(visible))]] = t.corruptionGlyph(rng)
	}
}
