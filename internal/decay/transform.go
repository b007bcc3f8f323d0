package decay

import "time"

// Probability gates shared by the text and image variants.
const (
	burnTickChance = 0.15
	burnUnitChance = 0.05

	glitchChance   = 0.3
	glitchDuration = 200 * time.Millisecond

	corruptBelow      = 50
	corruptTickChance = 0.1
	corruptShare      = 0.05

	hallucinateBelow   = 70
	hallucinateReplace = 30
	hallucinateChance  = 0.1
)

// RGB is a colour hint for the render layer.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Cues are side-channel hints a renderer applies to mirror a tick. They
// never feed back into the content.
type Cues struct {
	Opacity   float64       `json:"opacity"`
	Color     *RGB          `json:"color,omitempty"`
	Glitch    bool          `json:"glitch,omitempty"`
	GlitchFor time.Duration `json:"glitch_for,omitempty"`
	Sound     string        `json:"sound,omitempty"`
	Volume    float64       `json:"volume,omitempty"`
}

type transformFunc func(f *Frame, integrity int, rng Rand, t *Tables) Cues

var transforms = map[string]transformFunc{
	Erosion:     erode,
	Burning:     burn,
	Mutation:    mutate,
	Corrupt:     corrupt,
	Autodelete:  autodelete,
	Hallucinate: hallucinate,
}

// Apply runs one round of the named algorithm over f in place. id must be
// canonical; unknown identifiers leave the frame untouched like autodelete.
func Apply(id string, f *Frame, integrity int, rng Rand, t *Tables) Cues {
	integrity = clampInt(integrity, 0, 100)
	fn, ok := transforms[id]
	if !ok {
		fn = autodelete
	}
	return fn(f, integrity, rng, t)
}

// FinalMessage is the terminal line a renderer shows once a session ends.
func FinalMessage(id string) string {
	if id == Autodelete {
		return "Forgotten"
	}
	return ""
}

// BurnColor is the ember tint at the given integrity:
// (255-100d, 200-150d, 150-100d) with d = 1 - integrity/100.
// Computed in whole percent so even integrities land on exact values.
func BurnColor(integrity int) RGB {
	d := 100 - integrity
	return RGB{
		R: clampByte(255 - d),
		G: clampByte(200 - 3*d/2),
		B: clampByte(150 - d),
	}
}

func fade(integrity int) float64 {
	return float64(integrity) / 100
}

func erode(f *Frame, integrity int, rng Rand, _ *Tables) Cues {
	cues := Cues{Opacity: fade(integrity), Sound: SoundWind, Volume: defaultVolume}
	switch f.Type {
	case Text:
		cues.Opacity = 0.3 + 0.7*fade(integrity)
		erodeText(f, integrity, rng)
	case Image:
		erodeImage(f, integrity, rng)
	}
	return cues
}

func burn(f *Frame, integrity int, rng Rand, t *Tables) Cues {
	color := BurnColor(integrity)
	cues := Cues{Opacity: fade(integrity), Color: &color, Sound: SoundFire, Volume: defaultVolume}
	switch f.Type {
	case Text:
		burnText(f, rng, t)
	case Image:
		burnImage(f, integrity, color, rng)
	}
	return cues
}

func mutate(f *Frame, integrity int, rng Rand, t *Tables) Cues {
	cues := Cues{Opacity: 0.5 + float64(integrity)/200}
	if f.Type == Text {
		mutateText(f, integrity, rng, t)
	}
	return cues
}

func corrupt(f *Frame, integrity int, rng Rand, t *Tables) Cues {
	cues := Cues{Opacity: fade(integrity)}
	if rng.Float64() < glitchChance {
		cues.Glitch = true
		cues.GlitchFor = glitchDuration
		cues.Sound = SoundGlitch
		cues.Volume = defaultVolume
	}
	if integrity >= corruptBelow || rng.Float64() >= corruptTickChance {
		return cues
	}
	switch f.Type {
	case Text:
		corruptText(f, rng, t)
	case Image:
		corruptImage(f, integrity, rng)
	}
	return cues
}

func autodelete(_ *Frame, integrity int, _ Rand, _ *Tables) Cues {
	return Cues{Opacity: fade(integrity)}
}

func hallucinate(f *Frame, integrity int, rng Rand, t *Tables) Cues {
	cues := Cues{Opacity: fade(integrity)}
	if f.Type != Text || integrity >= hallucinateBelow {
		return cues
	}
	if rng.Float64() >= hallucinateChance {
		return cues
	}
	phrase := t.hallucination(rng)
	if integrity < hallucinateReplace {
		f.Text = []rune(phrase)
	} else {
		f.Text = append(f.Text, []rune(" ["+phrase+"]")...)
	}
	return cues
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v int) uint8 {
	return uint8(clampInt(v, 0, 255))
}
