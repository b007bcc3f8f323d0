package decay

import "strings"

// Canonical algorithm identifiers.
const (
	Erosion     = "erosion"
	Burning     = "burning"
	Mutation    = "mutation"
	Corrupt     = "corrupt"
	Autodelete  = "autodelete"
	Hallucinate = "hallucinate"
)

// Ambient sounds a renderer may loop while an algorithm runs.
const (
	SoundWind   = "wind"
	SoundFire   = "fire"
	SoundGlitch = "glitch"

	defaultVolume = 0.2
)

// Descriptor describes a decay algorithm for presentation.
type Descriptor struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Color       string        `json:"color"`
	Icon        string        `json:"icon"`
	Sound       string        `json:"sound,omitempty"`
	Applies     []ContentType `json:"applies"`
}

// AppliesTo reports whether the algorithm transforms content of type t.
// Pairings that do not apply still run; the content is simply left alone.
func (d Descriptor) AppliesTo(t ContentType) bool {
	for _, a := range d.Applies {
		if a == t {
			return true
		}
	}
	return false
}

// Forgotten is returned for identifiers the registry does not know.
var Forgotten = Descriptor{
	ID:          "",
	Name:        "Forgotten",
	Description: "A memory released",
	Color:       "#8b7355",
	Icon:        "fas fa-question",
}

var canonicalDescriptors = []Descriptor{
	{
		ID:          Erosion,
		Name:        "Erosion",
		Description: "Like sand writing washed away by the tide",
		Color:       "#a3b899",
		Icon:        "fas fa-wind",
		Sound:       SoundWind,
		Applies:     []ContentType{Text, Image},
	},
	{
		ID:          Burning,
		Name:        "Burning",
		Description: "Like a letter consumed by protective flames",
		Color:       "#d4a574",
		Icon:        "fas fa-fire",
		Sound:       SoundFire,
		Applies:     []ContentType{Text, Image},
	},
	{
		ID:          Mutation,
		Name:        "Mutation",
		Description: "Like stories that change with each retelling",
		Color:       "#9a8c98",
		Icon:        "fas fa-comments",
		Applies:     []ContentType{Text},
	},
	{
		ID:          Corrupt,
		Name:        "Corruption",
		Description: "Like a file rotting bit by bit",
		Color:       "#7d8fa3",
		Icon:        "fas fa-bug",
		Sound:       SoundGlitch,
		Applies:     []ContentType{Text, Image},
	},
	{
		ID:          Autodelete,
		Name:        "Autodelete",
		Description: "Gone at once, without ceremony",
		Color:       "#6e6e6e",
		Icon:        "fas fa-trash",
		Applies:     []ContentType{Text, Image, Audio},
	},
	{
		ID:          Hallucinate,
		Name:        "Hallucination",
		Description: "Like a mind inventing what it lost",
		Color:       "#b48ead",
		Icon:        "fas fa-ghost",
		Applies:     []ContentType{Text},
	},
}

// Alternative names used by older entry points.
var aliases = map[string]string{
	"sand": Erosion,
	"burn": Burning,
	"oral": Mutation,
}

// Registry maps algorithm identifiers to descriptors. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	byID  map[string]Descriptor
	order []string
}

// NewRegistry builds the registry of the six canonical algorithms.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[string]Descriptor, len(canonicalDescriptors))}
	for _, d := range canonicalDescriptors {
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r
}

// Canonical resolves aliases and case. Unknown identifiers come back trimmed
// but otherwise unchanged.
func (r *Registry) Canonical(id string) string {
	key := strings.ToLower(strings.TrimSpace(id))
	if c, ok := aliases[key]; ok {
		return c
	}
	if _, ok := r.byID[key]; ok {
		return key
	}
	return strings.TrimSpace(id)
}

// Known reports whether id (or its alias) names a canonical algorithm.
func (r *Registry) Known(id string) bool {
	_, ok := r.byID[r.Canonical(id)]
	return ok
}

// Lookup never fails: unknown identifiers resolve to Forgotten.
func (r *Registry) Lookup(id string) Descriptor {
	if d, ok := r.byID[r.Canonical(id)]; ok {
		return d
	}
	d := Forgotten
	d.ID = id
	return d
}

// IDs returns the canonical identifiers in registry order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// All returns every canonical descriptor in registry order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Pick selects one canonical identifier uniformly at random.
func (r *Registry) Pick(rng Rand) string {
	return r.order[rng.IntN(len(r.order))]
}
