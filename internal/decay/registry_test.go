package decay

import "testing"

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		id   string
		want string
	}{
		{"erosion", "Erosion"},
		{"sand", "Erosion"},
		{"burning", "Burning"},
		{"burn", "Burning"},
		{"mutation", "Mutation"},
		{"oral", "Mutation"},
		{"corrupt", "Corruption"},
		{"autodelete", "Autodelete"},
		{"hallucinate", "Hallucination"},
		{"  Burning ", "Burning"},
		{"", "Forgotten"},
		{"melting", "Forgotten"},
	}

	for _, tt := range tests {
		got := r.Lookup(tt.id)
		if got.Name != tt.want {
			t.Errorf("Lookup(%q).Name = %q, want %q", tt.id, got.Name, tt.want)
		}
	}
}

func TestRegistryLookupUnknownKeepsID(t *testing.T) {
	d := NewRegistry().Lookup("melting")
	if d.ID != "melting" {
		t.Errorf("ID = %q, want melting", d.ID)
	}
	if d.Color != Forgotten.Color || d.Icon != Forgotten.Icon {
		t.Errorf("unknown descriptor = %+v, want Forgotten defaults", d)
	}
}

func TestRegistryCanonical(t *testing.T) {
	r := NewRegistry()
	tests := map[string]string{
		"sand":     Erosion,
		"BURN":     Burning,
		"oral":     Mutation,
		"corrupt":  Corrupt,
		"mystery":  "mystery",
		" spaced ": "spaced",
	}
	for in, want := range tests {
		if got := r.Canonical(in); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRegistryIDs(t *testing.T) {
	ids := NewRegistry().IDs()
	want := []string{Erosion, Burning, Mutation, Corrupt, Autodelete, Hallucinate}
	if len(ids) != len(want) {
		t.Fatalf("IDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestDescriptorApplicability(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		id   string
		ct   ContentType
		want bool
	}{
		{Hallucinate, Text, true},
		{Hallucinate, Image, false},
		{Hallucinate, Audio, false},
		{Autodelete, Text, true},
		{Autodelete, Image, true},
		{Autodelete, Audio, true},
		{Mutation, Image, false},
		{Erosion, Image, true},
		{Burning, Audio, false},
	}
	for _, tt := range tests {
		if got := r.Lookup(tt.id).AppliesTo(tt.ct); got != tt.want {
			t.Errorf("%s applies to %s = %v, want %v", tt.id, tt.ct, got, tt.want)
		}
	}
}

func TestRegistryPickCoversAll(t *testing.T) {
	r := NewRegistry()
	rng := NewRand(42)
	seen := map[string]int{}
	for i := 0; i < 600; i++ {
		seen[r.Pick(rng)]++
	}
	for _, id := range r.IDs() {
		if seen[id] == 0 {
			t.Errorf("Pick never chose %q in 600 draws", id)
		}
	}
	if len(seen) != 6 {
		t.Errorf("Pick chose %d distinct ids, want 6", len(seen))
	}
}

func TestParseContentType(t *testing.T) {
	for _, in := range []string{"text", "IMAGE", " audio "} {
		if _, err := ParseContentType(in); err != nil {
			t.Errorf("ParseContentType(%q): %v", in, err)
		}
	}
	if _, err := ParseContentType("video"); err == nil {
		t.Error("expected error for video")
	}
}
