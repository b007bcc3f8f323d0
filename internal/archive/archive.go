package archive

import (
	"context"
	"errors"
	"time"
)

// DefaultCap is how many entries an archive keeps before evicting the oldest.
const DefaultCap = 100

// ErrUnknownBackend is returned when configuration names no known backend.
var ErrUnknownBackend = errors.New("unknown archive backend")

// Entry is the only record left of a forgotten memory. It never carries the
// content itself.
type Entry struct {
	ID        int64     `json:"id"`
	Algorithm string    `json:"algorithm"`
	Timestamp time.Time `json:"timestamp"`
	Length    int       `json:"length"`
	Trace     string    `json:"trace"`
	Mode      string    `json:"mode"`
}

// Stats summarises the archive.
type Stats struct {
	Total               int    `json:"total"`
	Today               int    `json:"today"`
	MostCommonAlgorithm string `json:"most_common_algorithm"`
	MostCommonCount     int    `json:"most_common_count"`
}

// Store is an append-only, bounded sequence of entries.
type Store interface {
	// Append assigns the next id and evicts the oldest entries beyond the cap.
	// Ids are never reused, not even after Clear.
	Append(ctx context.Context, e Entry) (Entry, error)
	// List returns entries oldest first.
	List(ctx context.Context) ([]Entry, error)
	Stats(ctx context.Context, now time.Time) (Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// ComputeStats derives Stats from entries in insertion order. "Today" uses
// now's location. When algorithms tie, the one that reached the top count
// first wins.
func ComputeStats(entries []Entry, now time.Time) Stats {
	s := Stats{Total: len(entries), MostCommonAlgorithm: "none"}
	y, m, d := now.Date()
	counts := make(map[string]int)
	for _, e := range entries {
		ey, em, ed := e.Timestamp.In(now.Location()).Date()
		if ey == y && em == m && ed == d {
			s.Today++
		}
		counts[e.Algorithm]++
		if c := counts[e.Algorithm]; c > s.MostCommonCount {
			s.MostCommonAlgorithm = e.Algorithm
			s.MostCommonCount = c
		}
	}
	return s
}

func normalizeCap(n int) int {
	if n <= 0 {
		return DefaultCap
	}
	return n
}
