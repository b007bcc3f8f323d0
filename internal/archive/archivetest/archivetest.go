// Package archivetest checks that an archive.Store behaves like every other
// backend.
package archivetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lazypower/ephemeral/internal/archive"
)

// NewStore returns an empty store holding at most cap entries.
type NewStore func(t *testing.T, cap int) archive.Store

// Run exercises s against the archive.Store contract.
func Run(t *testing.T, newStore NewStore) {
	t.Run("AppendAssignsIDs", func(t *testing.T) { testAppendAssignsIDs(t, newStore) })
	t.Run("EvictsOldestBeyondCap", func(t *testing.T) { testEvictsOldest(t, newStore) })
	t.Run("IDsSurviveClear", func(t *testing.T) { testIDsSurviveClear(t, newStore) })
	t.Run("Stats", func(t *testing.T) { testStats(t, newStore) })
	t.Run("StatsEmpty", func(t *testing.T) { testStatsEmpty(t, newStore) })
	t.Run("StatsTieBreak", func(t *testing.T) { testStatsTieBreak(t, newStore) })
	t.Run("NeverExceedsCap", func(t *testing.T) { testNeverExceedsCap(t, newStore) })
}

func entry(alg string, ts time.Time) archive.Entry {
	return archive.Entry{Algorithm: alg, Timestamp: ts, Length: 5, Trace: "•••••", Mode: "text"}
}

func appendAll(t *testing.T, s archive.Store, algs ...string) []archive.Entry {
	t.Helper()
	ts := time.Now().UTC().Truncate(time.Millisecond)
	var out []archive.Entry
	for _, alg := range algs {
		e, err := s.Append(context.Background(), entry(alg, ts))
		if err != nil {
			t.Fatalf("Append(%s): %v", alg, err)
		}
		out = append(out, e)
	}
	return out
}

func testAppendAssignsIDs(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	s := newStore(t, 10)

	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	first, err := s.Append(ctx, entry("erosion", ts))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := s.Append(ctx, entry("burning", ts))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("ids not increasing: %d then %d", first.ID, second.ID)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List len = %d, want 2", len(got))
	}
	if got[0].Algorithm != "erosion" || got[1].Algorithm != "burning" {
		t.Errorf("order = %s, %s; want erosion, burning", got[0].Algorithm, got[1].Algorithm)
	}
	if got[0].ID != first.ID {
		t.Errorf("listed id = %d, want %d", got[0].ID, first.ID)
	}
	if !got[0].Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got[0].Timestamp, ts)
	}
	if got[0].Trace != "•••••" || got[0].Length != 5 || got[0].Mode != "text" {
		t.Errorf("entry = %+v", got[0])
	}
}

func testEvictsOldest(t *testing.T, newStore NewStore) {
	s := newStore(t, 3)
	added := appendAll(t, s, "erosion", "burning", "mutation", "corrupt", "autodelete")

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List len = %d, want 3", len(got))
	}
	for i, e := range got {
		if e.ID != added[i+2].ID {
			t.Errorf("entry %d id = %d, want %d", i, e.ID, added[i+2].ID)
		}
	}
}

func testIDsSurviveClear(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	s := newStore(t, 10)
	before := appendAll(t, s, "erosion", "burning")

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("List after Clear len = %d, want 0", len(got))
	}

	after := appendAll(t, s, "mutation")
	if after[0].ID <= before[1].ID {
		t.Errorf("id after clear = %d, want > %d", after[0].ID, before[1].ID)
	}
}

func testStats(t *testing.T, newStore NewStore) {
	ctx := context.Background()
	s := newStore(t, 10)

	now := time.Now().Truncate(time.Millisecond)
	old := now.Add(-72 * time.Hour)
	for i, alg := range []string{"erosion", "burning", "erosion", "burning", "erosion"} {
		ts := now
		if i == 0 {
			ts = old
		}
		if _, err := s.Append(ctx, entry(alg, ts)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	st, err := s.Stats(ctx, now)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := archive.Stats{Total: 5, Today: 4, MostCommonAlgorithm: "erosion", MostCommonCount: 3}
	if st != want {
		t.Errorf("Stats = %+v, want %+v", st, want)
	}
}

func testStatsEmpty(t *testing.T, newStore NewStore) {
	st, err := newStore(t, 10).Stats(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 0 || st.MostCommonAlgorithm != "none" || st.MostCommonCount != 0 {
		t.Errorf("Stats = %+v, want empty with none", st)
	}
}

func testStatsTieBreak(t *testing.T, newStore NewStore) {
	s := newStore(t, 10)
	appendAll(t, s, "burning", "erosion", "erosion", "burning")

	st, err := s.Stats(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.MostCommonAlgorithm != "erosion" || st.MostCommonCount != 2 {
		t.Errorf("most common = %s/%d, want erosion/2", st.MostCommonAlgorithm, st.MostCommonCount)
	}
}

func testNeverExceedsCap(t *testing.T, newStore NewStore) {
	const cap = 5
	s := newStore(t, cap)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		require.NoError(rt, s.Clear(ctx))
		n := rapid.IntRange(0, 3*cap).Draw(rt, "appends")

		var last int64
		for i := 0; i < n; i++ {
			e, err := s.Append(ctx, entry("erosion", time.Now()))
			require.NoError(rt, err)
			require.Greater(rt, e.ID, last)
			last = e.ID
		}

		got, err := s.List(ctx)
		require.NoError(rt, err)
		require.Len(rt, got, min(n, cap))
		if n > 0 {
			require.Equal(rt, last, got[len(got)-1].ID)
		}
	})
}
