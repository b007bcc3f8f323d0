package cli

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/lazypower/ephemeral/internal/archive"
	"github.com/lazypower/ephemeral/internal/decay"
	"github.com/lazypower/ephemeral/internal/engine"
	"github.com/lazypower/ephemeral/internal/server"
)

// testConfig points the CLI at a fresh sqlite archive with fast ticks and
// returns the archive's directory.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`[archive]
backend = "sqlite"
path = %q

[engine]
tick_interval_ms = 1
settle_delay_ms = 1
seed = 7

[logging]
level = "error"
`, filepath.Join(dir, "ephemeral.db"))
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EPHEMERAL_CONFIG", path)
	t.Setenv("EPHEMERAL_DB", "")
	return dir
}

func resetFlags() {
	configPath = ""
	servePort = 0
	forgetAlgorithm, forgetImage, forgetAudio, forgetURL = "", "", "", ""
	forgetSeed = 0
	forgetRemote = false
	archiveRemote, archiveURL, archiveLimit, clearYes = false, "", 0, false
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "ephemeral dev") {
		t.Errorf("output = %q, want prefix %q", out, "ephemeral dev")
	}
}

func TestAlgorithmsListsRegistry(t *testing.T) {
	out, err := runCLI(t, "", "algorithms")
	if err != nil {
		t.Fatalf("algorithms: %v", err)
	}
	for _, d := range decay.NewRegistry().All() {
		if !strings.Contains(out, d.Name) {
			t.Errorf("output missing %q:\n%s", d.Name, out)
		}
	}
}

func TestForgetArchivesTrace(t *testing.T) {
	testConfig(t)

	out, err := runCLI(t, "", "forget", "-a", "erosion", "hello", "world")
	if err != nil {
		t.Fatalf("forget: %v\n%s", err, out)
	}
	if !strings.Contains(out, "forgetting Text by Erosion") {
		t.Errorf("missing start line:\n%s", out)
	}
	if !strings.Contains(out, `archived #1 trace "hel...rld"`) {
		t.Errorf("missing archive line:\n%s", out)
	}

	out, err = runCLI(t, "", "archive", "list")
	if err != nil {
		t.Fatalf("archive list: %v", err)
	}
	for _, want := range []string{"hel...rld", "Erosion", "Text", "11", "Today at"} {
		if !strings.Contains(out, want) {
			t.Errorf("archive list missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "", "archive", "stats")
	if err != nil {
		t.Fatalf("archive stats: %v", err)
	}
	if !strings.Contains(out, "Erosion (1)") {
		t.Errorf("stats missing most common:\n%s", out)
	}
}

func TestForgetReadsStdin(t *testing.T) {
	testConfig(t)

	out, err := runCLI(t, "a memory from a pipe\n", "forget", "-a", "burning")
	if err != nil {
		t.Fatalf("forget: %v\n%s", err, out)
	}
	if !strings.Contains(out, `trace "a m...ipe"`) {
		t.Errorf("missing trace:\n%s", out)
	}
}

func TestForgetEmptyInput(t *testing.T) {
	testConfig(t)

	_, err := runCLI(t, "   \n", "forget")
	if err != errNoInput {
		t.Errorf("err = %v, want %v", err, errNoInput)
	}
}

func TestForgetRefusesWhileLocked(t *testing.T) {
	dir := testConfig(t)

	held := flock.New(filepath.Join(dir, "ephemeral.lock"))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer held.Unlock()

	_, err = runCLI(t, "", "forget", "something")
	if err == nil || !strings.Contains(err.Error(), "already forgetting") {
		t.Errorf("err = %v, want lock error", err)
	}
}

func TestArchiveClear(t *testing.T) {
	testConfig(t)

	if _, err := runCLI(t, "", "forget", "-a", "autodelete", "short"); err != nil {
		t.Fatalf("forget: %v", err)
	}

	if _, err := runCLI(t, "", "archive", "clear"); err == nil {
		t.Error("clear without --yes should fail")
	}

	out, err := runCLI(t, "", "archive", "clear", "--yes")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(out, "Archive cleared.") {
		t.Errorf("output = %q", out)
	}

	out, err = runCLI(t, "", "archive", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "The archive is empty.") {
		t.Errorf("output = %q, want empty archive", out)
	}
}

func TestForgetRemote(t *testing.T) {
	eng, err := engine.New(engine.Options{Archive: archive.NewMemoryStore(0)})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	srv := httptest.NewServer(server.New(eng, "test", zap.NewNop(), nil))
	t.Cleanup(srv.Close)

	out, err := runCLI(t, "", "forget", "--remote", "--url", srv.URL, "-a", "corrupt", "over the wire")
	if err != nil {
		t.Fatalf("forget --remote: %v", err)
	}
	if !strings.Contains(out, "started on "+srv.URL+" (Corruption)") {
		t.Errorf("output = %q", out)
	}
	if snap := eng.Snapshot(); snap.Status != engine.StatusDecaying {
		t.Errorf("server status = %v, want %v", snap.Status, engine.StatusDecaying)
	}

	_, err = runCLI(t, "", "forget", "--remote", "--url", srv.URL, "again")
	if err == nil || !strings.Contains(err.Error(), "busy") {
		t.Errorf("err = %v, want busy", err)
	}
}

func TestReadMemoryImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	in, err := readMemory(strings.NewReader(""), nil, path, "")
	if err != nil {
		t.Fatalf("readMemory: %v", err)
	}
	if in.content.Type != decay.Image {
		t.Errorf("type = %v, want %v", in.content.Type, decay.Image)
	}
	if got := decay.TraceOf(in.content); got != "4x3" {
		t.Errorf("trace = %q, want %q", got, "4x3")
	}
	if !bytes.Equal(in.request.Data, buf.Bytes()) {
		t.Error("request data should be the raw file")
	}
}

func TestPrintEntriesNewestFirst(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	entries := []archive.Entry{
		{ID: 1, Algorithm: "erosion", Timestamp: now.Add(-72 * time.Hour), Length: 3, Trace: "•••", Mode: "text"},
		{ID: 2, Algorithm: "burning", Timestamp: now.Add(-time.Hour), Length: 12, Trace: "bbb...bbb", Mode: "text"},
		{ID: 3, Algorithm: "oddity", Timestamp: now, Length: 6, Trace: "2x3", Mode: "image"},
	}

	var buf bytes.Buffer
	printEntries(&buf, entries, 2, now)
	out := buf.String()

	if strings.Contains(out, "•••") {
		t.Errorf("limit should drop the oldest entry:\n%s", out)
	}
	if strings.Index(out, "2x3") > strings.Index(out, "bbb...bbb") {
		t.Errorf("newest entry should come first:\n%s", out)
	}
	if !strings.Contains(out, "Forgotten") {
		t.Errorf("unknown algorithm should render as Forgotten:\n%s", out)
	}
	if !strings.Contains(out, "Image") {
		t.Errorf("mode should be title-cased:\n%s", out)
	}
}

func TestPrintStatsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, archive.ComputeStats(nil, time.Now()))
	if !strings.Contains(buf.String(), "none") {
		t.Errorf("output = %q, want none", buf.String())
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Name", "Count"},
		[][]string{{"erosion", "3"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"╭", "NAME", "erosion"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
