package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/hrv.report/internal/fsutil"
	"github.com/banshee-data/hrv.report/internal/hrv"
	"github.com/banshee-data/hrv.report/internal/monitoring"
	"github.com/banshee-data/hrv.report/internal/pipeline"
	"github.com/banshee-data/hrv.report/internal/testutil"
	"github.com/banshee-data/hrv.report/internal/version"
)

func fixtureFS() *fsutil.MemoryFileSystem {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("in/one.txt", []byte(testutil.RRText(testutil.RestingRR(300))))
	fsys.WriteFile("in/two.txt", []byte(testutil.RRText(testutil.RestingRR(50))))
	fsys.WriteFile("in/three.txt", []byte(testutil.RRText(testutil.RestingRR(400))))

	secs := testutil.RestingRR(300)
	for i := range secs {
		secs[i] /= 1000
	}
	fsys.WriteFile("in/secs.txt", []byte(testutil.RRText(secs)))
	return fsys
}

func runCLI(t *testing.T, fsys fsutil.FileSystem, args ...string) (int, string, string) {
	t.Helper()
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, fsys)
	return code, stdout.String(), stderr.String()
}

func parseCSV(t *testing.T, s string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, fixtureFS(), "-version")
	assert.Equal(t, 0, code)
	assert.Equal(t, version.String()+"\n", out)
}

func TestRun_NoFiles(t *testing.T) {
	code, _, stderr := runCLI(t, fixtureFS())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "at least one RR file is required")
}

func TestRun_BadFlag(t *testing.T) {
	code, _, _ := runCLI(t, fixtureFS(), "-nope")
	assert.Equal(t, 1, code)
}

func TestRun_SingleFile(t *testing.T) {
	code, out, _ := runCLI(t, fixtureFS(), "in/one.txt")
	require.Equal(t, 0, code)

	rows := parseCSV(t, out)
	assert.Equal(t, []string{"parameter", "value"}, rows[0])
	assert.Equal(t, []string{pipeline.ColumnFilename, "one.txt"}, rows[1])
	assert.Len(t, rows, 4+len(hrv.AllKeys()))
}

func TestRun_BatchSkipsShortFile(t *testing.T) {
	fsys := fixtureFS()
	code, _, stderr := runCLI(t, fsys, "-out", "out/table.csv", "-workers", "2",
		"in/one.txt", "in/two.txt", "in/three.txt")
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "two.txt")

	data, err := fsys.ReadFile("out/table.csv")
	require.NoError(t, err)
	rows := parseCSV(t, string(data))
	require.Len(t, rows, 3)
	assert.Equal(t, pipeline.Columns(), rows[0])
	assert.Equal(t, "one.txt", rows[1][0])
	assert.Equal(t, "three.txt", rows[2][0])
}

func TestRun_AllRejected(t *testing.T) {
	code, _, stderr := runCLI(t, fixtureFS(), "in/two.txt")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no recording could be analysed")
}

func TestRun_SecondsUnit(t *testing.T) {
	code, _, _ := runCLI(t, fixtureFS(), "in/secs.txt")
	assert.Equal(t, 1, code, "seconds read as milliseconds fail validation")

	code, out, _ := runCLI(t, fixtureFS(), "-unit", "s", "in/secs.txt")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "secs.txt")
}

func TestRun_InvalidOverride(t *testing.T) {
	code, _, stderr := runCLI(t, fixtureFS(), "-unit", "min", "in/one.txt")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "time_unit")
}

func TestRun_ConfigFile(t *testing.T) {
	fsys := fixtureFS()
	fsys.WriteFile("cfg/hrv.yaml", []byte("min_intervals: 40\n"))

	code, out, _ := runCLI(t, fsys, "-config", "cfg/hrv.yaml", "in/two.txt")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "two.txt")

	code, _, stderr := runCLI(t, fsys, "-config", "cfg/missing.json", "in/one.txt")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not found")
}

func TestRun_LogsEffectiveConfig(t *testing.T) {
	fsys := fixtureFS()
	fsys.WriteFile("cfg/hrv.json", []byte(`{"dfa_breakpoint": 12}`))

	code, _, stderr := runCLI(t, fsys, "-config", "cfg/hrv.json", "-log-format", "json", "in/one.txt")
	require.Equal(t, 0, code)

	var done map[string]any
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["message"] == "done" {
			done = entry
		}
	}
	require.NotNil(t, done, "no done line in %q", stderr)

	cfg, ok := done["config"].(map[string]any)
	require.True(t, ok, "config missing from done line")
	assert.Equal(t, 12.0, cfg["dfa_breakpoint"])
	assert.Equal(t, 4.0, cfg["sampling_rate_hz"])
	assert.Equal(t, 64.0, cfg["dfa_scale_max"])
	assert.Equal(t, "ms", cfg["time_unit"])
}

func TestRun_SelectionWindow(t *testing.T) {
	code, out, _ := runCLI(t, fixtureFS(), "-start", "10", "-end", "200", "in/three.txt")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "selection_start_s,10.00")
	assert.Contains(t, out, "selection_end_s,200.00")
}

func TestRun_HTMLAndPlots(t *testing.T) {
	fsys := fixtureFS()
	code, _, _ := runCLI(t, fsys, "-html", "out/one.html", "-plots", "out/plots", "-log-format", "json", "in/one.txt")
	require.Equal(t, 0, code)

	html, err := fsys.ReadFile("out/one.html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "Tachogram")
	assert.Contains(t, fsys.Files("out/plots"), "out/plots/one_psd.png")
}

func TestRun_BadLogFormat(t *testing.T) {
	code, _, stderr := runCLI(t, fixtureFS(), "-log-format", "xml", "in/one.txt")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid log format")
}
