package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/spacetrace/internal/config"
	"github.com/star/spacetrace/internal/export"
	"github.com/star/spacetrace/internal/track"
)

const issTLE = `ISS (ZARYA)
1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993
2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058
`

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func testConfig() config.Config {
	return config.Config{Track: config.TrackConfig{StepMinutes: 60, Split: track.SplitAntimeridian}}
}

func writeTLE(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iss.tle")
	require.NoError(t, os.WriteFile(path, []byte(issTLE), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, testConfig(), testLogger, &out, io.Discard)
	return out.String(), err
}

func TestRunWritesShapefiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "iss.shp")

	stdout, err := runCLI(t, "-tle-file", writeTLE(t), "-sat", "25544", "-date", "2025-02-14", "-step", "1440", "-out", out, "-save-elements")
	require.NoError(t, err)

	assert.Equal(t, out+"\n"+filepath.Join(dir, "iss_line.shp")+"\n", stdout)
	assert.FileExists(t, filepath.Join(dir, "iss.prj"))
	assert.FileExists(t, filepath.Join(dir, "iss_line.prj"))

	saved, err := os.ReadFile(filepath.Join(dir, "iss_elements.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(saved), "1 25544U")

	points, err := export.ReadShapefile(out)
	require.NoError(t, err)
	assert.Equal(t, 1, points.Len())
}

func TestRunPrintsGeoJSON(t *testing.T) {
	stdout, err := runCLI(t, "-tle-file", writeTLE(t), "-date", "2025-02-14", "-split", "custom", "-count", "3")
	require.NoError(t, err)

	var doc map[string]struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Len(t, doc["points"].Features, 24)
	assert.Len(t, doc["lines"].Features, 3)
	assert.Equal(t, "FeatureCollection", doc["lines"].Type)
}

func TestRunConvert(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "pts.shp")
	_, err := runCLI(t, "-tle-file", writeTLE(t), "-date", "2025-02-14", "-step", "30", "-out", out)
	require.NoError(t, err)

	stdout, err := runCLI(t, "-convert", out, "-split", "none")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pts_line.shp"), strings.TrimSpace(stdout))

	lines, err := export.ReadShapefile(filepath.Join(dir, "pts_line.shp"))
	require.NoError(t, err)
	assert.Equal(t, 1, lines.Len())
}

func TestRunInputErrors(t *testing.T) {
	tleFile := writeTLE(t)
	cases := map[string][]string{
		"no satellite":     {},
		"bad date":         {"-tle-file", tleFile, "-date", "14/02/2025"},
		"bad split":        {"-tle-file", tleFile, "-split", "spiral"},
		"zero step":        {"-tle-file", tleFile, "-step", "0"},
		"save without out": {"-tle-file", tleFile, "-save-elements"},
		"bad format":       {"-tle-file", tleFile, "-format", "xml"},
		"bad extension":    {"-tle-file", tleFile, "-out", filepath.Join(t.TempDir(), "x.csv")},
		"stray argument":   {"-tle-file", tleFile, "extra"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := runCLI(t, args...)
			assert.ErrorIs(t, err, track.ErrInput)
		})
	}
}

func TestRunMissingFile(t *testing.T) {
	_, err := runCLI(t, "-tle-file", filepath.Join(t.TempDir(), "none.tle"))
	require.Error(t, err)
	assert.Equal(t, "io", track.ErrorKind(err))
}
