package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/dxfnet/internal/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const teeGeoJSON = `{"type":"MultiLineString","coordinates":[[[0,0],[2,0]],[[2,0],[4,0]],[[2,0],[2,3]]]}`

// isolate keeps the caller's environment and working directory out of
// config.Load.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DXFNET_CONFIG", "PRECISION", "INCLUDE_LINES", "LABEL_HEIGHT", "PREVIEW_WIDTH", "PREVIEW_HEIGHT", "JPEG_QUALITY"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Convert(t *testing.T) {
	isolate(t)
	in := writeInput(t, "tee.geojson", teeGeoJSON)
	out := filepath.Join(t.TempDir(), "out")

	var stdout, stderr bytes.Buffer
	code := run([]string{"convert", "-o", out, in}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	for _, name := range convert.AllArtifacts {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	csv, err := os.ReadFile(filepath.Join(out, convert.ArtifactCSV))
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(csv), "\n"), "header plus three branches")

	text := stdout.String()
	assert.Contains(t, text, "tee.geojson")
	assert.Contains(t, text, "branches")
	assert.Contains(t, text, filepath.Join(out, convert.ArtifactCSV))
}

func TestRun_Precision(t *testing.T) {
	isolate(t)
	in := writeInput(t, "gap.geojson", `{"type":"MultiLineString","coordinates":[[[0,0],[1,0]],[[1.001,0],[2,0]]]}`)

	tests := []struct {
		precision string
		rows      int
	}{
		{"4", 3},
		{"2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.precision, func(t *testing.T) {
			out := t.TempDir()
			var stdout, stderr bytes.Buffer
			code := run([]string{"convert", "-o", out, "-precision", tt.precision, in}, &stdout, &stderr)
			require.Equal(t, exitOK, code, stderr.String())

			csv, err := os.ReadFile(filepath.Join(out, convert.ArtifactCSV))
			require.NoError(t, err)
			assert.Equal(t, tt.rows, strings.Count(string(csv), "\n"))
		})
	}
}

func TestRun_ConfigFromEnvironment(t *testing.T) {
	isolate(t)
	in := writeInput(t, "gap.geojson", `{"type":"MultiLineString","coordinates":[[[0,0],[1,0]],[[1.001,0],[2,0]]]}`)
	t.Setenv("PRECISION", "2")

	out := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run([]string{"convert", "-o", out, in}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	csv, err := os.ReadFile(filepath.Join(out, convert.ArtifactCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(csv), "\n"), "PRECISION=2 joins the gap")

	// The flag wins over the environment.
	out = t.TempDir()
	code = run([]string{"convert", "-o", out, "-precision", "4", in}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	csv, err = os.ReadFile(filepath.Join(out, convert.ArtifactCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(csv), "\n"))
}

func TestRun_BadConfigFile(t *testing.T) {
	isolate(t)
	in := writeInput(t, "tee.geojson", teeGeoJSON)
	t.Setenv("DXFNET_CONFIG", filepath.Join(t.TempDir(), "missing.yml"))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitError, run([]string{"convert", "-o", t.TempDir(), in}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "error:")
}

func TestRun_ExitCodes(t *testing.T) {
	isolate(t)
	bad := writeInput(t, "bad.geojson", `{"type":"LineString","coordinates":[[1,1]]}`)
	unsupported := writeInput(t, "notes.txt", "hello")

	tests := []struct {
		name     string
		args     []string
		expected int
	}{
		{"no command", nil, exitInput},
		{"unknown command", []string{"render"}, exitInput},
		{"missing file arg", []string{"convert"}, exitInput},
		{"bad flag", []string{"convert", "-nope", bad}, exitInput},
		{"invalid geometry", []string{"convert", "-o", t.TempDir(), bad}, exitInput},
		{"unsupported extension", []string{"convert", "-o", t.TempDir(), unsupported}, exitInput},
		{"missing file", []string{"convert", "-o", t.TempDir(), filepath.Join(t.TempDir(), "none.dxf")}, exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.expected, run(tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}
