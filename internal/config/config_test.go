package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"DXFNET_CONFIG", "PORT", "DXFNET_API_KEY", "WORKER_COUNT", "MAX_QUEUE_SIZE",
	"MAX_UPLOAD_BYTES", "MAX_CONNECTIONS", "JOB_TTL", "STATS_WINDOW", "PRECISION",
	"INCLUDE_LINES", "LABEL_HEIGHT", "PREVIEW_WIDTH", "PREVIEW_HEIGHT", "JPEG_QUALITY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("DXFNET_API_KEY", "secret")
	t.Setenv("PRECISION", "0")
	t.Setenv("INCLUDE_LINES", "false")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("LABEL_HEIGHT", "3.5")
	t.Setenv("WORKER_COUNT", "-2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %q", cfg.Port)
	}
	if cfg.APIKey != "secret" {
		t.Errorf("expected api key, got %q", cfg.APIKey)
	}
	if cfg.Precision != 0 {
		t.Errorf("expected precision 0, got %d", cfg.Precision)
	}
	if cfg.IncludeLines {
		t.Error("expected INCLUDE_LINES=false to disable lines")
	}
	if cfg.JobTTL != 15*time.Minute {
		t.Errorf("expected ttl 15m, got %v", cfg.JobTTL)
	}
	if cfg.LabelHeight != 3.5 {
		t.Errorf("expected label height 3.5, got %v", cfg.LabelHeight)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected invalid worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "dxfnet.yaml", `
port: "7000"
api_key: from-file
precision: 2
include_lines: false
job_ttl: 30m
preview_width: 1024
`)
	t.Setenv("DXFNET_CONFIG", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7001" {
		t.Errorf("expected env to win over file, got port %q", cfg.Port)
	}
	if cfg.APIKey != "from-file" {
		t.Errorf("expected api key from file, got %q", cfg.APIKey)
	}
	if cfg.Precision != 2 {
		t.Errorf("expected precision 2, got %d", cfg.Precision)
	}
	if cfg.IncludeLines {
		t.Error("expected include_lines false from file")
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("expected ttl 30m, got %v", cfg.JobTTL)
	}
	if cfg.PreviewWidth != 1024 {
		t.Errorf("expected preview width 1024, got %d", cfg.PreviewWidth)
	}
	if cfg.PreviewHeight != 600 {
		t.Errorf("expected default preview height, got %d", cfg.PreviewHeight)
	}
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	clearEnv(t)
	t.Setenv("DXFNET_CONFIG", writeFile(t, "dxfnet.yml", "precison: 3\n"))

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for misspelled key")
	}
	if !strings.Contains(err.Error(), "precison") {
		t.Errorf("expected error to name the field, got %v", err)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DXFNET_CONFIG", writeFile(t, "dxfnet.toml", `
api_key = "toml-key"
worker_count = 8
label_height = 1.5
stats_window = "2h"
`))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIKey != "toml-key" {
		t.Errorf("expected api key from toml, got %q", cfg.APIKey)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.WorkerCount)
	}
	if cfg.LabelHeight != 1.5 {
		t.Errorf("expected label height 1.5, got %v", cfg.LabelHeight)
	}
	if cfg.StatsWindow != 2*time.Hour {
		t.Errorf("expected stats window 2h, got %v", cfg.StatsWindow)
	}
}

func TestLoad_FileErrors(t *testing.T) {
	tests := map[string]string{
		"missing":      filepath.Join(t.TempDir(), "nope.yaml"),
		"bad duration": writeFile(t, "bad.toml", `job_ttl = "soon"`),
		"unknown type": writeFile(t, "dxfnet.ini", "port=1"),
		"toml unknown": writeFile(t, "extra.toml", `colour = "red"`),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DXFNET_CONFIG", path)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s", path)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.APIKey = "k"
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := map[string]func(*Config){
		"no api key":   func(c *Config) { c.APIKey = "" },
		"precision":    func(c *Config) { c.Precision = 13 },
		"preview size": func(c *Config) { c.PreviewWidth = 0 },
		"jpeg quality": func(c *Config) { c.JPEGQuality = 101 },
		"connections":  func(c *Config) { c.MaxConnections = -1 },
	}
	for name, mutate := range tests {
		c := valid
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestConvertOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Precision = 3
	cfg.IncludeLines = false
	cfg.LabelHeight = 5
	cfg.PreviewWidth = 320
	cfg.PreviewHeight = 240
	cfg.JPEGQuality = 75

	opts := cfg.ConvertOptions()
	if opts.Precision != 3 {
		t.Errorf("expected precision 3, got %d", opts.Precision)
	}
	if opts.Loader.IncludeLines {
		t.Error("expected LINE entities to be excluded")
	}
	if opts.LabelHeight != 5 {
		t.Errorf("expected label height 5, got %v", opts.LabelHeight)
	}
	if opts.Preview.Width != 320 || opts.Preview.Height != 240 || opts.Preview.Quality != 75 {
		t.Errorf("unexpected preview options %+v", opts.Preview)
	}
	if len(opts.Artifacts) != 0 {
		t.Errorf("expected all artifacts, got %v", opts.Artifacts)
	}
}
