package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/dxfnet/internal/convert"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload and connection limits
	MaxUploadBytes int64
	MaxConnections int

	// Job state
	JobTTL      time.Duration
	StatsWindow time.Duration

	// Conversion
	Precision    int
	IncludeLines bool
	LabelHeight  float64

	// Preview
	PreviewWidth  int
	PreviewHeight int
	JPEGQuality   int
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:           "8090",
		WorkerCount:    4,
		MaxQueueSize:   100,
		MaxUploadBytes: 52428800, // 50MB
		MaxConnections: 256,
		JobTTL:         1 * time.Hour,
		StatsWindow:    1 * time.Hour,
		Precision:      4,
		IncludeLines:   true,
		LabelHeight:    2,
		PreviewWidth:   800,
		PreviewHeight:  600,
		JPEGQuality:    90,
	}
}

// Load builds the configuration from, in increasing priority: defaults, the
// file named by DXFNET_CONFIG (YAML or TOML), and environment variables. A
// .env file in the working directory is loaded into the environment first;
// variables already set are not overwritten.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("DXFNET_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("DXFNET_API_KEY", cfg.APIKey)
	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.MaxConnections = envInt("MAX_CONNECTIONS", cfg.MaxConnections)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.StatsWindow = envDuration("STATS_WINDOW", cfg.StatsWindow)
	cfg.Precision = envInt("PRECISION", cfg.Precision)
	cfg.IncludeLines = envBool("INCLUDE_LINES", cfg.IncludeLines)
	cfg.LabelHeight = envFloat("LABEL_HEIGHT", cfg.LabelHeight)
	cfg.PreviewWidth = envInt("PREVIEW_WIDTH", cfg.PreviewWidth)
	cfg.PreviewHeight = envInt("PREVIEW_HEIGHT", cfg.PreviewHeight)
	cfg.JPEGQuality = envInt("JPEG_QUALITY", cfg.JPEGQuality)

	def := Defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = def.JobTTL
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = def.StatsWindow
	}
	if cfg.LabelHeight <= 0 {
		cfg.LabelHeight = def.LabelHeight
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DXFNET_API_KEY is required")
	}
	if c.Precision < 0 || c.Precision > 12 {
		return fmt.Errorf("PRECISION must be between 0 and 12, got %d", c.Precision)
	}
	if c.PreviewWidth <= 0 || c.PreviewHeight <= 0 {
		return fmt.Errorf("preview size must be positive, got %dx%d", c.PreviewWidth, c.PreviewHeight)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("MAX_CONNECTIONS must not be negative, got %d", c.MaxConnections)
	}
	return nil
}

// ConvertOptions returns the conversion settings. Every artifact is rendered.
func (c Config) ConvertOptions() convert.Options {
	opts := convert.DefaultOptions()
	opts.Precision = c.Precision
	opts.Loader.IncludeLines = c.IncludeLines
	opts.LabelHeight = c.LabelHeight
	opts.Preview.Width = c.PreviewWidth
	opts.Preview.Height = c.PreviewHeight
	opts.Preview.Quality = c.JPEGQuality
	return opts
}

// fileConfig is the on-disk shape. Pointers distinguish "unset" from zero.
type fileConfig struct {
	Port           *string  `yaml:"port" toml:"port"`
	APIKey         *string  `yaml:"api_key" toml:"api_key"`
	WorkerCount    *int     `yaml:"worker_count" toml:"worker_count"`
	MaxQueueSize   *int     `yaml:"max_queue_size" toml:"max_queue_size"`
	MaxUploadBytes *int64   `yaml:"max_upload_bytes" toml:"max_upload_bytes"`
	MaxConnections *int     `yaml:"max_connections" toml:"max_connections"`
	JobTTL         *string  `yaml:"job_ttl" toml:"job_ttl"`
	StatsWindow    *string  `yaml:"stats_window" toml:"stats_window"`
	Precision      *int     `yaml:"precision" toml:"precision"`
	IncludeLines   *bool    `yaml:"include_lines" toml:"include_lines"`
	LabelHeight    *float64 `yaml:"label_height" toml:"label_height"`
	PreviewWidth   *int     `yaml:"preview_width" toml:"preview_width"`
	PreviewHeight  *int     `yaml:"preview_height" toml:"preview_height"`
	JPEGQuality    *int     `yaml:"jpeg_quality" toml:"jpeg_quality"`
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse YAML %q: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return fmt.Errorf("parse TOML %q: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file type %q", ext)
	}

	set(&cfg.Port, fc.Port)
	set(&cfg.APIKey, fc.APIKey)
	set(&cfg.WorkerCount, fc.WorkerCount)
	set(&cfg.MaxQueueSize, fc.MaxQueueSize)
	set(&cfg.MaxUploadBytes, fc.MaxUploadBytes)
	set(&cfg.MaxConnections, fc.MaxConnections)
	set(&cfg.Precision, fc.Precision)
	set(&cfg.IncludeLines, fc.IncludeLines)
	set(&cfg.LabelHeight, fc.LabelHeight)
	set(&cfg.PreviewWidth, fc.PreviewWidth)
	set(&cfg.PreviewHeight, fc.PreviewHeight)
	set(&cfg.JPEGQuality, fc.JPEGQuality)
	if err := setDuration(&cfg.JobTTL, fc.JobTTL, "job_ttl"); err != nil {
		return err
	}
	if err := setDuration(&cfg.StatsWindow, fc.StatsWindow, "stats_window"); err != nil {
		return err
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, key string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
