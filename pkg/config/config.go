// Package config provides configuration loading and management.
//
// Values are layered: defaults, then the YAML file, then the environment
// (optionally seeded from a .env file). Command-line flags are applied on
// top by the caller.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/user/keyframes/pkg/orchestrator"
	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/stages/probe"
	"github.com/user/keyframes/pkg/stages/render"
)

// Environment variables read by ApplyEnv.
const (
	EnvWorkingDirectory = "WORKING_DIRECTORY"
	EnvFFprobePath      = "FFPROBEPATH"
	EnvFFmpegPath       = "FFMPEGPATH"
	EnvFFprobePathAlt   = "FFPROBE_PATH"
	EnvFFmpegPathAlt    = "FFMPEG_PATH"
	EnvWorkers          = "KEYFRAMES_WORKERS"
)

// Config represents the full configuration for keyframes.
type Config struct {
	// Paths
	WorkingDirectory string `yaml:"working_directory"`
	FFprobePath      string `yaml:"ffprobe_path"`
	FFmpegPath       string `yaml:"ffmpeg_path"`

	// Rendering
	Workers          int    `yaml:"workers"`
	RenderTimeoutSec int    `yaml:"render_timeout_sec"`
	Quality          int    `yaml:"quality"`
	TimestampField   string `yaml:"timestamp_field"`
	Width            int    `yaml:"width"`
	Height           int    `yaml:"height"`

	// Contact sheet
	ContactSheetColumns int         `yaml:"contact_sheet_columns"`
	ThumbWidth          int         `yaml:"thumb_width"`
	Theme               ThemeConfig `yaml:"theme"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// ThemeConfig represents contact sheet theming options.
type ThemeConfig struct {
	BackgroundColor string  `yaml:"background_color"`
	TextColor       string  `yaml:"text_color"`
	BorderColor     string  `yaml:"border_color"`
	FontPath        string  `yaml:"font_path"`
	FontSize        float64 `yaml:"font_size"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		WorkingDirectory: os.TempDir(),
		FFprobePath:      "",
		FFmpegPath:       "",

		Workers:          runtime.NumCPU(),
		RenderTimeoutSec: int(render.DefaultTimeout / time.Second),
		Quality:          render.DefaultQuality,
		TimestampField:   probe.DefaultTimestampField,
		Width:            pipeline.SourceSize,
		Height:           pipeline.SourceSize,

		ContactSheetColumns: 4,
		ThumbWidth:          240,
		Theme: ThemeConfig{
			BackgroundColor: "#1a1a2e",
			TextColor:       "#ffffff",
			BorderColor:     "#333355",
			FontSize:        12,
		},

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the process environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		var err error
		cfg, err = LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from .env files into the environment without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvWorkingDirectory); ok && v != "" {
		c.WorkingDirectory = v
	}
	if v := firstEnv(lookup, EnvFFprobePath, EnvFFprobePathAlt); v != "" {
		c.FFprobePath = v
	}
	if v := firstEnv(lookup, EnvFFmpegPath, EnvFFmpegPathAlt); v != "" {
		c.FFmpegPath = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

func firstEnv(lookup func(string) (string, bool), names ...string) string {
	for _, name := range names {
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
	}
	return ""
}

// Validate checks values that would otherwise fail deep inside a job.
func (c Config) Validate() error {
	if c.WorkingDirectory == "" {
		return errors.New("working_directory must not be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Quality < 0 || c.Quality > 31 {
		return fmt.Errorf("quality must be between 0 (default) and 31, got %d", c.Quality)
	}
	if c.RenderTimeoutSec < 0 {
		return fmt.Errorf("render_timeout_sec must not be negative, got %d", c.RenderTimeoutSec)
	}
	return c.Dimensions().Validate()
}

// Dimensions returns the configured render size.
func (c Config) Dimensions() pipeline.Dimensions {
	return pipeline.Dimensions{Width: c.Width, Height: c.Height}
}

// ContactSheetInput returns contact sheet parameters from the theme settings.
func (c Config) ContactSheetInput() pipeline.ContactSheetInput {
	in := pipeline.DefaultContactSheetInput()
	if c.ContactSheetColumns > 0 {
		in.Columns = c.ContactSheetColumns
	}
	if c.ThumbWidth > 0 {
		in.ThumbWidth = c.ThumbWidth
	}
	if c.Theme.BackgroundColor != "" {
		in.Theme.BackgroundColor = ParseColor(c.Theme.BackgroundColor)
	}
	if c.Theme.TextColor != "" {
		in.Theme.TextColor = ParseColor(c.Theme.TextColor)
	}
	if c.Theme.BorderColor != "" {
		in.Theme.BorderColor = ParseColor(c.Theme.BorderColor)
	}
	if c.Theme.FontSize > 0 {
		in.Theme.FontSize = c.Theme.FontSize
	}
	in.Theme.FontPath = c.Theme.FontPath
	return in
}

// ParseColor parses a "#rrggbb" string. Anything else yields black.
func ParseColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
// Binary paths must already be resolved.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		WorkingDirectory: c.WorkingDirectory,
		FFprobePath:      c.FFprobePath,
		FFmpegPath:       c.FFmpegPath,
		Workers:          c.Workers,
		RenderTimeout:    time.Duration(c.RenderTimeoutSec) * time.Second,
		Quality:          c.Quality,
		TimestampField:   c.TimestampField,
	}
}
