// Package config provides unified configuration loading for the pipeline.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for a pipeline run.
type Config struct {
	Input         InputConfig         `yaml:"input"`
	Slides        SlidesConfig        `yaml:"slides"`
	Render        RenderConfig        `yaml:"render"`
	Narration     NarrationConfig     `yaml:"narration"`
	Video         VideoConfig         `yaml:"video"`
	Rotation      RotationConfig      `yaml:"rotation"`
	Workers       int                 `yaml:"workers"`
	Generative    GenerativeConfig    `yaml:"generative"`
	Icons         IconsConfig         `yaml:"icons"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// InputConfig holds document input and output locations.
type InputConfig struct {
	Dir       string `yaml:"dir"`        // scanned for a PDF when no --input given
	OutputDir string `yaml:"output_dir"` // run output root
}

// SlidesConfig holds slide count bounds for summarization.
type SlidesConfig struct {
	Min    int `yaml:"min"`
	Max    int `yaml:"max"`
	Target int `yaml:"target"`
}

// RenderConfig holds slide rendering settings.
type RenderConfig struct {
	DPI          int     `yaml:"dpi"`
	OCRThreshold int     `yaml:"ocr_threshold"` // min chars of digital text per page
	OCRZoom      float64 `yaml:"ocr_zoom"`
}

// NarrationConfig holds text-to-speech settings.
type NarrationConfig struct {
	Language string `yaml:"language"`
	Endpoint string `yaml:"endpoint"`
}

// VideoConfig holds video assembly settings.
type VideoConfig struct {
	FPS           int     `yaml:"fps"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	TransitionSec float64 `yaml:"transition_sec"`
	TitleSec      float64 `yaml:"title_sec"`
	Preset        string  `yaml:"preset"`
	FFmpegPath    string  `yaml:"ffmpeg_path"`
	FFprobePath   string  `yaml:"ffprobe_path"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "90s"
// or "1m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// RotationConfig holds credential rotation settings for quota-limited
// remote services.
type RotationConfig struct {
	Cycles  int      `yaml:"cycles"`
	Backoff Duration `yaml:"backoff"`
}

// GenerativeConfig holds generative text API settings.
type GenerativeConfig struct {
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
}

// IconsConfig holds icon search API settings.
type IconsConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Credentials holds API credentials, loaded from the environment only.
type Credentials struct {
	GenerativeKeys []string // ordered fallback list
	IconKey        string
	IconSecret     string
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Dir:       "input",
			OutputDir: "output",
		},
		Slides: SlidesConfig{
			Min:    6,
			Max:    12,
			Target: 8,
		},
		Render: RenderConfig{
			DPI:          100,
			OCRThreshold: 100,
			OCRZoom:      2.0,
		},
		Narration: NarrationConfig{
			Language: "en",
			Endpoint: "https://translate.google.com/translate_tts",
		},
		Video: VideoConfig{
			FPS:           10,
			Width:         1280,
			Height:        720,
			TransitionSec: 0.5,
			TitleSec:      3.0,
			Preset:        "fast",
			FFmpegPath:    "ffmpeg",
			FFprobePath:   "ffprobe",
		},
		Rotation: RotationConfig{
			Cycles:  3,
			Backoff: Duration(time.Minute),
		},
		Workers: 4,
		Generative: GenerativeConfig{
			Model:    "gemini-2.0-flash-exp",
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
		},
		Icons: IconsConfig{
			Endpoint: "https://api.thenounproject.com/v2/icon",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Slides.Min < 1 || c.Slides.Max < c.Slides.Min {
		return fmt.Errorf("invalid slide count bounds: min=%d max=%d", c.Slides.Min, c.Slides.Max)
	}
	if c.Slides.Target < c.Slides.Min || c.Slides.Target > c.Slides.Max {
		return fmt.Errorf("slide target %d outside [%d,%d]", c.Slides.Target, c.Slides.Min, c.Slides.Max)
	}
	if c.Video.FPS < 1 {
		return fmt.Errorf("invalid fps: %d", c.Video.FPS)
	}
	if c.Video.Width < 1 || c.Video.Height < 1 {
		return fmt.Errorf("invalid resolution: %dx%d", c.Video.Width, c.Video.Height)
	}
	if c.Video.TransitionSec < 0 || c.Video.TransitionSec >= c.Video.TitleSec {
		return fmt.Errorf("transition %.2fs must be shorter than the title segment %.2fs",
			c.Video.TransitionSec, c.Video.TitleSec)
	}
	if c.Rotation.Cycles < 1 {
		return fmt.Errorf("rotation cycles must be at least 1")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Render.DPI < 36 || c.Render.DPI > 600 {
		return fmt.Errorf("dpi %d outside supported range", c.Render.DPI)
	}
	return nil
}

// LoadCredentials loads API credentials from the environment, reading a .env
// file first when present. Each call site supplies its own ordered list to
// the rotation engine, so credentials never live in code or config files.
func LoadCredentials() (*Credentials, error) {
	_ = godotenv.Load() // ignore error if .env doesn't exist

	creds := &Credentials{}

	if v := os.Getenv("GEMINI_API_KEYS"); v != "" {
		for _, key := range strings.Split(v, ",") {
			if key = strings.TrimSpace(key); key != "" {
				creds.GenerativeKeys = append(creds.GenerativeKeys, key)
			}
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && len(creds.GenerativeKeys) == 0 {
		creds.GenerativeKeys = []string{v}
	}
	if len(creds.GenerativeKeys) == 0 {
		return nil, fmt.Errorf("GEMINI_API_KEYS not set")
	}

	creds.IconKey = os.Getenv("NOUN_PROJECT_KEY")
	creds.IconSecret = os.Getenv("NOUN_PROJECT_SECRET")
	if creds.IconKey == "" || creds.IconSecret == "" {
		return nil, fmt.Errorf("NOUN_PROJECT_KEY / NOUN_PROJECT_SECRET not set")
	}

	return creds, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SLIDEFORGE_INPUT_DIR"); v != "" {
		cfg.Input.Dir = v
	}
	if v := os.Getenv("SLIDEFORGE_OUTPUT_DIR"); v != "" {
		cfg.Input.OutputDir = v
	}
	if v := os.Getenv("SLIDEFORGE_MODEL"); v != "" {
		cfg.Generative.Model = v
	}
	if v := os.Getenv("SLIDEFORGE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		cfg.Video.FFmpegPath = v
	}
	if v := os.Getenv("FFPROBE_PATH"); v != "" {
		cfg.Video.FFprobePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
