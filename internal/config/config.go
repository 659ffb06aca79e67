// Package config assembles the run configuration from the environment, an
// optional sharptranslate.yaml project file, and CLI flags (applied by the
// cli package in that order, flags last).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBatchSize  = 20
	DefaultMaxRetries = 3
	DefaultBatchDelay = 500 * time.Millisecond
	DefaultTimeout    = 60 * time.Second
	DefaultModel      = "gpt-4o-mini"
	DefaultTone       = "professional, natural"
	DefaultBaseURL    = "https://api.openai.com/v1"
)

// Config is the full configuration surface consumed by the pipeline.
type Config struct {
	InputPath  string
	OutputPath string

	TargetLanguage string
	Tone           string
	Model          string
	ProtectedTerms []string

	BatchSize      int
	MaxRetries     int
	BatchDelay     time.Duration
	RequestTimeout time.Duration

	APIKey  string
	BaseURL string

	Verbose bool
}

// Load builds a Config from defaults and the environment. A .env file in
// the working directory is honored when present.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return Config{
		Tone:           getEnv("SHARPTRANSLATE_TONE", DefaultTone),
		Model:          getEnv("SHARPTRANSLATE_MODEL", DefaultModel),
		BatchSize:      getEnvInt("SHARPTRANSLATE_BATCH_SIZE", DefaultBatchSize),
		MaxRetries:     getEnvInt("SHARPTRANSLATE_MAX_RETRIES", DefaultMaxRetries),
		BatchDelay:     DefaultBatchDelay,
		RequestTimeout: DefaultTimeout,
		APIKey:         getEnv("OPENAI_API_KEY", ""),
		BaseURL:        getEnv("OPENAI_BASE_URL", DefaultBaseURL),
	}
}

// fileConfig is the sharptranslate.yaml schema. Zero values mean "not set"
// and leave the current configuration untouched.
type fileConfig struct {
	Language       string   `yaml:"language,omitempty"`
	Tone           string   `yaml:"tone,omitempty"`
	Model          string   `yaml:"model,omitempty"`
	ProtectedTerms []string `yaml:"protected_terms,omitempty"`
	BatchSize      int      `yaml:"batch_size,omitempty"`
	MaxRetries     int      `yaml:"max_retries,omitempty"`
	BatchDelayMS   int      `yaml:"batch_delay_ms,omitempty"`
	TimeoutSec     int      `yaml:"timeout_sec,omitempty"`
	BaseURL        string   `yaml:"base_url,omitempty"`
}

// ApplyFile overlays settings from a YAML project file onto c.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Language != "" {
		c.TargetLanguage = fc.Language
	}
	if fc.Tone != "" {
		c.Tone = fc.Tone
	}
	if fc.Model != "" {
		c.Model = fc.Model
	}
	if len(fc.ProtectedTerms) > 0 {
		c.ProtectedTerms = append(c.ProtectedTerms, fc.ProtectedTerms...)
	}
	if fc.BatchSize > 0 {
		c.BatchSize = fc.BatchSize
	}
	if fc.MaxRetries > 0 {
		c.MaxRetries = fc.MaxRetries
	}
	if fc.BatchDelayMS > 0 {
		c.BatchDelay = time.Duration(fc.BatchDelayMS) * time.Millisecond
	}
	if fc.TimeoutSec > 0 {
		c.RequestTimeout = time.Duration(fc.TimeoutSec) * time.Second
	}
	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}

	return nil
}

// Validate checks the configuration before any processing begins.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if c.TargetLanguage == "" {
		return fmt.Errorf("target language is required")
	}
	if _, err := language.Parse(c.TargetLanguage); err != nil {
		return fmt.Errorf("target language %q is not a valid locale identifier: %w", c.TargetLanguage, err)
	}
	if c.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1 (got %d)", c.BatchSize)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1 (got %d)", c.MaxRetries)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
