// Package config loads the service configuration from an optional YAML file
// overlaid by environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	HTTP      HTTP      `yaml:"http"`
	AI        AI        `yaml:"ai"`
	Generator Generator `yaml:"generator"`
	Store     Store     `yaml:"store"`
}

// HTTP configures the API server.
type HTTP struct {
	Addr             string   `yaml:"addr"`
	CORSOrigins      []string `yaml:"cors_origins"`
	UploadLimit      int64    `yaml:"upload_limit"`
	UploadsPerMinute int      `yaml:"uploads_per_minute"`
}

// AI configures the Gemini client. Either APIKey (Gemini API) or Project
// (Vertex AI with application default credentials) must be set to enable
// generation.
type AI struct {
	APIKey          string  `yaml:"api_key"`
	Project         string  `yaml:"project"`
	Region          string  `yaml:"region"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	SafetyThreshold string  `yaml:"safety_threshold"`
}

// Enabled reports whether enough is configured to reach Gemini.
func (a AI) Enabled() bool { return a.APIKey != "" || a.Project != "" }

// Generator configures the generation orchestrator.
type Generator struct {
	MaxRetries     int           `yaml:"max_retries"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	Backoff        time.Duration `yaml:"backoff"`
	ContentLimit   int           `yaml:"content_limit"`
	ExtraTerms     int           `yaml:"extra_terms"`
}

// Store selects the persistence backend.
type Store struct {
	Driver string `yaml:"driver"` // "memory" or "sqlite"
	DSN    string `yaml:"dsn"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTP{
			Addr:             ":8080",
			UploadLimit:      10 << 20,
			UploadsPerMinute: 5,
		},
		AI: AI{
			Region:          "europe-west1",
			Model:           "gemini-2.5-flash",
			Temperature:     0.1,
			SafetyThreshold: "BLOCK_MEDIUM_AND_ABOVE",
		},
		Generator: Generator{
			MaxRetries:     3,
			AttemptTimeout: 120 * time.Second,
			Backoff:        1500 * time.Millisecond,
			ContentLimit:   30000,
			ExtraTerms:     5,
		},
		Store: Store{
			Driver: "memory",
			DSN:    "autocross.db",
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(New())

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv(env Conf) {
	if port := env.MayString("PORT", ""); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.CORSOrigins = env.MayCSV("CORS_ORIGINS", cfg.HTTP.CORSOrigins)
	cfg.HTTP.UploadLimit = env.MayInt64("UPLOAD_LIMIT", cfg.HTTP.UploadLimit)
	cfg.HTTP.UploadsPerMinute = env.MayInt("UPLOADS_PER_MINUTE", cfg.HTTP.UploadsPerMinute)

	cfg.AI.APIKey = env.MayString("GEMINI_API_KEY", cfg.AI.APIKey)
	cfg.AI.Project = env.MayString("GCP_PROJECT_ID", cfg.AI.Project)
	cfg.AI.Region = env.MayString("GCP_REGION", cfg.AI.Region)
	cfg.AI.Model = env.MayString("GEMINI_MODEL", cfg.AI.Model)
	cfg.AI.Temperature = env.MayFloat32("GEMINI_TEMPERATURE", cfg.AI.Temperature)
	cfg.AI.SafetyThreshold = env.MayString("GEMINI_SAFETY_THRESHOLD", cfg.AI.SafetyThreshold)

	gen := env.Prefix("GEN_")
	cfg.Generator.MaxRetries = gen.MayInt("MAX_RETRIES", cfg.Generator.MaxRetries)
	cfg.Generator.AttemptTimeout = gen.MayDuration("ATTEMPT_TIMEOUT", cfg.Generator.AttemptTimeout)
	cfg.Generator.Backoff = gen.MayDuration("BACKOFF", cfg.Generator.Backoff)
	cfg.Generator.ContentLimit = gen.MayInt("CONTENT_LIMIT", cfg.Generator.ContentLimit)
	cfg.Generator.ExtraTerms = gen.MayInt("EXTRA_TERMS", cfg.Generator.ExtraTerms)

	st := env.Prefix("STORE_")
	cfg.Store.Driver = st.MayString("DRIVER", cfg.Store.Driver)
	cfg.Store.DSN = st.MayString("DSN", cfg.Store.DSN)
}

// Validate rejects configurations the service cannot run with.
func (cfg Config) Validate() error {
	switch {
	case cfg.Generator.MaxRetries < 1:
		return fmt.Errorf("generator.max_retries must be at least 1, got %d", cfg.Generator.MaxRetries)
	case cfg.Generator.AttemptTimeout <= 0:
		return fmt.Errorf("generator.attempt_timeout must be positive")
	case cfg.Generator.Backoff < 0:
		return fmt.Errorf("generator.backoff must not be negative")
	case cfg.Generator.ContentLimit <= 0:
		return fmt.Errorf("generator.content_limit must be positive")
	case cfg.Store.Driver != "memory" && cfg.Store.Driver != "sqlite":
		return fmt.Errorf("store.driver must be memory or sqlite, got %q", cfg.Store.Driver)
	}
	return nil
}
