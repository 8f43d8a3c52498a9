// Package config loads the CLI settings of a vault: defaults, then the
// vault's jot.toml, then JOT_* environment variables (a .env file included).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Filename is the config file looked up in the vault directory.
const Filename = "jot.toml"

// Config holds the settings of a vault.
type Config struct {
	Adapter  string `toml:"adapter" validate:"oneof=fs sqlite memory"`
	Codec    string `toml:"codec" validate:"oneof=json yaml"`
	Debounce string `toml:"debounce" validate:"required,duration"`
	LogLevel string `toml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Adapter:  "fs",
		Codec:    "json",
		Debounce: "200ms",
		LogLevel: "info",
	}
}

// LoadEnv loads a .env file from the working directory, if present.
// Variables already set in the environment win.
func LoadEnv() {
	_ = godotenv.Load()
}

// Load reads dir/jot.toml over the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(dir string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, Filename))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", Filename, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("reading %s: %w", Filename, err)
	}

	cfg.Adapter = getEnv("JOT_ADAPTER", cfg.Adapter)
	cfg.Codec = getEnv("JOT_CODEC", cfg.Codec)
	cfg.Debounce = getEnv("JOT_DEBOUNCE", cfg.Debounce)
	cfg.LogLevel = getEnv("JOT_LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to dir/jot.toml.
func Save(dir string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, Filename), data, 0644)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	return v
}

// Validate checks every field against its allowed values.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s=%q fails %q", fe.Field(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DebounceDuration returns Debounce parsed. Validate guarantees it parses.
func (c Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return 0
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
