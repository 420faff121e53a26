// Package config loads the herderd service configuration from YAML,
// applying defaults so a missing or sparse file still yields a runnable
// setup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root herderd configuration.
type Config struct {
	// Bind is the gateway listen address.
	Bind string `yaml:"bind"`

	Log   LogConfig   `yaml:"log"`
	Herd  HerdConfig  `yaml:"herd"`
	Field FieldConfig `yaml:"field"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// HerdConfig tunes the broker and registry.
type HerdConfig struct {
	// BaseName prefixes generated entity names.
	BaseName string `yaml:"base_name"`
	// MaxConcurrentRequests limits simultaneously handled requests.
	MaxConcurrentRequests int `yaml:"max_concurrent_requests"`
	// BufferSize sets channel buffering for the request/response pairs.
	BufferSize int `yaml:"buffer_size"`
}

// FieldConfig shapes the demo simulation surface.
type FieldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	// Seed fixes random start poses; 0 seeds from entropy.
	Seed int64 `yaml:"seed"`
	// DefaultTurtle starts the field with the simulator's default turtle,
	// which the bootstrap then sweeps away.
	DefaultTurtle bool `yaml:"default_turtle"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Bind: ":8471",
		Log:  LogConfig{Level: "info", Format: "json"},
		Herd: HerdConfig{
			BaseName:              "turtle",
			MaxConcurrentRequests: 16,
			BufferSize:            32,
		},
		Field: FieldConfig{
			Width:         11.09,
			Height:        11.09,
			DefaultTurtle: true,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	if c.Bind == "" {
		return fmt.Errorf("config: bind must not be empty")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: log format %q is not json or text", c.Log.Format)
	}
	if c.Herd.BaseName == "" {
		return fmt.Errorf("config: herd base_name must not be empty")
	}
	if c.Herd.MaxConcurrentRequests < 0 {
		return fmt.Errorf("config: max_concurrent_requests must not be negative")
	}
	if c.Herd.BufferSize <= 0 {
		return fmt.Errorf("config: buffer_size must be positive")
	}
	if c.Field.Width <= 0 || c.Field.Height <= 0 {
		return fmt.Errorf("config: field dimensions must be positive")
	}
	return nil
}
