package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ConfigError is returned by Load
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load builds the configuration. yamlPath may be empty.
func Load(yamlPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &ConfigError{Type: ErrParsing, Message: "failed to load .env", Err: err}
	}

	cfg := Default()

	if yamlPath != "" {
		if err := overlayYAML(cfg, yamlPath); err != nil {
			return nil, err
		}
	}

	// no default tags: unset variables keep the YAML or built-in value
	if err := envconfig.Process("", cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlayYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Type: ErrReadFile, Message: "failed to read " + path, Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &ConfigError{Type: ErrParsing, Message: "failed to parse " + path, Err: err}
	}
	return nil
}

// Validate checks field rules and that the timezone can be loaded
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	if _, err := c.Location(); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "unknown timezone " + c.Timezone,
			Err:     err,
		}
	}
	return nil
}

// Location returns the configured display timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// WeatherEndpoint returns the URL the weather panel polls
func (c *Config) WeatherEndpoint() string {
	if c.Display.Endpoint != "" {
		return c.Display.Endpoint
	}
	return fmt.Sprintf("http://127.0.0.1:%d/api/weather", c.Server.Port)
}
