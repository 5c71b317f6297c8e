// Package config defines the kiosk configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> .env file -> YAML overlay -> built-in defaults (Lowest)
//
// The .env file never overrides variables that are already set.
package config

import (
	"time"
)

// SecretString keeps the data.go.kr service key out of logs and JSON dumps
type SecretString string

const redacted = "[REDACTED]"

// String returns a redacted placeholder instead of the raw value
func (s SecretString) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// MarshalJSON returns the redacted placeholder as a JSON string
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Unmask returns the raw value
func (s SecretString) Unmask() string {
	return string(s)
}

// Config is the top-level kiosk configuration
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" yaml:"log_level" validate:"oneof=debug info warn error"`
	Timezone string `envconfig:"TIMEZONE" yaml:"timezone" validate:"required"`

	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Display  DisplayConfig  `yaml:"display"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Port int `envconfig:"PORT" yaml:"port" validate:"min=1,max=65535"`
}

// UpstreamConfig holds the public data portal settings shared by the KMA and
// AirKorea clients
type UpstreamConfig struct {
	// An empty key is allowed at startup; /api/weather answers 400 until it is set
	ServiceKey  SecretString `envconfig:"PUBLIC_DATA_SERVICE_KEY" yaml:"service_key"`
	NX          int          `envconfig:"NX" yaml:"nx" validate:"min=1,max=300"`
	NY          int          `envconfig:"NY" yaml:"ny" validate:"min=1,max=300"`
	StationName string       `envconfig:"STATION_NAME" yaml:"station_name" validate:"required"`

	KMABaseURL      string `envconfig:"KMA_BASE_URL" yaml:"kma_base_url" validate:"required,url"`
	AirKoreaBaseURL string `envconfig:"AIRKOREA_BASE_URL" yaml:"airkorea_base_url" validate:"required,url"`

	Timeout   time.Duration `envconfig:"UPSTREAM_TIMEOUT" yaml:"timeout" validate:"gt=0"`
	RateLimit float64       `envconfig:"UPSTREAM_RATE_LIMIT" yaml:"rate_limit" validate:"gt=0"`
	Burst     int           `envconfig:"UPSTREAM_BURST" yaml:"burst" validate:"min=1"`
}

// CacheConfig holds the proxy payload cache settings
type CacheConfig struct {
	Duration time.Duration `envconfig:"CACHE_DURATION" yaml:"duration" validate:"gt=0"`
	// File is where the last payload is persisted; empty disables persistence
	File string `envconfig:"CACHE_FILE" yaml:"file"`
}

// DisplayConfig holds the clock and weather panel settings
type DisplayConfig struct {
	// Endpoint is the weather payload URL; empty means this process's own /api/weather
	Endpoint      string        `envconfig:"WEATHER_ENDPOINT" yaml:"endpoint" validate:"omitempty,url"`
	Refresh       time.Duration `envconfig:"WEATHER_REFRESH" yaml:"refresh" validate:"gt=0"`
	FrameInterval time.Duration `envconfig:"FRAME_INTERVAL" yaml:"frame_interval" validate:"gt=0"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Timezone: "Asia/Seoul",
		Server: ServerConfig{
			Port: 9001,
		},
		Upstream: UpstreamConfig{
			NX:              60,
			NY:              127,
			StationName:     "종로구",
			KMABaseURL:      "http://apis.data.go.kr/1360000/VilageFcstInfoService_2.0",
			AirKoreaBaseURL: "http://apis.data.go.kr/B552584/ArpltnInforInqireSvc",
			Timeout:         10 * time.Second,
			RateLimit:       2,
			Burst:           4,
		},
		Cache: CacheConfig{
			Duration: 60 * time.Minute,
			File:     "weather_cache.json",
		},
		Display: DisplayConfig{
			Refresh:       30 * time.Minute,
			FrameInterval: 100 * time.Millisecond,
		},
	}
}

// ConfigErrorType categorizes configuration loading failures
type ConfigErrorType string

const (
	// ErrReadFile indicates the YAML overlay could not be read
	ErrReadFile ConfigErrorType = "READ_FAILED"
	// ErrParsing indicates a value could not be parsed into its target type
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed validation rules
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)
