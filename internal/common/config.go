package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/readwise-mcp/internal/readwise"
	"github.com/ternarybob/readwise-mcp/internal/services/validation"
)

// Config represents the application configuration
type Config struct {
	Readwise  ReadwiseConfig  `toml:"readwise"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Cache     CacheConfig     `toml:"cache"`
	Content   ContentConfig   `toml:"content"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ReadwiseConfig struct {
	Token     string `toml:"token"`
	BaseURL   string `toml:"base_url" validate:"required,url"`    // Reader API (v3)
	V2BaseURL string `toml:"v2_base_url" validate:"required,url"` // Highlights API (v2)
	AuthURL   string `toml:"auth_url" validate:"required,url"`
	Timeout   string `toml:"timeout" validate:"required"` // e.g. "30s"
}

// RateLimitConfig throttles tool invocations. RequestsPerSecond 0 disables the limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
	Burst             int     `toml:"burst" validate:"gte=0"`
}

type CacheConfig struct {
	TTL        string `toml:"ttl" validate:"required"` // e.g. "300s"
	MaxEntries int    `toml:"max_entries" validate:"gte=0"`
}

type ContentConfig struct {
	DefaultLimit     int `toml:"default_limit" validate:"gte=1"`      // Documents returned when full content is requested without a limit
	MaxFullContent   int `toml:"max_full_content" validate:"gte=1"`   // Above this count full-content listing is refused with an error message
	DefaultMaxLength int `toml:"default_max_length" validate:"gte=1"` // Characters kept per document after post-processing
	MaxPages         int `toml:"max_pages" validate:"gte=0"`          // Page cap for topic search (0 = unbounded)
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Output     []string `toml:"output"`      // "file", "stdout"/"console"
	TimeFormat string   `toml:"time_format"` // default "15:04:05.000"
	Dir        string   `toml:"dir"`         // log directory, defaults to ./logs next to the executable
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Readwise: ReadwiseConfig{
			BaseURL:   readwise.DefaultBaseURL,
			V2BaseURL: readwise.DefaultV2BaseURL,
			AuthURL:   readwise.DefaultAuthURL,
			Timeout:   readwise.DefaultTimeout.String(),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Cache: CacheConfig{
			TTL:        "300s",
			MaxEntries: 256,
		},
		Content: ContentConfig{
			DefaultLimit:     5,
			MaxFullContent:   20,
			DefaultMaxLength: 50000,
			MaxPages:         0,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"file"}, // stdout carries the MCP protocol
			TimeFormat: "15:04:05.000",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if token := os.Getenv("READWISE_TOKEN"); token != "" {
		config.Readwise.Token = token
	}
	if baseURL := os.Getenv("READWISE_BASE_URL"); baseURL != "" {
		config.Readwise.BaseURL = baseURL
	}
	if v2 := os.Getenv("READWISE_V2_BASE_URL"); v2 != "" {
		config.Readwise.V2BaseURL = v2
	}
	if timeout := os.Getenv("READWISE_TIMEOUT"); timeout != "" {
		config.Readwise.Timeout = timeout
	}

	if rps := os.Getenv("READWISE_RATE_LIMIT_RPS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			config.RateLimit.RequestsPerSecond = v
		}
	}
	if burst := os.Getenv("READWISE_RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			config.RateLimit.Burst = v
		}
	}

	if ttl := os.Getenv("READWISE_CACHE_TTL"); ttl != "" {
		config.Cache.TTL = ttl
	}
	if maxEntries := os.Getenv("READWISE_CACHE_MAX_ENTRIES"); maxEntries != "" {
		if v, err := strconv.Atoi(maxEntries); err == nil {
			config.Cache.MaxEntries = v
		}
	}

	if maxPages := os.Getenv("READWISE_MAX_PAGES"); maxPages != "" {
		if v, err := strconv.Atoi(maxPages); err == nil {
			config.Content.MaxPages = v
		}
	}

	if level := os.Getenv("READWISE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("READWISE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// Validate checks the configuration. A missing token is reported first since
// nothing works without it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Readwise.Token) == "" {
		return &readwise.ValidationError{
			Field:   "token",
			Message: "READWISE_TOKEN environment variable is required",
		}
	}
	if err := validation.Default().Struct(c); err != nil {
		return err
	}
	if _, err := c.Readwise.TimeoutDuration(); err != nil {
		return &readwise.ValidationError{Field: "readwise.timeout", Message: err.Error()}
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		return &readwise.ValidationError{Field: "cache.ttl", Message: err.Error()}
	}
	return nil
}

// TimeoutDuration parses the HTTP timeout.
func (r ReadwiseConfig) TimeoutDuration() (time.Duration, error) {
	return parsePositiveDuration(r.Timeout)
}

// TTLDuration parses the cache TTL.
func (c CacheConfig) TTLDuration() (time.Duration, error) {
	return parsePositiveDuration(c.TTL)
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}
