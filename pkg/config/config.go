// Package config loads service configuration from YAML with environment
// variable fallbacks for secrets and deployment settings.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Server
	Server ServerConfig `yaml:"server"`

	// LLM provider
	LLM LLMConfig `yaml:"llm"`

	// Redis session storage
	Redis RedisConfig `yaml:"redis"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// EnableMetrics exposes /metrics when true.
	EnableMetrics bool `yaml:"enable_metrics"`
}

// LLMConfig holds provider selection and keys.
type LLMConfig struct {
	// Provider is "gemini" or "openai".
	Provider    string  `yaml:"provider"`
	GeminiKey   string  `yaml:"gemini_key"`
	OpenAIKey   string  `yaml:"openai_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// RequestsPerSecond caps outbound LLM calls (0 = unlimited).
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// RedisConfig holds session store settings. An empty Addr means sessions are
// kept in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Load reads configuration from a YAML file. A missing path yields the
// defaults with environment overrides, so the service can run with no file.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Apply defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "gemini"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}

	// Load secrets and deployment settings from environment if not in config
	if cfg.LLM.GeminiKey == "" {
		cfg.LLM.GeminiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.LLM.OpenAIKey == "" {
		cfg.LLM.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Redis.Addr == "" {
		if host := os.Getenv("REDIS_HOST"); host != "" {
			port := os.Getenv("REDIS_PORT")
			if port == "" {
				port = "6379"
			}
			cfg.Redis.Addr = host + ":" + port
		}
	}
	if cfg.Redis.Password == "" {
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if cfg.Redis.DB == 0 {
		if db := os.Getenv("REDIS_DB"); db != "" {
			if n, err := strconv.Atoi(db); err == nil {
				cfg.Redis.DB = n
			}
		}
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.GeminiKey == "" {
			return fmt.Errorf("gemini provider selected but no API key configured")
		}
	case "openai":
		if c.LLM.OpenAIKey == "" {
			return fmt.Errorf("openai provider selected but no API key configured")
		}
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
	return nil
}
