// Package config loads service configuration from codedrill.yaml with
// viper, after pulling a local .env into the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ProviderConfig struct {
	BaseURL string            `mapstructure:"base_url"`
	APIKey  string            `mapstructure:"api_key"`
	Models  map[string]string `mapstructure:"models"`
}

type GradingConfig struct {
	GenerateTemperature float64       `mapstructure:"generate_temperature"`
	JudgeTemperature    float64       `mapstructure:"judge_temperature"`
	ModelTimeout        time.Duration `mapstructure:"model_timeout"`
	PresetsPath         string        `mapstructure:"presets_path"`
}

type SandboxConfig struct {
	Backend   string        `mapstructure:"backend"` // "docker" or "process"
	Image     string        `mapstructure:"image"`
	Python    string        `mapstructure:"python"`
	MaxMemory string        `mapstructure:"max_memory"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type SessionConfig struct {
	Backend       string        `mapstructure:"backend"` // "memory" or "redis"
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

type Config struct {
	Providers       map[string]ProviderConfig `mapstructure:"providers"`
	DefaultProvider string                    `mapstructure:"default_provider"`
	Grading         GradingConfig             `mapstructure:"grading"`
	Sandbox         SandboxConfig             `mapstructure:"sandbox"`
	Server          ServerConfig              `mapstructure:"server"`
	Storage         StorageConfig             `mapstructure:"storage"`
	Sessions        SessionConfig             `mapstructure:"sessions"`
}

func Load() (*Config, error) {
	// A missing .env is fine; exported variables win either way.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("codedrill")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.codedrill")

	v.SetDefault("default_provider", "ollama")
	v.SetDefault("providers.ollama.base_url", "http://localhost:11434/v1/")
	v.SetDefault("providers.ollama.api_key", "ollama")
	v.SetDefault("grading.generate_temperature", 0.7)
	v.SetDefault("grading.judge_temperature", 0.5)
	v.SetDefault("grading.model_timeout", time.Minute)
	v.SetDefault("sandbox.backend", "docker")
	v.SetDefault("sandbox.image", "python:3.12-slim")
	v.SetDefault("sandbox.max_memory", "128m")
	v.SetDefault("sandbox.timeout", 10*time.Second)
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".codedrill", "codedrill.db"))
	v.SetDefault("sessions.backend", "memory")
	v.SetDefault("sessions.ttl", 24*time.Hour)
	v.SetDefault("sessions.redis_addr", "localhost:6379")

	if err := v.ReadInConfig(); err != nil {
		// Defaults alone are a working configuration.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Expand environment variables in API keys
	for name, p := range cfg.Providers {
		if strings.HasPrefix(p.APIKey, "${") && strings.HasSuffix(p.APIKey, "}") {
			envVar := p.APIKey[2 : len(p.APIKey)-1]
			p.APIKey = os.Getenv(envVar)
			cfg.Providers[name] = p
		}
	}

	return &cfg, nil
}

// Provider returns the config for a named provider, falling back to the
// default.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	if name == "" {
		name = c.DefaultProvider
	}
	p, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("unknown provider: %s", name)
	}
	return p, nil
}

// Model resolves the model name for a provider, preferring an explicit
// override, then the provider's "default" entry.
func (p ProviderConfig) Model(override string) string {
	if override != "" {
		return override
	}
	return p.Models["default"]
}

// IsOllama returns true if this provider looks like an Ollama instance.
func (p ProviderConfig) IsOllama() bool {
	return strings.Contains(p.BaseURL, ":11434") || strings.Contains(strings.ToLower(p.BaseURL), "ollama")
}
