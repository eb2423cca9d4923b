// Package config loads runtime settings from .env, the environment and an
// optional analyzer.yaml, in that order of precedence (env wins over file).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

type Config struct {
	Provider        string `mapstructure:"llm_provider"`
	UseMock         bool   `mapstructure:"use_mock_llm"`
	APIKey          string `mapstructure:"llm_api_key"`
	GatewayURL      string `mapstructure:"llm_gateway_url"`
	Tier            string `mapstructure:"api_tier"`
	WorkingLanguage string `mapstructure:"working_language"`
	SessionDir      string `mapstructure:"session_dir"`
	PromptsPath     string `mapstructure:"prompts_path"`
	RateLimitsPath  string `mapstructure:"rate_limits_path"`
	HistoryDB       string `mapstructure:"history_db"`
	GroupAName      string `mapstructure:"group_a_name"`
	GroupBName      string `mapstructure:"group_b_name"`
	HTTPTimeoutSec  int    `mapstructure:"http_timeout_sec"`
	Port            string `mapstructure:"port"`
}

var defaults = map[string]any{
	"llm_provider":     ProviderGemini,
	"use_mock_llm":     false,
	"llm_api_key":      "",
	"llm_gateway_url":  "",
	"api_tier":         "Free Tier",
	"working_language": "English",
	"session_dir":      "sessions",
	"prompts_path":     "prompts.json",
	"rate_limits_path": "",
	"history_db":       "analyzer.db",
	"group_a_name":     "Customer",
	"group_b_name":     "IT Support",
	"http_timeout_sec": 60,
	"port":             "8080",
}

// NewViper returns a viper instance with defaults and env binding applied.
// Callers may bind cobra flags onto it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	return v
}

// Load reads .env (if any), then the config file (explicit path, or
// analyzer.yaml in the working directory when path is empty).
func Load(v *viper.Viper, path string) (*Config, error) {
	_ = godotenv.Load() // loads .env

	if v == nil {
		v = NewViper()
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("analyzer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = v.GetString("gemini_api_key")
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.UseMock {
		cfg.Provider = ProviderMock
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("unsupported llm_provider %q (supported: gemini, openai, mock)", c.Provider)
	}
	if c.HTTPTimeoutSec <= 0 {
		return fmt.Errorf("http_timeout_sec must be positive, got %d", c.HTTPTimeoutSec)
	}
	if strings.TrimSpace(c.GroupAName) == "" || strings.TrimSpace(c.GroupBName) == "" {
		return errors.New("group names must not be empty")
	}
	if strings.EqualFold(c.GroupAName, c.GroupBName) {
		return fmt.Errorf("group names must differ, both are %q", c.GroupAName)
	}
	return nil
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}
