package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Providers ProvidersConfig `yaml:"providers"`
	Encoder   EncoderConfig   `yaml:"encoder"`
	Storage   StorageConfig   `yaml:"storage"`
	Render    RenderConfig    `yaml:"render"`
	Merge     MergeConfig     `yaml:"merge"`
	Scenario  ScenarioConfig  `yaml:"scenario"`
	Sources   SourcesConfig   `yaml:"sources"`
}

type ProvidersConfig struct {
	Kling   ProviderConfig `yaml:"kling"`
	Heygen  ProviderConfig `yaml:"heygen"`
	Minimax ProviderConfig `yaml:"minimax"`
}

type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the env var holding the key; keys never live in yaml.
	APIKeyEnv string `yaml:"api_key_env"`
}

type EncoderConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
	BaseURL   string `yaml:"base_url"`
}

type RenderConfig struct {
	MaxConcurrent  int `yaml:"max_concurrent"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type MergeConfig struct {
	HandleTTLSeconds int    `yaml:"handle_ttl_seconds"`
	TempDir          string `yaml:"temp_dir"`
}

type ScenarioConfig struct {
	Model            string  `yaml:"model"`
	SceneDurationSec float64 `yaml:"scene_duration_sec"`
}

type SourcesConfig struct {
	// Appended to the built-in seed-image deny-list.
	ExtraDeniedHosts []string `yaml:"extra_denied_hosts"`
}

// Load reads the yaml config at path and applies defaults for anything unset.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Providers.Kling.BaseURL == "" {
		c.Providers.Kling.BaseURL = "https://api.klingai.com"
	}
	if c.Providers.Kling.APIKeyEnv == "" {
		c.Providers.Kling.APIKeyEnv = "KLING_API_KEY"
	}
	if c.Providers.Heygen.BaseURL == "" {
		c.Providers.Heygen.BaseURL = "https://api.heygen.com"
	}
	if c.Providers.Heygen.APIKeyEnv == "" {
		c.Providers.Heygen.APIKeyEnv = "HEYGEN_API_KEY"
	}
	if c.Providers.Minimax.BaseURL == "" {
		c.Providers.Minimax.BaseURL = "https://api.minimax.chat"
	}
	if c.Providers.Minimax.APIKeyEnv == "" {
		c.Providers.Minimax.APIKeyEnv = "MINIMAX_API_KEY"
	}
	if c.Encoder.BaseURL == "" {
		c.Encoder.BaseURL = "http://localhost:9090"
	}
	if c.Encoder.TimeoutSeconds == 0 {
		c.Encoder.TimeoutSeconds = 300
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "./uploads"
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = "http://localhost:8080"
	}
	if c.Render.MaxConcurrent == 0 {
		c.Render.MaxConcurrent = 4
	}
	if c.Render.TimeoutSeconds == 0 {
		c.Render.TimeoutSeconds = 600
	}
	if c.Merge.HandleTTLSeconds == 0 {
		c.Merge.HandleTTLSeconds = 60
	}
	if c.Merge.TempDir == "" {
		c.Merge.TempDir = os.TempDir()
	}
	if c.Scenario.Model == "" {
		c.Scenario.Model = "gpt-4o-mini"
	}
	if c.Scenario.SceneDurationSec == 0 {
		c.Scenario.SceneDurationSec = 5
	}
}

func (c *Config) HandleTTL() time.Duration {
	return time.Duration(c.Merge.HandleTTLSeconds) * time.Second
}

func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}

func (c *Config) EncoderTimeout() time.Duration {
	return time.Duration(c.Encoder.TimeoutSeconds) * time.Second
}
