package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL   = "http://localhost:4000"
	defaultFileName  = "market.yaml"
	defaultAppFolder = "campus-market"
)

// APIConfig holds connection details for the marketplace backend.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// SearchConfig tunes the AI-assisted search path.
type SearchConfig struct {
	AITimeout time.Duration `yaml:"ai_timeout"`
	History   bool          `yaml:"history"`
}

// StorageConfig points at the local SQLite cache.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	API     APIConfig     `yaml:"api"`
	Search  SearchConfig  `yaml:"search"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`

	// Token is only ever read from the environment.
	Token string `yaml:"-"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	cfg.applyEnvOverrides()
	return &cfg, nil
}

// LoadDefault tries ./market.yaml first, then ~/.config/campus-market/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	if _, err := os.Stat(defaultFileName); err == nil {
		cfg, err := Load(defaultFileName)
		return cfg, defaultFileName, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	cfg.applyEnvOverrides()
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// BaseURL returns the API base URL without a trailing slash.
func (c *AppConfig) BaseURL() string {
	return strings.TrimRight(c.API.BaseURL, "/")
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", defaultAppFolder, "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		API:     APIConfig{BaseURL: DefaultBaseURL, Timeout: 15 * time.Second, MaxRetries: 3},
		Search:  SearchConfig{AITimeout: 30 * time.Second, History: true},
		Logging: LoggingConfig{Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 15 * time.Second
	}
	if cfg.API.MaxRetries < 0 {
		cfg.API.MaxRetries = 0
	}
	if cfg.Search.AITimeout == 0 {
		cfg.Search.AITimeout = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *AppConfig) applyEnvOverrides() {
	if v := os.Getenv("NEXT_PUBLIC_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("MARKET_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("MARKET_DB"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("MARKET_TOKEN"); v != "" {
		c.Token = v
	}
}
