package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"threadhub/internal/session"
)

// Config holds all TUI configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	User     UserConfig     `yaml:"user"`
	Comments session.Policy `yaml:"comments"`
	UI       UIConfig       `yaml:"ui"`
}

// ServerConfig contains server connection settings
type ServerConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// Live enables the websocket event subscription
	Live bool `yaml:"live"`
}

// UserConfig holds the saved session
type UserConfig struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
}

// UIConfig for UI preferences
type UIConfig struct {
	// Article opened at startup
	Article int64 `yaml:"article"`
	// RelativeTimes renders "5 minutes ago" instead of timestamps
	RelativeTimes bool `yaml:"relative_times"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080/api/v1",
			Timeout: 10 * time.Second,
			Live:    true,
		},
		Comments: session.DefaultPolicy(),
		UI: UIConfig{
			Article:       1,
			RelativeTimes: true,
		},
	}
}

// Load loads configuration from file, falling back to defaults. It returns
// the path it read, or the path Save should write to when none was found.
func Load(configPath string) (*Config, string, error) {
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath == "" {
		return Default(), DefaultPath(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), configPath, nil
		}
		return nil, configPath, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, configPath, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = Default().Server.BaseURL
	}
	return cfg, configPath, nil
}

// Save saves configuration to file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file holds a bearer token
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultPath is where Save writes when no config file exists yet
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "threadhub-tui.yaml"
	}
	return filepath.Join(home, ".config", "threadhub", "tui.yaml")
}

// findConfigFile searches for config in standard locations
func findConfigFile() string {
	locations := []string{
		"./threadhub-tui.yaml",
		"./configs/tui.yaml",
		DefaultPath(),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}
