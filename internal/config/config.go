package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	OrganizationURL     string   `mapstructure:"organization_url"`
	Project             string   `mapstructure:"project"`
	APIVersion          string   `mapstructure:"api_version"`
	UserAgent           string   `mapstructure:"user_agent"`
	Debug               bool     `mapstructure:"debug"`
	Projects            []string `mapstructure:"projects"`
	Theme               string   `mapstructure:"theme"`
	OverviewConcurrency int      `mapstructure:"overview_concurrency"`

	// path is the file the config was loaded from, used by Save
	path string
}

// Default configuration values
const (
	DefaultAPIVersion          = "7.0"
	DefaultTheme               = "dark"
	DefaultOverviewConcurrency = 8

	envPrefix = "AZDO"
	appDir    = "azdo-prtree"
)

var keys = []string{
	"organization_url",
	"project",
	"api_version",
	"user_agent",
	"debug",
	"projects",
	"theme",
	"overview_concurrency",
}

// ErrConfigNotFound is returned when no config file exists at the expected path.
var ErrConfigNotFound = errors.New("config file not found")

// GetPath returns the path to the config file
func GetPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appDir, "config.yaml"), nil
}

// Default returns a config with default values that will be saved to path.
func Default(path string) *Config {
	return &Config{
		APIVersion:          DefaultAPIVersion,
		Theme:               DefaultTheme,
		OverviewConcurrency: DefaultOverviewConcurrency,
		path:                path,
	}
}

// Load reads the configuration from ~/.config/azdo-prtree/config.yaml
func Load() (*Config, error) {
	path, err := GetPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from path. Values may be overridden with
// AZDO_ prefixed environment variables, e.g. AZDO_PROJECT.
// Returns an error wrapping ErrConfigNotFound if the file doesn't exist, showing the expected path
func LoadFrom(path string) (*Config, error) {
	// Create a new viper instance to avoid state pollution
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("api_version", DefaultAPIVersion)
	v.SetDefault("theme", DefaultTheme)
	v.SetDefault("overview_concurrency", DefaultOverviewConcurrency)

	v.SetEnvPrefix(envPrefix)
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at: %s\nRun 'azdo-prtree configure' to create it", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if c.OrganizationURL == "" {
		return errors.New("organization_url cannot be empty")
	}
	u, err := url.Parse(c.OrganizationURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("organization_url must be an absolute http(s) URL, got %q", c.OrganizationURL)
	}

	if c.APIVersion == "" {
		return errors.New("api_version cannot be empty")
	}

	if c.OverviewConcurrency <= 0 {
		return fmt.Errorf("overview_concurrency must be greater than 0, got %d", c.OverviewConcurrency)
	}

	if c.Theme == "" {
		return errors.New("theme cannot be empty")
	}

	return nil
}

// Path returns the file this config is read from and saved to.
func (c *Config) Path() string {
	return c.path
}

// Save validates the config and writes it back as YAML.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("organization_url", c.OrganizationURL)
	v.Set("project", c.Project)
	v.Set("api_version", c.APIVersion)
	if c.UserAgent != "" {
		v.Set("user_agent", c.UserAgent)
	}
	v.Set("debug", c.Debug)
	if len(c.Projects) > 0 {
		v.Set("projects", c.Projects)
	}
	v.Set("theme", c.Theme)
	v.Set("overview_concurrency", c.OverviewConcurrency)

	if err := v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetTheme returns the configured theme name.
// Returns the default theme if the theme is empty.
func (c *Config) GetTheme() string {
	if c.Theme == "" {
		return DefaultTheme
	}
	return c.Theme
}

// UpdateTheme sets the theme and saves the config.
// The previous theme is restored if saving fails.
func (c *Config) UpdateTheme(name string) error {
	if name == "" {
		return errors.New("theme cannot be empty")
	}

	previous := c.Theme
	c.Theme = name
	if err := c.Save(); err != nil {
		c.Theme = previous
		return err
	}
	return nil
}
