// Package config handles configuration loading and management for planc.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/h1t35h/AssetOpsBench/internal/catalog"
	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/internal/state"
)

const (
	appName           = "planc"
	projectConfigName = ".planc.yaml"
	envPrefix         = "PLANC"

	// DefaultModel is the model used for plan generation when none is configured.
	DefaultModel = "claude-sonnet-4-20250514"
	// DefaultMaxTokens caps the planner's response length.
	DefaultMaxTokens = 2048
)

// Config holds all configuration for planc.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic" yaml:"anthropic"`
	Compiler  CompilerConfig  `mapstructure:"compiler" yaml:"compiler"`
	Catalog   CatalogConfig   `mapstructure:"catalog" yaml:"catalog"`
	History   HistoryConfig   `mapstructure:"history" yaml:"history"`
}

// AnthropicConfig holds LLM planner settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	Model      string `mapstructure:"model" yaml:"model"`
	MaxTokens  int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	UseBedrock bool   `mapstructure:"use_bedrock" yaml:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region" yaml:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile" yaml:"aws_profile"`
}

// CompilerConfig holds plan compiler limits.
type CompilerConfig struct {
	MaxSteps      int `mapstructure:"max_steps" yaml:"max_steps"`
	MaxInputBytes int `mapstructure:"max_input_bytes" yaml:"max_input_bytes"`
}

// CatalogConfig locates the agent catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// HistoryConfig controls the compilation history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Keys lists every supported configuration key in display order.
var Keys = []string{
	"anthropic.api_key",
	"anthropic.model",
	"anthropic.max_tokens",
	"anthropic.use_bedrock",
	"anthropic.aws_region",
	"anthropic.aws_profile",
	"compiler.max_steps",
	"compiler.max_input_bytes",
	"catalog.path",
	"history.enabled",
	"history.path",
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, PLANC_*)
// 2. Project config (.planc.yaml in current directory or parent)
// 3. User config (~/.config/planc/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Catalog.Path = expandEnv(cfg.Catalog.Path)
	cfg.History.Path = expandEnv(cfg.History.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects limits the compiler cannot honor.
func (c *Config) Validate() error {
	if c.Compiler.MaxSteps < 1 {
		return fmt.Errorf("compiler.max_steps must be at least 1, got %d", c.Compiler.MaxSteps)
	}
	if c.Compiler.MaxInputBytes < 1 {
		return fmt.Errorf("compiler.max_input_bytes must be at least 1, got %d", c.Compiler.MaxInputBytes)
	}
	if c.Anthropic.MaxTokens < 1 {
		return fmt.Errorf("anthropic.max_tokens must be at least 1, got %d", c.Anthropic.MaxTokens)
	}
	return nil
}

// Get returns the string form of a single key, or false if the key is unknown.
func (c *Config) Get(key string) (string, bool) {
	switch key {
	case "anthropic.api_key":
		return MaskAPIKey(c.Anthropic.APIKey), true
	case "anthropic.model":
		return c.Anthropic.Model, true
	case "anthropic.max_tokens":
		return fmt.Sprint(c.Anthropic.MaxTokens), true
	case "anthropic.use_bedrock":
		return fmt.Sprint(c.Anthropic.UseBedrock), true
	case "anthropic.aws_region":
		return c.Anthropic.AWSRegion, true
	case "anthropic.aws_profile":
		return c.Anthropic.AWSProfile, true
	case "compiler.max_steps":
		return fmt.Sprint(c.Compiler.MaxSteps), true
	case "compiler.max_input_bytes":
		return fmt.Sprint(c.Compiler.MaxInputBytes), true
	case "catalog.path":
		return c.Catalog.Path, true
	case "history.enabled":
		return fmt.Sprint(c.History.Enabled), true
	case "history.path":
		return c.History.Path, true
	default:
		return "", false
	}
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	return SaveTo(cfg, GetUserConfigPath())
}

// SaveTo writes the configuration to the given path.
func SaveTo(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("compiler.max_steps", cfg.Compiler.MaxSteps)
	v.Set("compiler.max_input_bytes", cfg.Compiler.MaxInputBytes)
	v.Set("catalog.path", cfg.Catalog.Path)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.path", cfg.History.Path)

	return v.WriteConfig()
}

// SetValue updates a single key in the file at configPath, creating it if needed.
func SetValue(configPath, key, value string) error {
	if !isKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", configPath, err)
		}
	}

	v.Set(key, value)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}

	// Reload through the normal path so type errors surface now.
	if _, err := LoadFromPath(configPath); err != nil {
		return err
	}
	return nil
}

func isKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", DefaultModel)
	v.SetDefault("anthropic.max_tokens", DefaultMaxTokens)
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("compiler.max_steps", compile.DefaultMaxSteps)
	v.SetDefault("compiler.max_input_bytes", compile.DefaultMaxInputBytes)

	v.SetDefault("catalog.path", catalog.DefaultPath)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", state.DefaultPath())
}

// bindEnv maps PLANC_* variables onto keys, plus the conventional ANTHROPIC_API_KEY.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY", envPrefix+"_ANTHROPIC_API_KEY")
}

// getUserConfigDir returns the XDG config directory for planc.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// findProjectConfig searches for .planc.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, projectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     DefaultModel,
			MaxTokens: DefaultMaxTokens,
		},
		Compiler: CompilerConfig{
			MaxSteps:      compile.DefaultMaxSteps,
			MaxInputBytes: compile.DefaultMaxInputBytes,
		},
		Catalog: CatalogConfig{
			Path: catalog.DefaultPath,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    state.DefaultPath(),
		},
	}
}
