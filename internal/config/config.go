// Package config loads tutor-memory settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Agent kinds accepted by agent.kind.
const (
	AgentNone   = "none"
	AgentHTTP   = "http"
	AgentClaude = "claude"
)

// Config is the full tutor-memory configuration.
type Config struct {
	DB    string      `mapstructure:"db"`
	Log   LogConfig   `mapstructure:"log"`
	Agent AgentConfig `mapstructure:"agent"`
	Sync  SyncConfig  `mapstructure:"sync"`
}

// LogConfig controls logger level and output.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// AgentConfig selects and configures the memory agent.
type AgentConfig struct {
	Kind      string        `mapstructure:"kind"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	AgentID   string        `mapstructure:"agent_id"`
	Model     string        `mapstructure:"model"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SyncConfig tunes the synchronization pipeline.
type SyncConfig struct {
	SummaryMaxRunes int    `mapstructure:"summary_max_runes"`
	Instruction     string `mapstructure:"instruction"`
}

// Dir returns the default tutor-memory home directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tutor-memory")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", filepath.Join(Dir(), "memory.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("agent.kind", AgentNone)
	v.SetDefault("agent.base_url", "")
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.agent_id", "")
	v.SetDefault("agent.model", "claude-sonnet-4-5")
	v.SetDefault("agent.max_tokens", 2048)
	v.SetDefault("agent.timeout", 60*time.Second)
	v.SetDefault("sync.summary_max_runes", 1000)
	v.SetDefault("sync.instruction", "")
}

// Load reads configuration from path (or the default location when empty),
// then applies TUTOR_MEMORY_* environment overrides. A missing file is fine.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TUTOR_MEMORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and agent settings.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (must be debug, info, warn or error)", c.Log.Level)
	}
	switch c.Agent.Kind {
	case AgentNone, AgentClaude:
	case AgentHTTP:
		if c.Agent.BaseURL == "" || c.Agent.AgentID == "" {
			return fmt.Errorf("agent.kind http requires agent.base_url and agent.agent_id")
		}
	default:
		return fmt.Errorf("invalid agent.kind %q (must be none, http or claude)", c.Agent.Kind)
	}
	if c.Sync.SummaryMaxRunes < 0 {
		return fmt.Errorf("sync.summary_max_runes must not be negative")
	}
	return nil
}
