// Package config loads and validates boop configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all boop configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM gateway configuration
	LLM LLMConfig `yaml:"llm"`

	// Tool synthesis pipeline
	Forge ForgeConfig `yaml:"forge"`

	// Tiered memory store
	Memory MemoryConfig `yaml:"memory"`

	// Tool library (GitHub-backed)
	Library LibraryConfig `yaml:"library"`

	// Personality responder
	Persona PersonaConfig `yaml:"persona"`

	// HTTP API
	API APIConfig `yaml:"api"`

	// Chat-surface bridges
	Channels ChannelsConfig `yaml:"channels"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the language-model gateway.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openrouter, gemini
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`      // main model for code generation/fixing
	FastModel string `yaml:"fast_model"` // cheaper model for classification/extraction
	BaseURL   string `yaml:"base_url"`
	Timeout   string `yaml:"timeout"`
}

// ForgeConfig configures the tool synthesis pipeline.
type ForgeConfig struct {
	ToolsDir       string `yaml:"tools_dir"`
	MaxFixAttempts int    `yaml:"max_fix_attempts"`
	ExecTimeout    string `yaml:"exec_timeout"` // per test-case invocation
}

// MemoryConfig configures the tiered memory store.
type MemoryConfig struct {
	DatabasePath   string `yaml:"database_path"`
	ShortThreshold int    `yaml:"short_threshold"` // messages before short-term condensation
	MidThreshold   int    `yaml:"mid_threshold"`   // short-term memories before mid-term
	LongThreshold  int    `yaml:"long_threshold"`  // mid-term memories before long-term
	SweepSchedule  string `yaml:"sweep_schedule"`  // cron spec for the consolidation sweep
}

// LibraryConfig configures the GitHub-backed tool library.
type LibraryConfig struct {
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	Token  string `yaml:"token"`
}

// PersonaConfig configures the personality responder.
type PersonaConfig struct {
	PromptPath string `yaml:"prompt_path"`
	Model      string `yaml:"model"`
}

// APIConfig configures the HTTP service shell.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// ChannelsConfig configures chat-surface bridges.
type ChannelsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig configures the Telegram bridge.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// LoggingConfig configures categorized logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "boop",
		Version: "1.0.0",

		LLM: LLMConfig{
			Provider:  "openrouter",
			Model:     "google/gemini-2.0-flash-001",
			FastModel: "google/gemini-2.0-flash-lite-001",
			BaseURL:   "https://openrouter.ai/api/v1",
			Timeout:   "120s",
		},

		Forge: ForgeConfig{
			ToolsDir:       "tools",
			MaxFixAttempts: 5,
			ExecTimeout:    "10s",
		},

		Memory: MemoryConfig{
			DatabasePath:   ".boop/memory.db",
			ShortThreshold: 20,
			MidThreshold:   5,
			LongThreshold:  3,
			SweepSchedule:  "@every 10m",
		},

		Library: LibraryConfig{
			Owner:  "tsaristov",
			Repo:   "boop-tools",
			Branch: "main",
		},

		Persona: PersonaConfig{
			PromptPath: "prompt.md",
		},

		API: APIConfig{
			Addr: ":8440",
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// DefaultPath returns the config file location inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".boop", "config.yaml")
}

// Load loads configuration from a YAML file, merging with defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" && c.LLM.Provider == "openrouter" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.Provider == "gemini" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("BOOP_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("BOOP_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if dir := os.Getenv("BOOP_TOOLS_DIR"); dir != "" {
		c.Forge.ToolsDir = dir
	}
	if path := os.Getenv("BOOP_DB"); path != "" {
		c.Memory.DatabasePath = path
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.Library.Token = token
	}
	if owner := os.Getenv("BOOP_LIBRARY_OWNER"); owner != "" {
		c.Library.Owner = owner
	}
	if repo := os.Getenv("BOOP_LIBRARY_REPO"); repo != "" {
		c.Library.Repo = repo
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Channels.Telegram.Token = token
	}
}

// GetLLMTimeout parses the gateway call timeout.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetExecTimeout parses the per-invocation execution timeout.
func (c *Config) GetExecTimeout() time.Duration {
	d, err := time.ParseDuration(c.Forge.ExecTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Validate checks the configuration for obvious problems.
func (c *Config) Validate() error {
	if c.LLM.Provider != "openrouter" && c.LLM.Provider != "gemini" {
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}
	if c.Forge.MaxFixAttempts < 1 {
		return fmt.Errorf("forge.max_fix_attempts must be >= 1")
	}
	if c.Memory.ShortThreshold < 1 || c.Memory.MidThreshold < 1 || c.Memory.LongThreshold < 1 {
		return fmt.Errorf("memory thresholds must be >= 1")
	}
	return nil
}
