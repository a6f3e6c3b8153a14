// Package config loads autotable settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Providers accepted in llm.provider.
const (
	ProviderAPI       = "api"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config holds all autotable configuration.
type Config struct {
	// LLM selects and configures the oracle.
	LLM LLMConfig `yaml:"llm"`

	// Ollama configures the local provider.
	Ollama OllamaConfig `yaml:"ollama"`

	// Output controls where filled documents are written.
	Output OutputConfig `yaml:"output"`

	// History controls retention of filled documents.
	History HistoryConfig `yaml:"history"`

	// Extract tunes knowledge extraction from Word sources.
	Extract ExtractConfig `yaml:"extract"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the oracle client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // api, ollama, gemini, anthropic
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`

	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// SystemPromptPath replaces the built-in system prompt template.
	SystemPromptPath string `yaml:"system_prompt_path"`

	// ExtraHeaders are sent with every request of the api provider.
	ExtraHeaders map[string]string `yaml:"extra_headers"`
}

// OllamaConfig configures a local Ollama server.
type OllamaConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// OutputConfig configures output placement.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// HistoryConfig configures retention of filled documents.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir"`
	MaxRecords int    `yaml:"max_records"`
}

// ExtractConfig tunes knowledge extraction.
type ExtractConfig struct {
	ChunkChars  int `yaml:"chunk_chars"`
	Concurrency int `yaml:"concurrency"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    ProviderAPI,
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Timeout:     "120s",
			Temperature: 0.1,
			MaxTokens:   4096,
		},
		Ollama: OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "qwen2.5:14b",
		},
		Output: OutputConfig{
			Dir: "output",
		},
		History: HistoryConfig{
			Enabled:    true,
			Dir:        "history",
			MaxRecords: 20,
		},
		Extract: ExtractConfig{
			ChunkChars:  8000,
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "autotable.log",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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

// providerKeyEnv names the conventional API key variable of each provider.
var providerKeyEnv = map[string]string{
	ProviderAPI:       "OPENAI_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("AUTOTABLE_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}

	// An explicit key always wins; the provider's own variable only fills
	// a key the file left empty.
	if key := os.Getenv("AUTOTABLE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	} else if env, ok := providerKeyEnv[c.LLM.Provider]; ok && c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(env)
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Ollama.Host = host
	}
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderAPI, ProviderOllama, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown llm provider %q (want api, ollama, gemini or anthropic)", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature %.2f out of range [0, 2]", c.LLM.Temperature)
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("llm timeout: %w", err)
		}
	}
	if c.History.MaxRecords <= 0 {
		return fmt.Errorf("history max_records must be positive, got %d", c.History.MaxRecords)
	}
	if c.Extract.ChunkChars <= 0 {
		return fmt.Errorf("extract chunk_chars must be positive, got %d", c.Extract.ChunkChars)
	}
	if c.Extract.Concurrency <= 0 {
		return fmt.Errorf("extract concurrency must be positive, got %d", c.Extract.Concurrency)
	}
	return nil
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}
