package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/temic137/formforge/internal/router"
)

// Config represents the application configuration
type Config struct {
	Providers []ProviderConfig         `yaml:"providers"`
	Models    []router.ModelDescriptor `yaml:"models"`
	Routes    []router.PurposeRoute    `yaml:"routes"`
	Pipeline  PipelineConfig           `yaml:"pipeline"`
	Stats     StatsConfig              `yaml:"stats"`
	Server    ServerConfig             `yaml:"server"`
	LogLevel  string                   `yaml:"log_level"`
}

// ProviderConfig configures one upstream provider. APIKeyEnv names the
// environment variable holding the credential; keys never live in the file.
type ProviderConfig struct {
	Name         string `yaml:"name"`
	Enabled      bool   `yaml:"enabled"`
	APIKeyEnv    string `yaml:"api_key_env,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"`
	DefaultModel string `yaml:"default_model,omitempty"`
	MaxRPM       int    `yaml:"max_rpm,omitempty"`
}

// APIKey resolves the provider credential from the environment
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// PipelineConfig tunes pipeline execution
type PipelineConfig struct {
	AttemptTimeoutSeconds   int  `yaml:"attempt_timeout_seconds"`
	ParallelOptimization    bool `yaml:"parallel_optimization"`
	SkipFieldOptimization   bool `yaml:"skip_field_optimization"`
	SkipQuestionEnhancement bool `yaml:"skip_question_enhancement"`
}

// StatsConfig configures the attempt telemetry sink
type StatsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	RefreshCron string `yaml:"refresh_cron,omitempty"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Providers: []ProviderConfig{
			{Name: "openai", Enabled: true, APIKeyEnv: "OPENAI_API_KEY", DefaultModel: "gpt-4o-mini", MaxRPM: 60},
			{Name: "anthropic", Enabled: true, APIKeyEnv: "ANTHROPIC_API_KEY", DefaultModel: "claude-3-5-haiku-20241022", MaxRPM: 60},
			{Name: "google", Enabled: false, APIKeyEnv: "GEMINI_API_KEY", DefaultModel: "gemini-2.0-flash", MaxRPM: 60},
			{Name: "perplexity", Enabled: false, APIKeyEnv: "PERPLEXITY_API_KEY", DefaultModel: "sonar", MaxRPM: 30},
			{Name: "ollama", Enabled: false, BaseURL: "http://localhost:11434", DefaultModel: "llama3"},
		},
		Models: []router.ModelDescriptor{
			{ID: "gpt-4o-mini", Provider: "openai", MaxRPM: 60, Strengths: []string{"classification", "structured_output"}, Purposes: []string{router.PurposeAnalysis, router.PurposeFieldOptimization}, StructuredOutput: true},
			{ID: "claude-3-5-haiku-20241022", Provider: "anthropic", MaxRPM: 60, Strengths: []string{"synthesis", "phrasing"}, Purposes: []string{router.PurposeSynthesis, router.PurposeQuestionEnhancement}},
			{ID: "gpt-4o", Provider: "openai", MaxRPM: 30, Strengths: []string{"synthesis", "structured_output"}, Purposes: []string{router.PurposeSynthesis, router.PurposeAnalysis}, StructuredOutput: true},
		},
		Routes: []router.PurposeRoute{
			{Purpose: router.PurposeAnalysis, Primary: "gpt-4o-mini", Fallbacks: []string{"gpt-4o"}},
			{Purpose: router.PurposeSynthesis, Primary: "claude-3-5-haiku-20241022", Fallbacks: []string{"gpt-4o"}},
			{Purpose: router.PurposeFieldOptimization, Primary: "gpt-4o-mini", Fallbacks: nil},
			{Purpose: router.PurposeQuestionEnhancement, Primary: "claude-3-5-haiku-20241022", Fallbacks: nil},
		},
		Pipeline: PipelineConfig{
			AttemptTimeoutSeconds: 45,
			ParallelOptimization:  true,
		},
		Stats: StatsConfig{
			Enabled:     true,
			Path:        "~/.formforge/stats.db",
			RefreshCron: "@every 5m",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		LogLevel: "info",
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".formforge/config.yaml"
	}
	return filepath.Join(home, ".formforge", "config.yaml")
}

// Exists checks if config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
