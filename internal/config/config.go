// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the webpilot CLI.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Agent    AgentConfig    `mapstructure:"agent" yaml:"agent"`
	Watcher  WatcherConfig  `mapstructure:"watcher" yaml:"watcher"`
	Workflow WorkflowConfig `mapstructure:"workflow" yaml:"workflow"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// DatabaseConfig holds the artifact store connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ArtifactDir       string        `mapstructure:"artifact_dir" yaml:"artifact_dir"`
	Args              []string      `mapstructure:"args" yaml:"args"`
}

// AgentConfig holds settings related to the AI agent and its components.
type AgentConfig struct {
	LLM          LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
	MaxToolCalls int             `mapstructure:"max_tool_calls" yaml:"max_tool_calls"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                 `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                 `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]ModelConfig `mapstructure:"models" yaml:"models"`
}

// ModelConfig defines the configuration for a single LLM.
type ModelConfig struct {
	Provider          LLMProvider `mapstructure:"provider" yaml:"provider"`
	Model             string      `mapstructure:"model" yaml:"model"`
	APIKey            string      `mapstructure:"api_key" yaml:"api_key"`
	Temperature       float32     `mapstructure:"temperature" yaml:"temperature"`
	RequestsPerMinute int         `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// WatcherConfig tunes the artifact directory watcher.
type WatcherConfig struct {
	Directory     string        `mapstructure:"directory" yaml:"directory"`
	SettleDelay   time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	MaxConcurrent int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
}

// WorkflowConfig tunes workflow execution behavior.
type WorkflowConfig struct {
	StepTimeout       time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
	CompletionPhrases []string      `mapstructure:"completion_phrases" yaml:"completion_phrases"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.log_file", "webpilot.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.artifact_dir", "artifacts")

	// -- Agent --
	v.SetDefault("agent.max_tool_calls", 8)
	v.SetDefault("agent.llm.default_fast_model", "flash")
	v.SetDefault("agent.llm.default_powerful_model", "pro")
	v.SetDefault("agent.llm.models.flash.provider", "gemini")
	v.SetDefault("agent.llm.models.flash.model", "gemini-2.5-flash")
	v.SetDefault("agent.llm.models.flash.temperature", 0.2)
	v.SetDefault("agent.llm.models.flash.requests_per_minute", 60)
	v.SetDefault("agent.llm.models.pro.provider", "gemini")
	v.SetDefault("agent.llm.models.pro.model", "gemini-2.5-pro")
	v.SetDefault("agent.llm.models.pro.temperature", 0.2)
	v.SetDefault("agent.llm.models.pro.requests_per_minute", 15)

	// -- Watcher --
	v.SetDefault("watcher.directory", "artifacts")
	v.SetDefault("watcher.settle_delay", "500ms")
	v.SetDefault("watcher.max_concurrent", 4)

	// -- Workflow --
	v.SetDefault("workflow.step_timeout", "5m")
	v.SetDefault("workflow.completion_phrases", []string{"objective completed", "task finished"})
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	v.BindEnv("database.url", "WEBPILOT_DATABASE_URL")
	for name := range v.GetStringMap("agent.llm.models") {
		v.BindEnv(fmt.Sprintf("agent.llm.models.%s.api_key", name), "WEBPILOT_GEMINI_API_KEY")
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the key if Unmarshal didn't pick it up
	if key := os.Getenv("WEBPILOT_GEMINI_API_KEY"); key != "" {
		for name, m := range cfg.Agent.LLM.Models {
			if m.APIKey == "" {
				m.APIKey = key
				cfg.Agent.LLM.Models[name] = m
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Agent.MaxToolCalls <= 0 {
		return fmt.Errorf("agent.max_tool_calls must be a positive integer")
	}
	if c.Watcher.SettleDelay < 0 {
		return fmt.Errorf("watcher.settle_delay must not be negative")
	}
	if c.Watcher.MaxConcurrent <= 0 {
		return fmt.Errorf("watcher.max_concurrent must be a positive integer")
	}
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			return fmt.Errorf("database.url is not a valid URL: %w", err)
		}
	}
	if c.Agent.LLM.DefaultFastModel != "" {
		if _, ok := c.Agent.LLM.Models[c.Agent.LLM.DefaultFastModel]; !ok {
			return fmt.Errorf("agent.llm.default_fast_model '%s' is not a defined model", c.Agent.LLM.DefaultFastModel)
		}
	}
	if c.Agent.LLM.DefaultPowerfulModel != "" {
		if _, ok := c.Agent.LLM.Models[c.Agent.LLM.DefaultPowerfulModel]; !ok {
			return fmt.Errorf("agent.llm.default_powerful_model '%s' is not a defined model", c.Agent.LLM.DefaultPowerfulModel)
		}
	}
	return nil
}
