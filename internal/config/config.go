// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Agent       AgentConfig       `mapstructure:"agent" yaml:"agent"`
	Browser     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Action      ActionConfig      `mapstructure:"action" yaml:"action"`
	Execution   ExecutionConfig   `mapstructure:"execution" yaml:"execution"`
	Interaction InteractionConfig `mapstructure:"interaction" yaml:"interaction"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AgentConfig holds settings related to the model driving the browser.
type AgentConfig struct {
	Model ModelConfig `mapstructure:"model" yaml:"model"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// ModelConfig defines the configuration for the generative model.
type ModelConfig struct {
	Provider           LLMProvider       `mapstructure:"provider" yaml:"provider"`
	Name               string            `mapstructure:"name" yaml:"name"`
	APIKey             string            `mapstructure:"api_key" yaml:"-"`
	Endpoint           string            `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	APITimeout         time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature        float32           `mapstructure:"temperature" yaml:"temperature"`
	CandidateCount     int               `mapstructure:"candidate_count" yaml:"candidate_count"`
	MaxOutputTokens    int               `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
	TopP               float32           `mapstructure:"top_p" yaml:"top_p,omitempty"`
	TopK               int               `mapstructure:"top_k" yaml:"top_k,omitempty"`
	SafetyFilters      map[string]string `mapstructure:"safety_filters" yaml:"safety_filters,omitempty"`
	SystemInstructions string            `mapstructure:"system_instructions" yaml:"system_instructions"`
	RequestsPerMinute  int               `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Retry              RetryConfig       `mapstructure:"retry" yaml:"retry"`
}

// RetryConfig tunes the exponential backoff around model calls.
type RetryConfig struct {
	MaxElapsedTime time.Duration `mapstructure:"max_elapsed_time" yaml:"max_elapsed_time"`
	MaxInterval    time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
}

// BrowserConfig holds settings for the controlled browser.
type BrowserConfig struct {
	Name              string        `mapstructure:"name" yaml:"name"`
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	KeepAlive         bool          `mapstructure:"keep_alive" yaml:"keep_alive"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path,omitempty"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent,omitempty"`
	Proxy             string        `mapstructure:"proxy" yaml:"proxy,omitempty"`
	Args              []string      `mapstructure:"args" yaml:"args,omitempty"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
}

// ActionConfig configures the standard action set.
type ActionConfig struct {
	// SettleDelays maps an action name to the pause applied after it runs.
	SettleDelays       map[string]time.Duration `mapstructure:"settle_delays" yaml:"settle_delays"`
	SimplifyPageSource bool                     `mapstructure:"simplify_page_source" yaml:"simplify_page_source"`
	// MaxPageSource truncates returned page sources to this many bytes. Zero disables it.
	MaxPageSource int `mapstructure:"max_page_source" yaml:"max_page_source"`
}

// ContentMode selects how results are folded back into the conversation.
type ContentMode string

const (
	// ContentModeRich sends a screenshot, the message and structured results.
	ContentModeRich ContentMode = "rich"
	// ContentModePlain sends text only; calls are summarized in the agent turn.
	ContentModePlain ContentMode = "plain"
)

// ExecutionConfig is consumed by the execution loop.
type ExecutionConfig struct {
	StopActions    []string    `mapstructure:"stop_actions" yaml:"stop_actions"`
	DefaultMessage string      `mapstructure:"default_message" yaml:"default_message"`
	ContentMode    ContentMode `mapstructure:"content_mode" yaml:"content_mode"`
}

// IsStopAction reports whether name terminates the execution. The default
// stop action always does, whatever the configured list holds.
func (e ExecutionConfig) IsStopAction(name string) bool {
	if name == DefaultStopAction {
		return true
	}
	for _, s := range e.StopActions {
		if s == name {
			return true
		}
	}
	return false
}

// InteractionConfig configures the interaction driver.
type InteractionConfig struct {
	Interactive     bool `mapstructure:"interactive" yaml:"interactive"`
	StayOpen        bool `mapstructure:"stay_open" yaml:"stay_open"`
	MaxInteractions int  `mapstructure:"max_interactions" yaml:"max_interactions"`
	NoColor         bool `mapstructure:"no_color" yaml:"no_color"`
}

const (
	DefaultModelName          = "gemini-1.5-flash-latest"
	DefaultSystemInstructions = "You are a browser automation system. " +
		"Your goal is to understand the user request and execute actions on its browser using the tools at your disposal. " +
		"After each step, you will receive a screenshot and the page source of the current browser window."
	DefaultContinuationMessage = "Continue the execution if necessary or call the done tool if you are done"
	DefaultStopAction          = "done"
)

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
	v.SetDefault("logger.service_name", "browsepilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Agent --
	v.SetDefault("agent.model.provider", string(ProviderGemini))
	v.SetDefault("agent.model.name", DefaultModelName)
	v.SetDefault("agent.model.api_key", "")
	v.SetDefault("agent.model.api_timeout", "2m")
	v.SetDefault("agent.model.temperature", 0.0)
	v.SetDefault("agent.model.candidate_count", 1)
	v.SetDefault("agent.model.max_output_tokens", 1000)
	v.SetDefault("agent.model.system_instructions", DefaultSystemInstructions)
	v.SetDefault("agent.model.requests_per_minute", 0)
	v.SetDefault("agent.model.retry.max_elapsed_time", "2m")
	v.SetDefault("agent.model.retry.max_interval", "30s")

	// -- Browser --
	v.SetDefault("browser.name", "chrome")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.keep_alive", true)
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 1024)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.action_timeout", "30s")

	// -- Action --
	v.SetDefault("action.settle_delays", map[string]string{
		"get":     "1s",
		"back":    "1s",
		"forward": "1s",
		"click":   "1s",
		"submit":  "1s",
	})
	v.SetDefault("action.simplify_page_source", false)
	v.SetDefault("action.max_page_source", 0)

	// -- Execution --
	v.SetDefault("execution.stop_actions", []string{DefaultStopAction})
	v.SetDefault("execution.default_message", DefaultContinuationMessage)
	v.SetDefault("execution.content_mode", string(ContentModeRich))

	// -- Interaction --
	v.SetDefault("interaction.interactive", false)
	v.SetDefault("interaction.stay_open", true)
	v.SetDefault("interaction.max_interactions", 5)
	v.SetDefault("interaction.no_color", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The model credential follows the Google SDK convention.
	if err := v.BindEnv("agent.model.api_key", "BROWSEPILOT_AGENT_MODEL_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, fmt.Errorf("error binding api key env: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in file system paths.
func (c *Config) expandPaths() error {
	var err error
	if c.Logger.LogFile, err = homedir.Expand(c.Logger.LogFile); err != nil {
		return fmt.Errorf("failed to expand logger.log_file: %w", err)
	}
	if c.Browser.ExecPath, err = homedir.Expand(c.Browser.ExecPath); err != nil {
		return fmt.Errorf("failed to expand browser.exec_path: %w", err)
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Interaction.MaxInteractions <= 0 {
		return fmt.Errorf("interaction.max_interactions must be a positive integer")
	}
	if err := c.Execution.Validate(); err != nil {
		return fmt.Errorf("execution configuration invalid: %w", err)
	}
	if err := c.Agent.Model.Validate(); err != nil {
		return fmt.Errorf("agent.model configuration invalid: %w", err)
	}
	if err := c.Action.Validate(); err != nil {
		return fmt.Errorf("action configuration invalid: %w", err)
	}
	if c.Browser.Name != "chrome" {
		return fmt.Errorf("browser.name %q is not supported, only 'chrome' is available", c.Browser.Name)
	}
	return nil
}

// Validate checks the ExecutionConfig settings.
func (e *ExecutionConfig) Validate() error {
	if len(e.StopActions) == 0 {
		return fmt.Errorf("stop_actions must name at least one action")
	}
	switch e.ContentMode {
	case ContentModeRich, ContentModePlain:
	default:
		return fmt.Errorf("content_mode must be one of [%s, %s], got %q", ContentModeRich, ContentModePlain, e.ContentMode)
	}
	return nil
}

// Validate checks the ModelConfig settings. The API key is checked by the
// client constructor so that commands which never call the model still work.
func (m *ModelConfig) Validate() error {
	if m.Provider != ProviderGemini {
		return fmt.Errorf("provider %q is not supported. Supported: [%s]", m.Provider, ProviderGemini)
	}
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.CandidateCount < 0 || m.MaxOutputTokens < 0 || m.RequestsPerMinute < 0 {
		return fmt.Errorf("candidate_count, max_output_tokens and requests_per_minute must not be negative")
	}
	return nil
}

// Validate checks the ActionConfig settings.
func (a *ActionConfig) Validate() error {
	for name, d := range a.SettleDelays {
		if d < 0 {
			return fmt.Errorf("settle delay for %q must not be negative", name)
		}
	}
	if a.MaxPageSource < 0 {
		return fmt.Errorf("max_page_source must not be negative")
	}
	return nil
}
