// Package config holds the runtime configuration for the prompt analysis
// engine and its HTTP front end. Values are loaded from PROMPTPILOT_*
// environment variables with sane defaults, and can be overridden
// programmatically through ConfigOption setters.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/promptpilot/promptpilot/internal/logging"
)

type Config struct {
	// Provider and model selection for the generation capability.
	Provider       string   `env:"PROMPTPILOT_PROVIDER" envDefault:"openai"`
	Model          string   `env:"PROMPTPILOT_MODEL" envDefault:"gpt-4o-mini"`
	OptimizerModel string   `env:"PROMPTPILOT_OPTIMIZER_MODEL"`
	AllowedModels  []string `env:"PROMPTPILOT_ALLOWED_MODELS" envSeparator:","`

	// Generation parameters.
	Temperature          float64 `env:"PROMPTPILOT_TEMPERATURE" envDefault:"0.7"`
	OptimizerTemperature float64 `env:"PROMPTPILOT_OPTIMIZER_TEMPERATURE" envDefault:"0.3"`
	MaxTokens            int     `env:"PROMPTPILOT_MAX_TOKENS" envDefault:"2048"`

	// Upstream call behavior.
	Timeout           time.Duration `env:"PROMPTPILOT_TIMEOUT" envDefault:"30s"`
	MaxRetries        int           `env:"PROMPTPILOT_MAX_RETRIES" envDefault:"2"`
	RetryDelay        time.Duration `env:"PROMPTPILOT_RETRY_DELAY" envDefault:"2s"`
	RequestsPerMinute int           `env:"PROMPTPILOT_REQUESTS_PER_MINUTE" envDefault:"60"`

	// Scoring and alerting thresholds.
	AccuracyThreshold  float64 `env:"PROMPTPILOT_ACCURACY_THRESHOLD" envDefault:"0.80" validate:"min=0,max=1"`
	TokenThreshold     int     `env:"PROMPTPILOT_TOKEN_THRESHOLD" envDefault:"1000"`
	LatencyThresholdMs float64 `env:"PROMPTPILOT_LATENCY_THRESHOLD_MS" envDefault:"2000"`

	// Pricing per one million tokens, used for cost estimates.
	InputPricePerMillion  float64 `env:"PROMPTPILOT_INPUT_PRICE_PER_MILLION" envDefault:"0.10" validate:"min=0"`
	OutputPricePerMillion float64 `env:"PROMPTPILOT_OUTPUT_PRICE_PER_MILLION" envDefault:"0.40" validate:"min=0"`

	// Service surface.
	ListenAddr  string `env:"PROMPTPILOT_LISTEN_ADDR" envDefault:":7860"`
	HistoryPath string `env:"PROMPTPILOT_HISTORY_PATH"`
	Service     string `env:"PROMPTPILOT_SERVICE" envDefault:"promptpilot"`
	Environment string `env:"PROMPTPILOT_ENV" envDefault:"dev"`

	LogLevel logging.LogLevel `env:"PROMPTPILOT_LOG_LEVEL" envDefault:"WARN"`

	// APIKeys maps lowercase provider names to API keys, harvested from
	// *_API_KEY environment variables.
	APIKeys map[string]string
}

var validate = validator.New()

// LoadConfig builds a Config from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKeys: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	loadAPIKeys(cfg)
	applyDerivedDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

func applyDerivedDefaults(cfg *Config) {
	// The optimizer reuses the primary model unless told otherwise.
	if cfg.OptimizerModel == "" {
		cfg.OptimizerModel = cfg.Model
	}
}

// Validate checks threshold and pricing bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ModelAllowed reports whether the caller-requested model may be used.
// An empty allow-list permits any model; an empty request uses the default.
func (c *Config) ModelAllowed(model string) bool {
	if model == "" || len(c.AllowedModels) == 0 {
		return true
	}
	for _, m := range c.AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}

type ConfigOption func(*Config)

// NewConfig returns a Config with defaults suitable for tests and embedding,
// without reading the environment.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := &Config{
		Provider:              "openai",
		Model:                 "gpt-4o-mini",
		OptimizerModel:        "gpt-4o-mini",
		Temperature:           0.7,
		OptimizerTemperature:  0.3,
		MaxTokens:             2048,
		Timeout:               30 * time.Second,
		MaxRetries:            2,
		RetryDelay:            2 * time.Second,
		RequestsPerMinute:     60,
		AccuracyThreshold:     0.80,
		TokenThreshold:        1000,
		LatencyThresholdMs:    2000,
		InputPricePerMillion:  0.10,
		OutputPricePerMillion: 0.40,
		ListenAddr:            ":7860",
		Service:               "promptpilot",
		Environment:           "dev",
		LogLevel:              logging.LogLevelWarn,
		APIKeys:               make(map[string]string),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetOptimizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.OptimizerModel = model
	}
}

func SetAllowedModels(models ...string) ConfigOption {
	return func(c *Config) {
		c.AllowedModels = models
	}
}

func SetAPIKey(apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[c.Provider] = apiKey
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetAccuracyThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.AccuracyThreshold = threshold
	}
}

func SetHistoryPath(path string) ConfigOption {
	return func(c *Config) {
		c.HistoryPath = path
	}
}

func SetLogLevel(level logging.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}
