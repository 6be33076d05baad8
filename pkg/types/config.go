package types

import "time"

// Defaults applied when a configuration value is left at its zero value.
const (
	DefaultModel          = "claude-sonnet-4-20250514"
	DefaultBaseURL        = "https://api.anthropic.com"
	DefaultMaxTokens      = 4096
	DefaultMaxSearchUses  = 10
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 5 * time.Second
	DefaultTimeout        = 5 * time.Minute
	DefaultUserAgent      = "lead-research/0.1"

	DefaultWebhookPort = 5000
	DefaultAPIPort     = 8000
)

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single provider call, including the model's web searches.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "lead-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds settings for the Generative AI provider.
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-20250514").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the API root; the Messages endpoint is appended to it.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxTokens caps the output tokens of a single response (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// RetryConfig controls retries on provider rate limiting.
type RetryConfig struct {
	// MaxAttempts is the total number of calls, including the first (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// InitialBackoff is the wait before the first retry; each later wait
	// doubles it (default 5s, giving 5s then 10s).
	InitialBackoff time.Duration `json:"initial_backoff" yaml:"initial_backoff"`
}

// ResearchConfig holds everything the research orchestrator needs.
type ResearchConfig struct {
	AIConfig `yaml:",inline"`

	// MaxSearchUses caps the web-search tool invocations per call (default 10).
	MaxSearchUses int `json:"max_search_uses" yaml:"max_search_uses"`

	Retry RetryConfig `json:"retry" yaml:"retry"`
}

// WithDefaults returns a copy of c with every zero value replaced by its default.
func (c ResearchConfig) WithDefaults() ResearchConfig {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxSearchUses <= 0 {
		c.MaxSearchUses = DefaultMaxSearchUses
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.InitialBackoff <= 0 {
		c.Retry.InitialBackoff = DefaultInitialBackoff
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// ServerVariant selects which HTTP wrapper hosts the orchestrator.
type ServerVariant string

const (
	// VariantWebhook is the plain net/http server with a combined
	// single/batch /research endpoint.
	VariantWebhook ServerVariant = "webhook"

	// VariantAPI is the gin server with separate /research and
	// /research/batch endpoints.
	VariantAPI ServerVariant = "api"
)

// ServerConfig holds settings for the HTTP wrappers.
type ServerConfig struct {
	Variant ServerVariant `json:"variant" yaml:"variant"`

	// Host is the listen address without port (default all interfaces).
	Host string `json:"host" yaml:"host"`

	// Port is the listen port (default 5000 for webhook, 8000 for api).
	Port int `json:"port" yaml:"port"`

	// ShutdownTimeout bounds how long in-flight requests may drain.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}
