// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "unisearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OracleConfig holds settings for the AI oracle.
type OracleConfig struct {
	// Model is the default model identifier used for intent resolution and
	// ai-mode answers.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the oracle API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the default sampling temperature for generative answers.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens bounds the oracle response length (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retry attempts for rate-limited calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FanoutConfig holds settings for the fan-out execution coordinator.
type FanoutConfig struct {
	// ActionTimeout bounds each provider call independently (default 15s).
	ActionTimeout time.Duration `json:"action_timeout" yaml:"action_timeout"`

	// CacheSize is the number of action results kept in the in-process
	// LRU cache (default 128).
	CacheSize int `json:"cache_size" yaml:"cache_size"`

	// CacheTTL is how long a cached action result stays fresh (default 60s).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// WebConfig holds settings for the web search branch.
type WebConfig struct {
	HTTPConfig `yaml:",inline"`

	// AllowedDomains restricts results to these domains when non-empty.
	AllowedDomains []string `json:"allowed_domains,omitempty" yaml:"allowed_domains,omitempty"`

	// BlockedDomains excludes results from these domains.
	BlockedDomains []string `json:"blocked_domains,omitempty" yaml:"blocked_domains,omitempty"`

	// BlockedKeywords drops results whose title or content contains any of
	// these terms.
	BlockedKeywords []string `json:"blocked_keywords,omitempty" yaml:"blocked_keywords,omitempty"`
}

// RegistryConfig holds settings for the connection registry store.
type RegistryConfig struct {
	// Path is the SQLite database file (default "unisearch.db").
	Path string `json:"path" yaml:"path"`
}

// EngineConfig holds settings for the mode orchestrator.
type EngineConfig struct {
	// RequestTimeout bounds one search request end to end (default 45s).
	// When it elapses, in-flight provider calls are cancelled; results
	// already received are kept.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// Config groups all component configurations.
type Config struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Oracle   OracleConfig   `json:"oracle" yaml:"oracle"`
	Fanout   FanoutConfig   `json:"fanout" yaml:"fanout"`
	Web      WebConfig      `json:"web" yaml:"web"`
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
}
