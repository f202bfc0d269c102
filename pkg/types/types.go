// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the unisearch engine.
// See docs/ARCHITECTURE.md § Data Model.
package types

import "time"

// ProviderType identifies an external capability source.
type ProviderType string

const (
	ProviderGitHub     ProviderType = "github"
	ProviderJira       ProviderType = "jira"
	ProviderConfluence ProviderType = "confluence"
	ProviderSlack      ProviderType = "slack"
	ProviderTeams      ProviderType = "teams"
	ProviderBitbucket  ProviderType = "bitbucket"
	ProviderWeb        ProviderType = "web"
	ProviderAI         ProviderType = "ai"
)

// AppProviderTypes lists the provider types that can be registered as
// application connections and targeted by resolved actions. Web and AI are
// engine-internal branches, not registrable connections.
var AppProviderTypes = []ProviderType{
	ProviderGitHub,
	ProviderJira,
	ProviderConfluence,
	ProviderSlack,
	ProviderTeams,
	ProviderBitbucket,
}

// IsAppProvider reports whether t can be targeted by a resolved action.
func IsAppProvider(t ProviderType) bool {
	for _, p := range AppProviderTypes {
		if p == t {
			return true
		}
	}
	return false
}

// ConnectionStatus is the lifecycle state of a registered provider connection.
// Status is mutated only by the connection registry; the engine reads it.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

// Credential is an opaque credential handle passed through to provider
// clients. The engine never inspects or mutates it.
type Credential struct {
	// Token is an API token, personal access token, or app password.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Email is the account email for providers using email:token Basic auth
	// (Bitbucket, Jira, Confluence).
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// BaseURL overrides the provider's default API endpoint, for self-hosted
	// instances.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// Provider is a registered connection to an external capability source.
type Provider struct {
	// ID uniquely identifies the connection.
	ID string `json:"id" yaml:"id"`

	// Type is the provider type (github, jira, ...).
	Type ProviderType `json:"type" yaml:"type"`

	// Name is a user-chosen label for the connection.
	Name string `json:"name" yaml:"name"`

	// Status is the connection lifecycle state.
	Status ConnectionStatus `json:"status" yaml:"status"`

	// Credential is the opaque credential handle for this connection.
	Credential Credential `json:"credential" yaml:"credential"`

	// Capabilities lists the operations this connection supports.
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`

	// CreatedAt is when the connection was registered.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Connected reports whether the provider is usable for search.
func (p Provider) Connected() bool {
	return p.Status == StatusConnected
}

// Action is one intended unit of work against a provider: an operation with
// parameters and a relevance priority in [1,10]. Actions are created by the
// intent resolver, consumed exactly once by the fan-out coordinator, and
// discarded after execution.
type Action struct {
	// Provider is the target provider type.
	Provider ProviderType `json:"provider" yaml:"provider"`

	// Operation names the provider operation to invoke (e.g. "search_issues").
	Operation string `json:"operation" yaml:"operation"`

	// Parameters holds the operation arguments.
	Parameters map[string]string `json:"parameters" yaml:"parameters"`

	// Priority orders actions for execution, 10 highest. Ties keep resolver order.
	Priority int `json:"priority" yaml:"priority"`
}

// Valid reports whether the action satisfies the invariant required for
// execution: a named provider and operation, at least one parameter, and a
// positive priority.
func (a Action) Valid() bool {
	return a.Provider != "" && a.Operation != "" && len(a.Parameters) > 0 && a.Priority > 0
}

// QueryIntent is the resolved interpretation of a natural-language query as
// a ranked action list. Actions are always sorted by priority descending at
// the moment the resolver returns the intent.
type QueryIntent struct {
	// OriginalQuery is the query as entered by the user.
	OriginalQuery string `json:"originalQuery" yaml:"original_query"`

	// ProcessedQuery is the normalized form of the query.
	ProcessedQuery string `json:"processedQuery" yaml:"processed_query"`

	// Intent is a short description of what the user is asking for.
	Intent string `json:"intent" yaml:"intent"`

	// Actions is the ranked action list, sorted by priority descending.
	Actions []Action `json:"actions" yaml:"actions"`

	// Confidence is the resolver's confidence in the interpretation, in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Result is the canonical record every provider payload is normalized into.
// RelevanceScore is always within [0,1].
type Result struct {
	// ID uniquely identifies the result within one search response.
	ID string `json:"id" yaml:"id"`

	// Title is the display title ("Untitled" when the source has none).
	Title string `json:"title" yaml:"title"`

	// Content is the body text, snippet, or description.
	Content string `json:"content" yaml:"content"`

	// SourceName labels the connection or collaborator that produced the result.
	SourceName string `json:"source_name" yaml:"source_name"`

	// SourceType is the provider type the result came from.
	SourceType ProviderType `json:"source_type" yaml:"source_type"`

	// Author is the creator attribution ("Unknown" when the source has none).
	Author string `json:"author" yaml:"author"`

	// Timestamp is the result's last-modified or creation time.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// URL links to the underlying record ("#" when the source has none).
	URL string `json:"url" yaml:"url"`

	// RelevanceScore is the composite relevance in [0,1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// Metadata carries provider-specific extras and the synthetic-result type tag.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// MetadataType returns the metadata "type" tag, or "" when absent. Synthetic
// guidance results carry tags like "setup_guide" and "search_suggestion" so
// callers can distinguish guidance from real data.
func (r Result) MetadataType() string {
	if r.Metadata == nil {
		return ""
	}
	if s, ok := r.Metadata["type"].(string); ok {
		return s
	}
	return ""
}

// SearchMode selects which sub-pipelines a search request runs.
type SearchMode string

const (
	ModeApps    SearchMode = "apps"
	ModeWeb     SearchMode = "web"
	ModeAI      SearchMode = "ai"
	ModeUnified SearchMode = "unified"
)

// SearchOptions carries per-mode knobs for one search request.
type SearchOptions struct {
	// AIModels lists the models to query in ai mode. Empty means the
	// configured default model.
	AIModels []string `json:"ai_models,omitempty" yaml:"ai_models,omitempty"`

	// Temperature overrides the configured oracle temperature for
	// generative answers when set. Nil means the configured default; an
	// explicit zero is honored.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// AllowedDomains restricts web results to these domains when non-empty.
	AllowedDomains []string `json:"allowed_domains,omitempty" yaml:"allowed_domains,omitempty"`

	// BlockedDomains excludes web results from these domains.
	BlockedDomains []string `json:"blocked_domains,omitempty" yaml:"blocked_domains,omitempty"`

	// Sources restricts apps-mode results to these provider types when non-empty.
	Sources []ProviderType `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Limit caps the number of returned results. Zero means the mode default.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
}
