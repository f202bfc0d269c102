// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider implements thin clients for the application providers
// the engine can search. Dispatch over provider types is closed: adding a
// provider means adding a case to New and an entry to Catalog, both checked
// at compile time against the ProviderType constants.
// See docs/ARCHITECTURE.md § Providers.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/unisearch/pkg/types"
)

// Client invokes named operations against one provider connection. All
// implementations are safe for concurrent use and honor the request context
// for timeouts and cancellation.
type Client interface {
	// Type returns the provider type the client talks to.
	Type() types.ProviderType

	// Invoke runs one operation and returns the raw result items. Unknown
	// operations return ErrUnknownOperation.
	Invoke(ctx context.Context, operation string, params map[string]string) ([]map[string]any, error)
}

// ErrUnknownOperation is returned when a client does not implement the
// requested operation.
var ErrUnknownOperation = errors.New("unknown operation")

// ErrNotInvokable is returned for provider types that have no app client
// (web and ai are engine branches, not connections).
var ErrNotInvokable = errors.New("provider type has no app client")

// Catalog lists the operations each app provider supports. The intent
// resolver enumerates it in the oracle prompt, and new connections get it
// as their capability list.
var Catalog = map[types.ProviderType][]string{
	types.ProviderGitHub:     {"search_repositories", "list_owned_repositories", "search_issues", "search_code"},
	types.ProviderJira:       {"search_issues", "get_projects"},
	types.ProviderConfluence: {"search_pages"},
	types.ProviderSlack:      {"search_messages"},
	types.ProviderTeams:      {"search_messages"},
	types.ProviderBitbucket:  {"list_workspaces", "list_repositories", "list_files"},
}

// New builds the client for one registered connection. The switch is
// exhaustive over ProviderType; unhandled values are a programmer error.
func New(p types.Provider, httpClient *http.Client, cfg types.HTTPConfig) (Client, error) {
	switch p.Type {
	case types.ProviderGitHub:
		return &GitHubClient{Credential: p.Credential, HTTPClient: httpClient, Config: cfg}, nil
	case types.ProviderJira:
		return &JiraClient{Credential: p.Credential, HTTPClient: httpClient, Config: cfg}, nil
	case types.ProviderConfluence:
		return &ConfluenceClient{Credential: p.Credential, HTTPClient: httpClient, Config: cfg}, nil
	case types.ProviderSlack:
		return &SlackClient{Credential: p.Credential, HTTPClient: httpClient, Config: cfg}, nil
	case types.ProviderTeams:
		return &TeamsClient{Credential: p.Credential, HTTPClient: httpClient, Config: cfg}, nil
	case types.ProviderBitbucket:
		return &BitbucketClient{Credential: p.Credential, HTTPClient: httpClient, Config: cfg}, nil
	case types.ProviderWeb, types.ProviderAI:
		return nil, fmt.Errorf("%w: %s", ErrNotInvokable, p.Type)
	default:
		return nil, fmt.Errorf("unhandled provider type %q", p.Type)
	}
}
