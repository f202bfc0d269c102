// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/unisearch/pkg/types"
)

// ConfluenceClient talks to the Confluence Cloud REST API. The instance
// base URL comes from the connection credential.
type ConfluenceClient struct {
	Credential types.Credential
	HTTPClient *http.Client
	Config     types.HTTPConfig
}

// Type returns the provider type.
func (c *ConfluenceClient) Type() types.ProviderType { return types.ProviderConfluence }

// Invoke runs one Confluence operation.
func (c *ConfluenceClient) Invoke(ctx context.Context, operation string, params map[string]string) ([]map[string]any, error) {
	switch operation {
	case "search_pages":
		return c.searchPages(ctx, params)
	default:
		return nil, fmt.Errorf("%w: confluence %q", ErrUnknownOperation, operation)
	}
}

// searchPages runs a CQL full-text search over pages.
func (c *ConfluenceClient) searchPages(ctx context.Context, params map[string]string) ([]map[string]any, error) {
	q := params["query"]
	if q == "" {
		return nil, fmt.Errorf("confluence search: empty query")
	}
	cql := fmt.Sprintf(`type=page AND text ~ %q`, q)

	reqURL := fmt.Sprintf("%s/wiki/rest/api/content/search?cql=%s&limit=%d&expand=history.lastUpdated",
		strings.TrimSuffix(c.Credential.BaseURL, "/"), url.QueryEscape(cql), defaultPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Credential.Token != "" {
		req.Header.Set("Authorization", basicAuth(c.Credential.Email, c.Credential.Token))
	}

	payload, err := doJSON(ctx, c.HTTPClient, req, c.Config)
	if err != nil {
		return nil, fmt.Errorf("confluence search: %w", err)
	}
	return itemsAt(payload, "results"), nil
}
