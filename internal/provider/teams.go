// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/unisearch/pkg/types"
)

// graphAPIBase is the Microsoft Graph endpoint. Declared as a var so tests
// can substitute an httptest server.
var graphAPIBase = "https://graph.microsoft.com/v1.0"

// TeamsClient searches Teams chat messages through the Microsoft Graph
// search API.
type TeamsClient struct {
	Credential types.Credential
	HTTPClient *http.Client
	Config     types.HTTPConfig
}

// Type returns the provider type.
func (c *TeamsClient) Type() types.ProviderType { return types.ProviderTeams }

// Invoke runs one Teams operation.
func (c *TeamsClient) Invoke(ctx context.Context, operation string, params map[string]string) ([]map[string]any, error) {
	switch operation {
	case "search_messages":
		return c.searchMessages(ctx, params)
	default:
		return nil, fmt.Errorf("%w: teams %q", ErrUnknownOperation, operation)
	}
}

// graphSearchRequest is the Graph search/query request body.
type graphSearchRequest struct {
	Requests []graphSearchEntry `json:"requests"`
}

type graphSearchEntry struct {
	EntityTypes []string         `json:"entityTypes"`
	Query       graphQueryString `json:"query"`
	Size        int              `json:"size"`
}

type graphQueryString struct {
	QueryString string `json:"queryString"`
}

// searchMessages posts a chatMessage search to Graph and flattens the hit
// resources into raw items.
func (c *TeamsClient) searchMessages(ctx context.Context, params map[string]string) ([]map[string]any, error) {
	q := params["query"]
	if q == "" {
		return nil, fmt.Errorf("teams search: empty query")
	}

	body, err := json.Marshal(graphSearchRequest{
		Requests: []graphSearchEntry{{
			EntityTypes: []string{"chatMessage"},
			Query:       graphQueryString{QueryString: q},
			Size:        defaultPageSize,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, graphAPIBase+"/search/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Credential.Token)

	payload, err := doJSON(ctx, c.HTTPClient, req, c.Config)
	if err != nil {
		return nil, fmt.Errorf("teams search: %w", err)
	}

	// Hits live at value[].hitsContainers[].hits[].resource.
	var items []map[string]any
	for _, v := range itemsAt(payload, "value") {
		for _, hc := range itemsAt(v, "hitsContainers") {
			for _, hit := range itemsAt(hc, "hits") {
				if res, ok := hit["resource"].(map[string]any); ok {
					items = append(items, res)
				}
			}
		}
	}
	return items, nil
}
