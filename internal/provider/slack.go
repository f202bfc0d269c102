// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/unisearch/pkg/types"
)

// slackAPIBase is the Slack Web API endpoint. Declared as a var so tests
// can substitute an httptest server.
var slackAPIBase = "https://slack.com/api"

// SlackClient talks to the Slack Web API.
type SlackClient struct {
	Credential types.Credential
	HTTPClient *http.Client
	Config     types.HTTPConfig
}

// Type returns the provider type.
func (c *SlackClient) Type() types.ProviderType { return types.ProviderSlack }

// Invoke runs one Slack operation.
func (c *SlackClient) Invoke(ctx context.Context, operation string, params map[string]string) ([]map[string]any, error) {
	switch operation {
	case "search_messages":
		return c.searchMessages(ctx, params)
	default:
		return nil, fmt.Errorf("%w: slack %q", ErrUnknownOperation, operation)
	}
}

// searchMessages calls search.messages and returns the message matches.
func (c *SlackClient) searchMessages(ctx context.Context, params map[string]string) ([]map[string]any, error) {
	q := params["query"]
	if q == "" {
		return nil, fmt.Errorf("slack search: empty query")
	}

	reqURL := fmt.Sprintf("%s/search.messages?query=%s&count=%d",
		slackAPIBase, url.QueryEscape(q), defaultPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Credential.Token)

	payload, err := doJSON(ctx, c.HTTPClient, req, c.Config)
	if err != nil {
		return nil, fmt.Errorf("slack search: %w", err)
	}

	// Slack reports API-level failures inside a 200 response.
	if ok, _ := payload["ok"].(bool); !ok {
		errName, _ := payload["error"].(string)
		return nil, fmt.Errorf("slack search: API error %q", errName)
	}

	messages, ok := payload["messages"].(map[string]any)
	if !ok {
		return nil, nil
	}
	return itemsAt(messages, "matches"), nil
}
