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

// JiraClient talks to the Jira Cloud REST API. The instance base URL comes
// from the connection credential (e.g. "https://acme.atlassian.net").
type JiraClient struct {
	Credential types.Credential
	HTTPClient *http.Client
	Config     types.HTTPConfig
}

// Type returns the provider type.
func (c *JiraClient) Type() types.ProviderType { return types.ProviderJira }

// Invoke runs one Jira operation.
func (c *JiraClient) Invoke(ctx context.Context, operation string, params map[string]string) ([]map[string]any, error) {
	switch operation {
	case "search_issues":
		return c.searchIssues(ctx, params)
	case "get_projects":
		return c.getProjects(ctx)
	default:
		return nil, fmt.Errorf("%w: jira %q", ErrUnknownOperation, operation)
	}
}

// searchIssues runs a JQL search. params["jql"] is used verbatim when
// present; otherwise params["query"] becomes a full-text clause.
func (c *JiraClient) searchIssues(ctx context.Context, params map[string]string) ([]map[string]any, error) {
	jql := params["jql"]
	if jql == "" {
		q := params["query"]
		if q == "" {
			return nil, fmt.Errorf("jira search: empty query")
		}
		jql = fmt.Sprintf(`text ~ %q ORDER BY updated DESC`, q)
	}

	reqURL := fmt.Sprintf("%s/rest/api/2/search?jql=%s&maxResults=%d",
		c.base(), url.QueryEscape(jql), defaultPageSize)

	req, err := c.newRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	payload, err := doJSON(ctx, c.HTTPClient, req, c.Config)
	if err != nil {
		return nil, fmt.Errorf("jira search: %w", err)
	}
	return itemsAt(payload, "issues"), nil
}

// getProjects lists the projects visible to the authenticated user.
func (c *JiraClient) getProjects(ctx context.Context) ([]map[string]any, error) {
	req, err := c.newRequest(ctx, c.base()+"/rest/api/2/project")
	if err != nil {
		return nil, err
	}
	items, err := doJSONList(ctx, c.HTTPClient, req, c.Config)
	if err != nil {
		return nil, fmt.Errorf("jira projects: %w", err)
	}
	return items, nil
}

func (c *JiraClient) newRequest(ctx context.Context, reqURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Credential.Token != "" {
		req.Header.Set("Authorization", basicAuth(c.Credential.Email, c.Credential.Token))
	}
	return req, nil
}

func (c *JiraClient) base() string {
	return strings.TrimSuffix(c.Credential.BaseURL, "/")
}
