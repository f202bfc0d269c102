// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/unisearch/pkg/types"
)

// githubAPIBase is the GitHub REST v3 endpoint. Declared as a var so tests
// can substitute an httptest server.
var githubAPIBase = "https://api.github.com"

// GitHubClient talks to the GitHub REST API.
type GitHubClient struct {
	Credential types.Credential
	HTTPClient *http.Client
	Config     types.HTTPConfig
}

// Type returns the provider type.
func (c *GitHubClient) Type() types.ProviderType { return types.ProviderGitHub }

// Invoke runs one GitHub operation.
func (c *GitHubClient) Invoke(ctx context.Context, operation string, params map[string]string) ([]map[string]any, error) {
	switch operation {
	case "search_repositories":
		return c.searchItems(ctx, "/search/repositories", params["query"])
	case "search_issues":
		return c.searchItems(ctx, "/search/issues", params["query"]+" is:issue")
	case "search_code":
		return c.searchItems(ctx, "/search/code", params["query"])
	case "list_owned_repositories":
		return c.listOwnedRepositories(ctx, params)
	default:
		return nil, fmt.Errorf("%w: github %q", ErrUnknownOperation, operation)
	}
}

// searchItems queries one of GitHub's search endpoints and returns the items array.
func (c *GitHubClient) searchItems(ctx context.Context, path, query string) ([]map[string]any, error) {
	if query == "" {
		return nil, fmt.Errorf("github search: empty query")
	}
	reqURL := fmt.Sprintf("%s%s?q=%s&per_page=%d", c.base(), path, url.QueryEscape(query), defaultPageSize)

	req, err := c.newRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	payload, err := doJSON(ctx, c.HTTPClient, req, c.Config)
	if err != nil {
		return nil, fmt.Errorf("github search: %w", err)
	}
	return itemsAt(payload, "items"), nil
}

// listOwnedRepositories lists repositories for the authenticated user.
// params["type"] selects ownership affiliation (default "owner").
func (c *GitHubClient) listOwnedRepositories(ctx context.Context, params map[string]string) ([]map[string]any, error) {
	affiliation := params["type"]
	if affiliation == "" {
		affiliation = "owner"
	}
	reqURL := fmt.Sprintf("%s/user/repos?type=%s&sort=updated&per_page=%d",
		c.base(), url.QueryEscape(affiliation), defaultPageSize)

	req, err := c.newRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	items, err := doJSONList(ctx, c.HTTPClient, req, c.Config)
	if err != nil {
		return nil, fmt.Errorf("github list repos: %w", err)
	}
	return items, nil
}

func (c *GitHubClient) newRequest(ctx context.Context, reqURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.Credential.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Credential.Token)
	}
	return req, nil
}

func (c *GitHubClient) base() string {
	if c.Credential.BaseURL != "" {
		return c.Credential.BaseURL
	}
	return githubAPIBase
}
