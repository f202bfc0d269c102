// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/unisearch/pkg/types"
)

// bitbucketAPIBase is the Bitbucket Cloud 2.0 endpoint. Declared as a var
// so tests can substitute an httptest server.
var bitbucketAPIBase = "https://api.bitbucket.org/2.0"

// BitbucketClient talks to the Bitbucket Cloud API. Authentication is
// Basic with email:token app-password credentials.
type BitbucketClient struct {
	Credential types.Credential
	HTTPClient *http.Client
	Config     types.HTTPConfig
}

// Type returns the provider type.
func (c *BitbucketClient) Type() types.ProviderType { return types.ProviderBitbucket }

// Invoke runs one Bitbucket operation.
func (c *BitbucketClient) Invoke(ctx context.Context, operation string, params map[string]string) ([]map[string]any, error) {
	switch operation {
	case "list_workspaces":
		return c.listValues(ctx, "/workspaces")
	case "list_repositories":
		return c.listRepositories(ctx, params)
	case "list_files":
		return c.listFiles(ctx, params)
	default:
		return nil, fmt.Errorf("%w: bitbucket %q", ErrUnknownOperation, operation)
	}
}

// listRepositories lists repositories in a workspace, or all repositories
// the user is a member of when no workspace is given.
func (c *BitbucketClient) listRepositories(ctx context.Context, params map[string]string) ([]map[string]any, error) {
	path := "/repositories?role=member"
	if ws := params["workspace"]; ws != "" {
		path = "/repositories/" + url.PathEscape(ws)
	}
	return c.listValues(ctx, path)
}

// listFiles lists the source tree of a repository at a branch and path.
func (c *BitbucketClient) listFiles(ctx context.Context, params map[string]string) ([]map[string]any, error) {
	ws, repo := params["workspace"], params["repo_slug"]
	if ws == "" || repo == "" {
		return nil, fmt.Errorf("bitbucket list_files: workspace and repo_slug are required")
	}
	branch := params["branch"]
	if branch == "" {
		branch = "main"
	}
	path := fmt.Sprintf("/repositories/%s/%s/src/%s/%s",
		url.PathEscape(ws), url.PathEscape(repo), url.PathEscape(branch), params["path"])
	return c.listValues(ctx, path)
}

// listValues fetches one paginated Bitbucket collection and returns its
// values array.
func (c *BitbucketClient) listValues(ctx context.Context, path string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bitbucketAPIBase+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Credential.Token != "" {
		req.Header.Set("Authorization", basicAuth(c.Credential.Email, c.Credential.Token))
	}

	payload, err := doJSON(ctx, c.HTTPClient, req, c.Config)
	if err != nil {
		return nil, fmt.Errorf("bitbucket %s: %w", path, err)
	}
	return itemsAt(payload, "values"), nil
}
