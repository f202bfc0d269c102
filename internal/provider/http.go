// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/unisearch/internal/httputil"
	"github.com/pdiddy/unisearch/pkg/types"
)

// defaultPageSize bounds how many items one operation requests from a
// provider API.
const defaultPageSize = 20

// basicAuth builds a Basic authorization header value from email:token
// credentials (Bitbucket, Jira, Confluence).
func basicAuth(email, token string) string {
	creds := email + ":" + token
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

// doJSON executes the request with 429 retry and decodes the body into a
// generic JSON object. Non-2xx statuses are errors.
func doJSON(ctx context.Context, client *http.Client, req *http.Request, cfg types.HTTPConfig) (map[string]any, error) {
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return payload, nil
}

// doJSONList is doJSON for endpoints that return a bare JSON array.
func doJSONList(ctx context.Context, client *http.Client, req *http.Request, cfg types.HTTPConfig) ([]map[string]any, error) {
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}

	var items []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return items, nil
}

// itemsAt extracts an array of objects at the given key of a payload.
// Missing or differently shaped values yield an empty slice.
func itemsAt(payload map[string]any, key string) []map[string]any {
	arr, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	items := make([]map[string]any, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}
