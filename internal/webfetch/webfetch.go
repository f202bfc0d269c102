// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package webfetch implements the web search collaborator: a DuckDuckGo
// Instant Answer backend plus the domain and policy-keyword filters the
// engine applies to its output.
// See docs/ARCHITECTURE.md § Web Search.
package webfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/unisearch/internal/httputil"
	"github.com/pdiddy/unisearch/internal/normalize"
	"github.com/pdiddy/unisearch/pkg/types"
)

// Backend searches the public web. Implementations return unscored
// canonical results; scoring and ranking happen in the engine.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, cfg types.WebConfig) ([]types.Result, error)
}

// ddgAPIBase is the DuckDuckGo Instant Answer endpoint. Declared as a var
// so tests can substitute an httptest server.
var ddgAPIBase = "https://api.duckduckgo.com/"

// DuckDuckGoBackend queries the DuckDuckGo Instant Answer API.
type DuckDuckGoBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

// ddgResponse is the subset of the Instant Answer payload the backend reads.
type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

// Search queries the Instant Answer API and flattens the abstract and
// related topics into canonical results.
func (b *DuckDuckGoBackend) Search(ctx context.Context, query string, cfg types.WebConfig) ([]types.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty web query")
	}

	reqURL := fmt.Sprintf("%s?q=%s&format=json&no_html=1&skip_disambig=1",
		ddgAPIBase, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned HTTP %d", resp.StatusCode)
	}

	var dr ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("parsing web search response: %w", err)
	}

	var results []types.Result
	if dr.AbstractText != "" {
		results = append(results, normalize.Normalize(types.ProviderWeb, map[string]any{
			"title":   dr.Heading,
			"snippet": dr.AbstractText,
			"url":     dr.AbstractURL,
		}))
	}
	for _, t := range flattenTopics(dr.RelatedTopics) {
		if t.Text == "" || t.FirstURL == "" {
			continue
		}
		results = append(results, normalize.Normalize(types.ProviderWeb, map[string]any{
			"title":   topicTitle(t.Text),
			"snippet": t.Text,
			"url":     t.FirstURL,
		}))
	}
	return results, nil
}

// flattenTopics expands nested topic groups into one flat list.
func flattenTopics(topics []ddgTopic) []ddgTopic {
	var flat []ddgTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			flat = append(flat, flattenTopics(t.Topics)...)
			continue
		}
		flat = append(flat, t)
	}
	return flat
}

// topicTitle uses the first sentence-ish fragment of the topic text as a
// title, truncating on rune boundaries.
func topicTitle(text string) string {
	if idx := strings.Index(text, " - "); idx > 0 {
		return text[:idx]
	}
	if r := []rune(text); len(r) > 80 {
		return string(r[:77]) + "..."
	}
	return text
}

// FilterDomains applies the allow and block lists to results by URL host.
// An empty allow list admits every domain not blocked.
func FilterDomains(results []types.Result, allowed, blocked []string) []types.Result {
	if len(allowed) == 0 && len(blocked) == 0 {
		return results
	}

	var kept []types.Result
	for _, r := range results {
		host := resultHost(r.URL)
		if host == "" {
			continue
		}
		if matchesAny(host, blocked) {
			continue
		}
		if len(allowed) > 0 && !matchesAny(host, allowed) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// FilterKeywords drops results whose title or content contains any of the
// policy keywords, case-insensitively.
func FilterKeywords(results []types.Result, keywords []string) []types.Result {
	if len(keywords) == 0 {
		return results
	}

	var kept []types.Result
	for _, r := range results {
		text := strings.ToLower(r.Title + " " + r.Content)
		hit := false
		for _, kw := range keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				hit = true
				break
			}
		}
		if !hit {
			kept = append(kept, r)
		}
	}
	return kept
}

// resultHost extracts the lowercase host from a result URL.
func resultHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// matchesAny reports whether host equals or is a subdomain of any entry.
func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
