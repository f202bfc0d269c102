// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fanout

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/unisearch/internal/provider"
	"github.com/pdiddy/unisearch/pkg/types"
)

// mockClient serves canned items per operation and counts invocations.
type mockClient struct {
	providerType types.ProviderType
	items        map[string][]map[string]any
	err          error
	invocations  int32
}

func (m *mockClient) Type() types.ProviderType { return m.providerType }

func (m *mockClient) Invoke(_ context.Context, operation string, _ map[string]string) ([]map[string]any, error) {
	atomic.AddInt32(&m.invocations, 1)
	if m.err != nil {
		return nil, m.err
	}
	return m.items[operation], nil
}

func mockFactory(clients map[types.ProviderType]*mockClient) ClientFactory {
	return func(p types.Provider, _ *http.Client, _ types.HTTPConfig) (provider.Client, error) {
		c, ok := clients[p.Type]
		if !ok {
			return nil, errors.New("no mock for " + string(p.Type))
		}
		return c, nil
	}
}

func connectedProvider(t types.ProviderType) types.Provider {
	return types.Provider{
		ID:     "conn-" + string(t),
		Type:   t,
		Name:   string(t) + "-main",
		Status: types.StatusConnected,
	}
}

func newTestCoordinator(clients map[types.ProviderType]*mockClient) *Coordinator {
	c := New(types.FanoutConfig{}, types.HTTPConfig{}, http.DefaultClient, nil)
	return c.WithFactory(mockFactory(clients))
}

func TestExecuteCollectsAcrossProviders(t *testing.T) {
	clients := map[types.ProviderType]*mockClient{
		types.ProviderGitHub: {
			providerType: types.ProviderGitHub,
			items: map[string][]map[string]any{
				"search_repositories": {
					{"full_name": "acme/cache", "html_url": "https://github.com/acme/cache"},
					{"full_name": "acme/queue", "html_url": "https://github.com/acme/queue"},
				},
			},
		},
		types.ProviderJira: {
			providerType: types.ProviderJira,
			items: map[string][]map[string]any{
				"search_issues": {
					{"key": "PROJ-1", "fields": map[string]any{"summary": "cache bug"}},
				},
			},
		},
	}
	c := newTestCoordinator(clients)

	actions := []types.Action{
		{Provider: types.ProviderGitHub, Operation: "search_repositories", Parameters: map[string]string{"query": "cache"}, Priority: 9},
		{Provider: types.ProviderJira, Operation: "search_issues", Parameters: map[string]string{"query": "cache"}, Priority: 7},
	}
	connected := []types.Provider{
		connectedProvider(types.ProviderGitHub),
		connectedProvider(types.ProviderJira),
	}

	results := c.Execute(context.Background(), actions, connected, "cache")
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.RelevanceScore < 0 || r.RelevanceScore > 1 {
			t.Errorf("result %s: score %f out of range", r.ID, r.RelevanceScore)
		}
		if r.SourceName != string(r.SourceType)+"-main" {
			t.Errorf("result %s: SourceName = %q, want connection name", r.ID, r.SourceName)
		}
	}
}

func TestExecuteCapsConcurrency(t *testing.T) {
	gh := &mockClient{
		providerType: types.ProviderGitHub,
		items: map[string][]map[string]any{
			"search_repositories": {{"full_name": "acme/one"}},
		},
	}
	c := newTestCoordinator(map[types.ProviderType]*mockClient{types.ProviderGitHub: gh})

	// Five distinct actions; only the top MaxFanout run.
	var actions []types.Action
	for _, q := range []string{"a", "b", "c", "d", "e"} {
		actions = append(actions, types.Action{
			Provider:   types.ProviderGitHub,
			Operation:  "search_repositories",
			Parameters: map[string]string{"query": q},
			Priority:   5,
		})
	}

	c.Execute(context.Background(), actions, []types.Provider{connectedProvider(types.ProviderGitHub)}, "q")
	if got := atomic.LoadInt32(&gh.invocations); got != MaxFanout {
		t.Errorf("invocations = %d, want %d", got, MaxFanout)
	}
}

func TestExecuteIsolatesFailures(t *testing.T) {
	clients := map[types.ProviderType]*mockClient{
		types.ProviderGitHub: {
			providerType: types.ProviderGitHub,
			err:          errors.New("503 from upstream"),
		},
		types.ProviderJira: {
			providerType: types.ProviderJira,
			items: map[string][]map[string]any{
				"search_issues": {{"key": "PROJ-2", "fields": map[string]any{"summary": "still works"}}},
			},
		},
	}
	c := newTestCoordinator(clients)

	actions := []types.Action{
		{Provider: types.ProviderGitHub, Operation: "search_repositories", Parameters: map[string]string{"query": "x"}, Priority: 9},
		{Provider: types.ProviderJira, Operation: "search_issues", Parameters: map[string]string{"query": "x"}, Priority: 7},
	}
	connected := []types.Provider{
		connectedProvider(types.ProviderGitHub),
		connectedProvider(types.ProviderJira),
	}

	results := c.Execute(context.Background(), actions, connected, "x")
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 (failed sibling excluded)", len(results))
	}
	if results[0].SourceType != types.ProviderJira {
		t.Errorf("survivor = %s, want jira", results[0].SourceType)
	}
}

func TestExecuteSkipsUnconnected(t *testing.T) {
	gh := &mockClient{
		providerType: types.ProviderGitHub,
		items:        map[string][]map[string]any{"search_repositories": {{"full_name": "acme/x"}}},
	}
	c := newTestCoordinator(map[types.ProviderType]*mockClient{types.ProviderGitHub: gh})

	actions := []types.Action{
		{Provider: types.ProviderGitHub, Operation: "search_repositories", Parameters: map[string]string{"query": "x"}, Priority: 9},
		{Provider: types.ProviderSlack, Operation: "search_messages", Parameters: map[string]string{"query": "x"}, Priority: 8},
	}
	// Slack is registered but in error state; its action must be skipped.
	slack := connectedProvider(types.ProviderSlack)
	slack.Status = types.StatusError
	connected := []types.Provider{connectedProvider(types.ProviderGitHub), slack}

	results := c.Execute(context.Background(), actions, connected, "x")
	if len(results) != 1 || results[0].SourceType != types.ProviderGitHub {
		t.Errorf("results = %+v, want github only", results)
	}
}

func TestExecuteCachesRepeatedActions(t *testing.T) {
	gh := &mockClient{
		providerType: types.ProviderGitHub,
		items:        map[string][]map[string]any{"search_repositories": {{"full_name": "acme/cache"}}},
	}
	c := newTestCoordinator(map[types.ProviderType]*mockClient{types.ProviderGitHub: gh})

	actions := []types.Action{
		{Provider: types.ProviderGitHub, Operation: "search_repositories", Parameters: map[string]string{"query": "cache"}, Priority: 9},
	}
	connected := []types.Provider{connectedProvider(types.ProviderGitHub)}

	first := c.Execute(context.Background(), actions, connected, "cache")
	second := c.Execute(context.Background(), actions, connected, "unrelated terms")

	if got := atomic.LoadInt32(&gh.invocations); got != 1 {
		t.Errorf("invocations = %d, want 1 (second call served from cache)", got)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("lens = %d, %d, want 1 each", len(first), len(second))
	}
	// Scores are recomputed against the new query even on a cache hit.
	if first[0].RelevanceScore <= second[0].RelevanceScore {
		t.Errorf("scores = %f then %f, want matching query to score higher",
			first[0].RelevanceScore, second[0].RelevanceScore)
	}
}

// blockingClient holds every invocation open until the context is done.
type blockingClient struct {
	providerType types.ProviderType
}

func (c *blockingClient) Type() types.ProviderType { return c.providerType }

func (c *blockingClient) Invoke(ctx context.Context, _ string, _ map[string]string) ([]map[string]any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestExecuteDeadlineKeepsCompletedResults(t *testing.T) {
	fast := &mockClient{
		providerType: types.ProviderGitHub,
		items:        map[string][]map[string]any{"search_repositories": {{"full_name": "acme/fast"}}},
	}
	stuck := &blockingClient{providerType: types.ProviderJira}

	c := New(types.FanoutConfig{}, types.HTTPConfig{}, http.DefaultClient, nil).
		WithFactory(func(p types.Provider, _ *http.Client, _ types.HTTPConfig) (provider.Client, error) {
			if p.Type == types.ProviderGitHub {
				return fast, nil
			}
			return stuck, nil
		})

	actions := []types.Action{
		{Provider: types.ProviderGitHub, Operation: "search_repositories", Parameters: map[string]string{"query": "fast"}, Priority: 9},
		{Provider: types.ProviderJira, Operation: "search_issues", Parameters: map[string]string{"query": "fast"}, Priority: 7},
	}
	connected := []types.Provider{
		connectedProvider(types.ProviderGitHub),
		connectedProvider(types.ProviderJira),
	}

	// The request deadline elapses while the jira call is still in flight;
	// the completed github results must survive.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	results := c.Execute(ctx, actions, connected, "fast")
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Execute blocked past the deadline: %v", elapsed)
	}

	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want the completed action only", len(results))
	}
	if results[0].SourceType != types.ProviderGitHub {
		t.Errorf("survivor = %s, want github", results[0].SourceType)
	}
}

func TestCacheKeyOrderIndependent(t *testing.T) {
	a := types.Action{Provider: types.ProviderGitHub, Operation: "op", Parameters: map[string]string{"a": "1", "b": "2"}}
	b := types.Action{Provider: types.ProviderGitHub, Operation: "op", Parameters: map[string]string{"b": "2", "a": "1"}}
	if cacheKey(a) != cacheKey(b) {
		t.Errorf("cacheKey differs for equal parameter sets: %q vs %q", cacheKey(a), cacheKey(b))
	}
	c := types.Action{Provider: types.ProviderGitHub, Operation: "op", Parameters: map[string]string{"a": "1", "b": "3"}}
	if cacheKey(a) == cacheKey(c) {
		t.Error("cacheKey collides for different parameter values")
	}
}
