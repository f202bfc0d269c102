// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fanout executes a ranked action list against providers
// concurrently, isolating per-action failures within a bounded fan-out.
// See docs/ARCHITECTURE.md § Fan-out.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/unisearch/internal/normalize"
	"github.com/pdiddy/unisearch/internal/provider"
	"github.com/pdiddy/unisearch/internal/rank"
	"github.com/pdiddy/unisearch/pkg/types"
)

// MaxFanout caps concurrent provider calls per request. The cap bounds
// latency and external rate-limit exposure.
const MaxFanout = 3

const (
	defaultActionTimeout = 15 * time.Second
	defaultCacheSize     = 128
	defaultCacheTTL      = 60 * time.Second
)

// ClientFactory builds a provider client for one connection. Swapped out
// by tests.
type ClientFactory func(p types.Provider, httpClient *http.Client, cfg types.HTTPConfig) (provider.Client, error)

// Coordinator runs actions against providers. Safe for concurrent use.
type Coordinator struct {
	factory       ClientFactory
	httpClient    *http.Client
	httpCfg       types.HTTPConfig
	actionTimeout time.Duration
	cacheTTL      time.Duration
	cache         *lru.Cache[string, cacheEntry]
	logger        *slog.Logger
}

// cacheEntry is one cached action result set with its fetch time.
type cacheEntry struct {
	results []types.Result
	fetched time.Time
}

// New builds a coordinator. A nil logger defaults to slog.Default; zero
// config fields get package defaults.
func New(cfg types.FanoutConfig, httpCfg types.HTTPConfig, httpClient *http.Client, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ActionTimeout
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	// lru.New only fails for a non-positive size, which is ruled out above.
	cache, _ := lru.New[string, cacheEntry](size)

	return &Coordinator{
		factory:       provider.New,
		httpClient:    httpClient,
		httpCfg:       httpCfg,
		actionTimeout: timeout,
		cacheTTL:      ttl,
		cache:         cache,
		logger:        logger,
	}
}

// WithFactory replaces the client factory; tests use it to install mocks.
func (c *Coordinator) WithFactory(f ClientFactory) *Coordinator {
	c.factory = f
	return c
}

// Execute runs at most the top MaxFanout actions concurrently and returns
// all normalized, scored results in one flat sequence. Ordering is not
// final here; the caller ranks downstream. One action's failure is logged
// and excluded, never aborting siblings. Actions whose target provider is
// not connected are skipped.
func (c *Coordinator) Execute(ctx context.Context, actions []types.Action, connected []types.Provider, query string) []types.Result {
	byType := make(map[types.ProviderType]types.Provider, len(connected))
	for _, p := range connected {
		if p.Connected() {
			byType[p.Type] = p
		}
	}

	if len(actions) > MaxFanout {
		actions = actions[:MaxFanout]
	}

	ch := make(chan []types.Result, len(actions))
	var wg sync.WaitGroup

	for _, a := range actions {
		target, ok := byType[a.Provider]
		if !ok {
			c.logger.Debug("skipping action for unconnected provider",
				"provider", a.Provider, "operation", a.Operation)
			continue
		}

		wg.Add(1)
		go func(a types.Action, target types.Provider) {
			defer wg.Done()
			results, err := c.runAction(ctx, a, target, query)
			if err != nil {
				c.logger.Warn("action failed",
					"provider", a.Provider, "operation", a.Operation, "error", err)
				return
			}
			ch <- results
		}(a, target)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.Result
	for results := range ch {
		all = append(all, results...)
	}
	return all
}

// runAction invokes one provider operation under its own timeout and
// normalizes and scores the reply. The cache holds unscored results;
// scoring always runs against the current query.
func (c *Coordinator) runAction(ctx context.Context, a types.Action, target types.Provider, query string) ([]types.Result, error) {
	key := cacheKey(a)
	entry, cached := c.cache.Get(key)
	if !cached || time.Since(entry.fetched) >= c.cacheTTL {
		client, err := c.factory(target, c.httpClient, c.httpCfg)
		if err != nil {
			return nil, fmt.Errorf("building client: %w", err)
		}

		actionCtx, cancel := context.WithTimeout(ctx, c.actionTimeout)
		defer cancel()

		raw, err := client.Invoke(actionCtx, a.Operation, a.Parameters)
		if err != nil {
			return nil, err
		}

		entry = cacheEntry{results: make([]types.Result, 0, len(raw)), fetched: time.Now()}
		for _, item := range raw {
			r := normalize.Normalize(a.Provider, item)
			r.SourceName = target.Name
			entry.results = append(entry.results, r)
		}
		c.cache.Add(key, entry)
	}

	scored := make([]types.Result, len(entry.results))
	for i, r := range entry.results {
		r.RelevanceScore = rank.Score(r, query)
		scored[i] = r
	}
	return scored, nil
}

// cacheKey identifies an action by provider, operation, and sorted
// parameters.
func cacheKey(a types.Action) string {
	keys := make([]string, 0, len(a.Parameters))
	for k := range a.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(a.Provider))
	b.WriteByte('|')
	b.WriteString(a.Operation)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(a.Parameters[k])
	}
	return b.String()
}
