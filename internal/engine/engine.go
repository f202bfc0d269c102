// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine orchestrates one search request across four modes: apps,
// web, ai, and unified. Each call is a single pass through exactly one
// mode; the request-level contract is "always returns results, never an
// error", except for an unsupported mode value.
// See docs/ARCHITECTURE.md § Orchestration.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/unisearch/internal/fanout"
	"github.com/pdiddy/unisearch/internal/intent"
	"github.com/pdiddy/unisearch/internal/oracle"
	"github.com/pdiddy/unisearch/internal/rank"
	"github.com/pdiddy/unisearch/internal/registry"
	"github.com/pdiddy/unisearch/internal/webfetch"
	"github.com/pdiddy/unisearch/pkg/types"
)

// Per-mode result caps.
const (
	appsLimit    = 50
	webLimit     = 50
	unifiedLimit = 100
)

const defaultRequestTimeout = 45 * time.Second

// Fixed scores for ai-mode results: generative answers rank high, per-model
// failures rank low but stay visible.
const (
	aiAnswerScore  = 0.95
	aiFailureScore = 0.1
)

// ErrUnsupportedMode is the only error Search returns; every other failure
// is contained and converted to results.
var ErrUnsupportedMode = errors.New("unsupported search mode")

// Engine composes the resolver, coordinator, web backend, and oracle into
// the request entry point. All state is read-only per request; the engine
// is safe for concurrent use.
type Engine struct {
	registry    registry.Reader
	resolver    *intent.Resolver
	coordinator *fanout.Coordinator
	web         webfetch.Backend
	oracle      oracle.Client
	cfg         types.Config
	logger      *slog.Logger
}

// New builds an engine. A nil logger defaults to slog.Default.
func New(reg registry.Reader, res *intent.Resolver, coord *fanout.Coordinator, web webfetch.Backend, oc oracle.Client, cfg types.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		registry:    reg,
		resolver:    res,
		coordinator: coord,
		web:         web,
		oracle:      oc,
		cfg:         cfg,
		logger:      logger,
	}
}

// Search runs one request through the selected mode and returns ranked
// results. The request is bounded by the configured request timeout; when
// it elapses, in-flight provider calls are cancelled and results already
// received are kept.
func (e *Engine) Search(ctx context.Context, query string, mode types.SearchMode, opts types.SearchOptions) ([]types.Result, error) {
	timeout := e.cfg.Engine.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch mode {
	case types.ModeApps:
		return e.searchApps(ctx, query, opts), nil
	case types.ModeWeb:
		return e.searchWeb(ctx, query, opts), nil
	case types.ModeAI:
		return e.searchAI(ctx, query, opts), nil
	case types.ModeUnified:
		return e.searchUnified(ctx, query, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
}

// searchApps resolves the query into actions, fans them out, and ranks the
// results. Every "no information" condition substitutes exactly one
// guidance result so the caller never sees a bare empty response.
func (e *Engine) searchApps(ctx context.Context, query string, opts types.SearchOptions) (results []types.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("apps search fault", "panic", rec)
			results = []types.Result{ErrorResult(fmt.Errorf("%v", rec))}
		}
	}()

	connected, err := e.listConnectedApps()
	if err != nil {
		e.logger.Warn("registry read failed", "error", err)
	}
	if len(connected) == 0 {
		return []types.Result{SetupGuide()}
	}

	connectedTypes := make([]types.ProviderType, len(connected))
	for i, p := range connected {
		connectedTypes[i] = p.Type
	}

	qi := e.resolver.Resolve(ctx, query, connectedTypes)
	if len(qi.Actions) == 0 {
		return []types.Result{SearchSuggestion(connectedTypes)}
	}

	results = e.coordinator.Execute(ctx, qi.Actions, connected, query)
	results = filterSources(results, opts.Sources)
	if len(results) == 0 {
		return []types.Result{EmptyOutcome(query)}
	}

	rank.Sort(results)
	return truncate(results, opts.Limit, appsLimit)
}

// searchWeb calls the web backend, applies domain and policy filtering,
// and ranks what survives. Web mode may legitimately return nothing, but
// an internal fault still surfaces as an error result, never a panic.
func (e *Engine) searchWeb(ctx context.Context, query string, opts types.SearchOptions) (results []types.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("web search fault", "panic", rec)
			results = []types.Result{ErrorResult(fmt.Errorf("%v", rec))}
		}
	}()

	if e.web == nil {
		return nil
	}

	results, err := e.web.Search(ctx, query, e.cfg.Web)
	if err != nil {
		e.logger.Warn("web search failed", "backend", e.web.Name(), "error", err)
		return nil
	}

	allowed := append([]string{}, e.cfg.Web.AllowedDomains...)
	allowed = append(allowed, opts.AllowedDomains...)
	blocked := append([]string{}, e.cfg.Web.BlockedDomains...)
	blocked = append(blocked, opts.BlockedDomains...)

	results = webfetch.FilterDomains(results, allowed, blocked)
	results = webfetch.FilterKeywords(results, e.cfg.Web.BlockedKeywords)

	for i := range results {
		results[i].RelevanceScore = rank.Score(results[i], query)
	}
	rank.Sort(results)
	return truncate(results, opts.Limit, webLimit)
}

// searchAI asks the oracle for a generative answer per requested model.
// Model failures are isolated: each yields an error-tagged result, never a
// mode-level failure. An internal fault surfaces as an error result.
func (e *Engine) searchAI(ctx context.Context, query string, opts types.SearchOptions) (results []types.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("ai search fault", "panic", rec)
			results = []types.Result{ErrorResult(fmt.Errorf("%v", rec))}
		}
	}()

	if e.oracle == nil {
		return nil
	}

	models := opts.AIModels
	if len(models) == 0 {
		models = []string{e.cfg.Oracle.Model}
	}
	temperature := e.cfg.Oracle.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	results = make([]types.Result, len(models))
	var g errgroup.Group
	for i, model := range models {
		g.Go(func() error {
			answer, err := e.oracle.Generate(ctx, query, oracle.Options{
				Model:       model,
				Temperature: temperature,
			})
			if err != nil {
				e.logger.Warn("ai answer failed", "model", model, "error", err)
				results[i] = aiFailureResult(model, err)
				return nil
			}
			results[i] = aiAnswerResult(model, answer)
			return nil
		})
	}
	g.Wait()
	return results
}

// searchUnified runs the apps, web, and ai branches concurrently, merges
// their output, re-scores, deduplicates, and ranks. A failing branch
// contributes nothing rather than failing the request.
func (e *Engine) searchUnified(ctx context.Context, query string, opts types.SearchOptions) []types.Result {
	var branches [3][]types.Result
	var g errgroup.Group

	g.Go(func() error {
		branches[0] = e.safeBranch("apps", func() []types.Result { return e.searchApps(ctx, query, opts) })
		return nil
	})
	g.Go(func() error {
		branches[1] = e.safeBranch("web", func() []types.Result { return e.searchWeb(ctx, query, opts) })
		return nil
	})
	g.Go(func() error {
		branches[2] = e.safeBranch("ai", func() []types.Result { return e.searchAI(ctx, query, opts) })
		return nil
	})
	g.Wait()

	var merged []types.Result
	for _, branch := range branches {
		for _, r := range branch {
			// Per-branch guidance is dropped; unified substitutes its own
			// when the whole merge comes up empty.
			if isGuidance(r) {
				continue
			}
			merged = append(merged, r)
		}
	}

	// Re-score against the original query. Generative answers keep their
	// fixed score: token overlap is meaningless for them.
	for i := range merged {
		if merged[i].MetadataType() == TagAIResponse {
			continue
		}
		merged[i].RelevanceScore = rank.Score(merged[i], query)
	}

	merged = dedupe(merged)
	if len(merged) == 0 {
		return []types.Result{EmptyOutcome(query)}
	}

	rank.Sort(merged)
	return truncate(merged, opts.Limit, unifiedLimit)
}

// safeBranch contains a branch panic so sibling branches survive.
func (e *Engine) safeBranch(name string, fn func() []types.Result) (results []types.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("unified branch fault", "branch", name, "panic", rec)
			results = nil
		}
	}()
	return fn()
}

// listConnectedApps reads the registry snapshot, keeping only connected
// app providers.
func (e *Engine) listConnectedApps() ([]types.Provider, error) {
	if e.registry == nil {
		return nil, nil
	}
	connected, err := e.registry.ListConnected()
	if err != nil {
		return nil, err
	}
	var apps []types.Provider
	for _, p := range connected {
		if types.IsAppProvider(p.Type) {
			apps = append(apps, p)
		}
	}
	return apps, nil
}

func aiAnswerResult(model, answer string) types.Result {
	title := answer
	if r := []rune(title); len(r) > 80 {
		title = string(r[:77]) + "..."
	}
	return types.Result{
		ID:             uuid.NewString(),
		Title:          title,
		Content:        answer,
		SourceName:     model,
		SourceType:     types.ProviderAI,
		Author:         model,
		Timestamp:      time.Now().UTC(),
		URL:            "#",
		RelevanceScore: aiAnswerScore,
		Metadata:       map[string]any{"type": TagAIResponse, "model": model},
	}
}

func aiFailureResult(model string, err error) types.Result {
	return types.Result{
		ID:             uuid.NewString(),
		Title:          fmt.Sprintf("Model %s unavailable", model),
		Content:        fmt.Sprintf("The model %s could not produce an answer: %v", model, err),
		SourceName:     model,
		SourceType:     types.ProviderAI,
		Author:         model,
		Timestamp:      time.Now().UTC(),
		URL:            "#",
		RelevanceScore: aiFailureScore,
		Metadata:       map[string]any{"type": TagError, "model": model},
	}
}

// filterSources keeps results whose source type is in the filter list.
// An empty list keeps everything.
func filterSources(results []types.Result, sources []types.ProviderType) []types.Result {
	if len(sources) == 0 {
		return results
	}
	var kept []types.Result
	for _, r := range results {
		for _, s := range sources {
			if r.SourceType == s {
				kept = append(kept, r)
				break
			}
		}
	}
	return kept
}

// dedupe merges results sharing a URL (or ID when the URL is the "#"
// placeholder), keeping the higher score.
func dedupe(results []types.Result) []types.Result {
	seen := make(map[string]int, len(results))
	var deduped []types.Result
	for _, r := range results {
		key := r.URL
		if key == "" || key == "#" {
			key = "id:" + r.ID
		}
		if idx, ok := seen[key]; ok {
			if r.RelevanceScore > deduped[idx].RelevanceScore {
				deduped[idx].RelevanceScore = r.RelevanceScore
			}
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, r)
	}
	return deduped
}

// truncate caps results at the requested limit, bounded by the mode cap.
func truncate(results []types.Result, requested, modeCap int) []types.Result {
	limit := modeCap
	if requested > 0 && requested < modeCap {
		limit = requested
	}
	if len(results) > limit {
		return results[:limit]
	}
	return results
}
