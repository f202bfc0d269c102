// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package intent resolves a free-text query into a ranked list of provider
// actions, via the AI oracle with a deterministic keyword fallback.
// See docs/ARCHITECTURE.md § Intent Resolution.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pdiddy/unisearch/internal/oracle"
	"github.com/pdiddy/unisearch/internal/provider"
	"github.com/pdiddy/unisearch/pkg/types"
)

// Confidence levels. Oracle output missing a confidence gets the default;
// keyword-fallback output is always marked low.
const (
	defaultConfidence  = 0.5
	fallbackConfidence = 0.3
)

// defaultIntent backfills a missing intent description.
const defaultIntent = "Search query"

// Resolver turns queries into QueryIntents. It never returns an error:
// oracle failure of any kind degrades to the keyword fallback.
type Resolver struct {
	Oracle oracle.Client
	Logger *slog.Logger
}

// NewResolver builds a resolver. A nil logger defaults to slog.Default.
func NewResolver(oc oracle.Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{Oracle: oc, Logger: logger}
}

// Resolve maps the query and the connected provider set to a ranked action
// list. The returned intent's actions are sorted by priority descending,
// ties keeping resolver order, and every action satisfies the Action
// invariant.
func (r *Resolver) Resolve(ctx context.Context, query string, connected []types.ProviderType) types.QueryIntent {
	if r.Oracle == nil {
		return r.fallback(query, connected)
	}

	prompt := buildPrompt(query, connected)
	raw, err := r.Oracle.Generate(ctx, prompt, oracle.Options{})
	if err != nil {
		r.Logger.Warn("oracle unavailable, using keyword fallback", "error", err)
		return r.fallback(query, connected)
	}

	intent, err := parseIntent(raw, query)
	if err != nil {
		r.Logger.Warn("unparseable oracle response, using keyword fallback", "error", err)
		return r.fallback(query, connected)
	}
	return intent
}

// wireIntent mirrors the JSON object the oracle is asked to emit. Scalars
// arrive loosely typed and are coerced during validation.
type wireIntent struct {
	OriginalQuery  string       `json:"originalQuery"`
	ProcessedQuery string       `json:"processedQuery"`
	Intent         string       `json:"intent"`
	Actions        []wireAction `json:"actions"`
	Confidence     *float64     `json:"confidence"`
}

type wireAction struct {
	Provider   string         `json:"provider"`
	Operation  string         `json:"operation"`
	Parameters map[string]any `json:"parameters"`
	Priority   float64        `json:"priority"`
}

// parseIntent extracts the first balanced JSON object from the oracle's
// text, backfills missing fields, drops invariant-violating actions, and
// sorts the rest by priority descending.
func parseIntent(raw, query string) (types.QueryIntent, error) {
	wire, err := decodeIntent(raw)
	if err != nil {
		return types.QueryIntent{}, err
	}

	intent := types.QueryIntent{
		OriginalQuery:  wire.OriginalQuery,
		ProcessedQuery: wire.ProcessedQuery,
		Intent:         wire.Intent,
		Confidence:     defaultConfidence,
	}
	if intent.OriginalQuery == "" {
		intent.OriginalQuery = query
	}
	if intent.ProcessedQuery == "" {
		intent.ProcessedQuery = query
	}
	if intent.Intent == "" {
		intent.Intent = defaultIntent
	}
	if wire.Confidence != nil {
		intent.Confidence = clamp01(*wire.Confidence)
	}

	for _, wa := range wire.Actions {
		a := types.Action{
			Provider:  types.ProviderType(strings.ToLower(strings.TrimSpace(wa.Provider))),
			Operation: strings.TrimSpace(wa.Operation),
			Priority:  int(wa.Priority),
		}
		if len(wa.Parameters) > 0 {
			a.Parameters = make(map[string]string, len(wa.Parameters))
			for k, v := range wa.Parameters {
				if s := scalarString(v); s != "" {
					a.Parameters[k] = s
				}
			}
		}
		if !a.Valid() {
			continue
		}
		intent.Actions = append(intent.Actions, a)
	}

	sortActions(intent.Actions)
	return intent, nil
}

// fallback applies deterministic keyword rules when the oracle cannot be
// used. Confidence is fixed at 0.3.
func (r *Resolver) fallback(query string, connected []types.ProviderType) types.QueryIntent {
	q := strings.ToLower(query)
	has := func(t types.ProviderType) bool {
		for _, c := range connected {
			if c == t {
				return true
			}
		}
		return false
	}
	anyOf := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}

	intent := types.QueryIntent{
		OriginalQuery:  query,
		ProcessedQuery: strings.TrimSpace(q),
		Intent:         defaultIntent,
		Confidence:     fallbackConfidence,
	}

	if anyOf("repo", "project") && has(types.ProviderGitHub) {
		if anyOf("my ", " mine", "all my") || strings.HasPrefix(q, "my ") {
			intent.Actions = append(intent.Actions, types.Action{
				Provider:   types.ProviderGitHub,
				Operation:  "list_owned_repositories",
				Parameters: map[string]string{"type": "owner"},
				Priority:   9,
			})
		} else {
			intent.Actions = append(intent.Actions, types.Action{
				Provider:   types.ProviderGitHub,
				Operation:  "search_repositories",
				Parameters: map[string]string{"query": query},
				Priority:   8,
			})
		}
	}

	if anyOf("issue", "bug", "ticket") {
		if has(types.ProviderGitHub) {
			intent.Actions = append(intent.Actions, types.Action{
				Provider:   types.ProviderGitHub,
				Operation:  "search_issues",
				Parameters: map[string]string{"query": query},
				Priority:   8,
			})
		}
		if has(types.ProviderJira) {
			intent.Actions = append(intent.Actions, types.Action{
				Provider:   types.ProviderJira,
				Operation:  "search_issues",
				Parameters: map[string]string{"query": query},
				Priority:   7,
			})
		}
	}

	if len(intent.Actions) == 0 && has(types.ProviderGitHub) {
		intent.Actions = append(intent.Actions, types.Action{
			Provider:   types.ProviderGitHub,
			Operation:  "search_repositories",
			Parameters: map[string]string{"query": query},
			Priority:   5,
		})
	}

	sortActions(intent.Actions)
	return intent
}

// sortActions orders by priority descending; the stable sort keeps the
// resolver's original order for ties.
func sortActions(actions []types.Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority > actions[j].Priority
	})
}

// scalarString renders a JSON scalar as a string; arrays and objects are
// dropped.
func scalarString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", v), ".0")
	case bool:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// connectedCatalog renders the operation catalog for the connected
// provider subset, one provider per line.
func connectedCatalog(connected []types.ProviderType) string {
	var b strings.Builder
	for _, t := range connected {
		ops, ok := provider.Catalog[t]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", t, strings.Join(ops, ", "))
	}
	return b.String()
}
