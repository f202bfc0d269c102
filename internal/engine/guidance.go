// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/unisearch/pkg/types"
)

// Metadata type tags distinguishing synthetic results from real data.
const (
	TagSetupGuide       = "setup_guide"
	TagSearchSuggestion = "search_suggestion"
	TagSearchResult     = "search_result"
	TagError            = "error"
	TagAIResponse       = "ai_response"
)

// guidanceSource labels synthetic results in place of a provider connection name.
const guidanceSource = "unisearch"

// SetupGuide is returned when no providers are connected: it points the
// user at connection configuration instead of an empty response.
func SetupGuide() types.Result {
	return syntheticResult(
		"Connect a provider to get started",
		"No providers are connected yet. Register one with `unisearch connections add` "+
			"(github, jira, confluence, slack, teams, or bitbucket) and search again.",
		TagSetupGuide,
		nil,
	)
}

// SearchSuggestion is returned when the resolver produced no usable
// actions for the query.
func SearchSuggestion(attempted []types.ProviderType) types.Result {
	names := make([]string, len(attempted))
	for i, t := range attempted {
		names[i] = string(t)
	}
	return syntheticResult(
		"Try a more specific query",
		fmt.Sprintf("The query could not be mapped to any operation on the connected providers (%s). "+
			"Try naming what you are looking for, like \"my repos\" or \"open bugs in checkout\".",
			strings.Join(names, ", ")),
		TagSearchSuggestion,
		map[string]any{"attempted_providers": names},
	)
}

// EmptyOutcome is returned when actions executed successfully but matched
// nothing.
func EmptyOutcome(query string) types.Result {
	return syntheticResult(
		"No matches found",
		fmt.Sprintf("The search for %q completed but matched nothing. "+
			"Try different terms, or the source may not have synced recent items yet.", query),
		TagSearchResult,
		map[string]any{"query": query},
	)
}

// ErrorResult converts an uncaught pipeline fault into a user-visible,
// non-fatal result. This is the single point where an internal failure
// surfaces to the caller.
func ErrorResult(err error) types.Result {
	return syntheticResult(
		"Search failed",
		fmt.Sprintf("The search could not be completed: %v", err),
		TagError,
		map[string]any{"error": err.Error()},
	)
}

func syntheticResult(title, content, tag string, extra map[string]any) types.Result {
	metadata := map[string]any{"type": tag}
	for k, v := range extra {
		metadata[k] = v
	}
	return types.Result{
		ID:             uuid.NewString(),
		Title:          title,
		Content:        content,
		SourceName:     guidanceSource,
		Author:         guidanceSource,
		Timestamp:      time.Now().UTC(),
		URL:            "#",
		RelevanceScore: 1.0,
		Metadata:       metadata,
	}
}

// isGuidance reports whether a result is synthetic no-data guidance rather
// than real data.
func isGuidance(r types.Result) bool {
	switch r.MetadataType() {
	case TagSetupGuide, TagSearchSuggestion, TagSearchResult, TagError:
		return true
	}
	return false
}
