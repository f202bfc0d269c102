// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank computes composite relevance scores and imposes the final
// result ordering.
// See docs/ARCHITECTURE.md § Ranking.
package rank

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/unisearch/pkg/types"
)

// Composite weights. Text similarity dominates; source trust and recency
// contribute equally.
const (
	textWeight    = 0.6
	sourceWeight  = 0.2
	recencyWeight = 0.2
)

// fallbackScore is assigned when scoring itself fails; the result proceeds
// through the pipeline regardless.
const fallbackScore = 0.5

// sourceWeights ranks provider types by how trustworthy their results tend
// to be for workplace queries. Unknown sources get 0.5.
var sourceWeights = map[types.ProviderType]float64{
	types.ProviderJira:       0.9,
	types.ProviderConfluence: 0.8,
	types.ProviderGitHub:     0.8,
	types.ProviderBitbucket:  0.8,
	types.ProviderTeams:      0.6,
	types.ProviderSlack:      0.6,
}

// timeNow is the clock used for recency scoring. Tests override it.
var timeNow = time.Now

// Score computes the composite relevance of a result against a query:
// 0.6·text + 0.2·source + 0.2·recency, clamped to [0,1]. A failure while
// scoring never fails the pipeline; the result gets 0.5.
func Score(r types.Result, query string) (score float64) {
	defer func() {
		if rec := recover(); rec != nil {
			score = fallbackScore
		}
		score = clamp(score)
	}()

	text := textScore(r, query)
	source := sourceScore(r.SourceType)
	recency := recencyScore(r.Timestamp)

	return textWeight*text + sourceWeight*source + recencyWeight*recency
}

// textScore measures token overlap between the query and the result's
// title+content. Substring matches count half; whole-word matches count
// full. Normalized by 1.5 × token count and clamped.
func textScore(r types.Result, query string) float64 {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return 0
	}

	haystack := strings.ToLower(r.Title + " " + r.Content)

	var raw float64
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			raw += 0.5
		}
		if wordPattern(tok).MatchString(haystack) {
			raw += 1.0
		}
	}
	return clamp(raw / (1.5 * float64(len(tokens))))
}

// queryTokens splits the query on whitespace and drops tokens of length ≤2.
func queryTokens(query string) []string {
	var tokens []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// wordPattern builds a word-boundary matcher for one token.
func wordPattern(tok string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(tok) + `\b`)
}

// sourceScore returns the fixed trust weight for a provider type.
func sourceScore(t types.ProviderType) float64 {
	if w, ok := sourceWeights[t]; ok {
		return w
	}
	return 0.5
}

// recencyScore is a step function on result age. Results without a usable
// timestamp score a neutral 0.5.
func recencyScore(ts time.Time) float64 {
	if ts.IsZero() {
		return 0.5
	}
	age := timeNow().Sub(ts)
	switch {
	case age <= 24*time.Hour:
		return 1.0
	case age <= 7*24*time.Hour:
		return 0.9
	case age <= 30*24*time.Hour:
		return 0.7
	case age <= 90*24*time.Hour:
		return 0.5
	default:
		return 0.3
	}
}

// Sort orders results by relevance descending. Scores within 0.1 of each
// other are considered tied and broken by timestamp, more recent first.
// The sort is stable, so equal keys keep their incoming order.
func Sort(results []types.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		si, sj := results[i].RelevanceScore, results[j].RelevanceScore
		if math.Abs(si-sj) <= 0.1 {
			return results[i].Timestamp.After(results[j].Timestamp)
		}
		return si > sj
	})
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
