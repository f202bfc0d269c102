// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts provider-specific payloads into the canonical
// Result record. Normalization is pure: identical input yields identical
// output, except the timestamp fallback for payloads carrying no date.
// See docs/ARCHITECTURE.md § Normalization.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/unisearch/pkg/types"
)

// Defaults applied when a payload lacks a canonical field.
const (
	DefaultTitle  = "Untitled"
	DefaultAuthor = "Unknown"
	DefaultURL    = "#"
)

// neutralScore is the placeholder relevance before scoring runs.
const neutralScore = 0.5

// timeNow is the timestamp fallback clock. Tests override it for
// reproducible output.
var timeNow = time.Now

// timestampLayouts are tried in order when parsing provider date strings.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700", // Jira
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize maps one raw payload item from the given provider onto the
// canonical Result shape. Missing fields get defined defaults; the
// relevance score is initialized to a neutral 0.5 placeholder.
func Normalize(providerType types.ProviderType, raw map[string]any) types.Result {
	var r types.Result
	switch providerType {
	case types.ProviderGitHub:
		r = normalizeGitHub(raw)
	case types.ProviderJira:
		r = normalizeJira(raw)
	case types.ProviderConfluence:
		r = normalizeConfluence(raw)
	case types.ProviderSlack:
		r = normalizeSlack(raw)
	case types.ProviderTeams:
		r = normalizeTeams(raw)
	case types.ProviderBitbucket:
		r = normalizeBitbucket(raw)
	case types.ProviderWeb:
		r = normalizeWeb(raw)
	default:
		r = types.Result{
			Title:   str(raw, "title"),
			Content: str(raw, "content"),
			URL:     str(raw, "url"),
		}
	}

	r.SourceType = providerType
	if r.SourceName == "" {
		r.SourceName = string(providerType)
	}
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.Author == "" {
		r.Author = DefaultAuthor
	}
	if r.URL == "" {
		r.URL = DefaultURL
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = timeNow()
	}
	if r.ID == "" {
		r.ID = deriveID(providerType, r.URL, r.Title)
	}
	r.RelevanceScore = neutralScore
	return r
}

func normalizeGitHub(raw map[string]any) types.Result {
	r := types.Result{
		URL:       str(raw, "html_url"),
		Timestamp: parseTime(str(raw, "updated_at")),
	}
	// Repositories carry full_name; issues and code hits carry title/name.
	if fullName := str(raw, "full_name"); fullName != "" {
		r.Title = fullName
		r.Content = str(raw, "description")
		r.Author = str(raw, "owner.login")
		r.ID = "github:" + fullName
	} else {
		r.Title = str(raw, "title")
		if r.Title == "" {
			r.Title = str(raw, "name")
		}
		r.Content = str(raw, "body")
		r.Author = str(raw, "user.login")
		if num := str(raw, "number"); num != "" {
			r.ID = "github:issue:" + num
		}
	}
	return r
}

func normalizeJira(raw map[string]any) types.Result {
	key := str(raw, "key")
	title := str(raw, "fields.summary")
	if key != "" && title != "" {
		title = key + ": " + title
	}
	return types.Result{
		ID:        "jira:" + key,
		Title:     title,
		Content:   str(raw, "fields.description"),
		Author:    firstOf(str(raw, "fields.reporter.displayName"), str(raw, "fields.creator.displayName")),
		Timestamp: parseTime(str(raw, "fields.updated")),
		URL:       str(raw, "self"),
	}
}

func normalizeConfluence(raw map[string]any) types.Result {
	url := str(raw, "_links.webui")
	if base := str(raw, "_links.base"); base != "" && url != "" {
		url = base + url
	}
	return types.Result{
		ID:        "confluence:" + str(raw, "id"),
		Title:     str(raw, "title"),
		Content:   firstOf(str(raw, "excerpt"), str(raw, "body.view.value")),
		Author:    str(raw, "history.createdBy.displayName"),
		Timestamp: parseTime(str(raw, "history.lastUpdated.when")),
		URL:       url,
	}
}

func normalizeSlack(raw map[string]any) types.Result {
	text := str(raw, "text")
	title := text
	if r := []rune(title); len(r) > 80 {
		title = string(r[:77]) + "..."
	}
	return types.Result{
		ID:        "slack:" + str(raw, "ts"),
		Title:     title,
		Content:   text,
		Author:    str(raw, "username"),
		Timestamp: parseSlackTS(str(raw, "ts")),
		URL:       str(raw, "permalink"),
	}
}

func normalizeTeams(raw map[string]any) types.Result {
	return types.Result{
		ID:        "teams:" + str(raw, "id"),
		Title:     firstOf(str(raw, "subject"), str(raw, "summary")),
		Content:   str(raw, "bodyPreview"),
		Author:    str(raw, "from.user.displayName"),
		Timestamp: parseTime(str(raw, "lastModifiedDateTime")),
		URL:       str(raw, "webUrl"),
	}
}

func normalizeBitbucket(raw map[string]any) types.Result {
	return types.Result{
		ID:        "bitbucket:" + firstOf(str(raw, "uuid"), str(raw, "full_name")),
		Title:     firstOf(str(raw, "full_name"), str(raw, "name"), str(raw, "path")),
		Content:   str(raw, "description"),
		Author:    str(raw, "owner.display_name"),
		Timestamp: parseTime(str(raw, "updated_on")),
		URL:       str(raw, "links.html.href"),
	}
}

func normalizeWeb(raw map[string]any) types.Result {
	return types.Result{
		Title:   str(raw, "title"),
		Content: firstOf(str(raw, "snippet"), str(raw, "content")),
		URL:     str(raw, "url"),
	}
}

// str walks a dotted path through nested maps and returns the value at the
// end as a string. Numbers are formatted without an exponent; missing or
// non-scalar values yield "".
func str(raw map[string]any, path string) string {
	parts := strings.Split(path, ".")
	var cur any = raw
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = m[p]
		if !ok {
			return ""
		}
	}
	switch v := cur.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// firstOf returns the first non-empty string.
func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseTime tries the known provider timestamp layouts. A value that
// matches none of them yields the zero time, which Normalize replaces
// with the fallback clock.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseSlackTS parses Slack's epoch-seconds message timestamp (e.g. "1700000000.000200").
func parseSlackTS(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	sec := ts
	if idx := strings.Index(ts, "."); idx >= 0 {
		sec = ts[:idx]
	}
	n, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}

// deriveID builds a deterministic result ID from stable payload fields so
// normalization stays idempotent.
func deriveID(providerType types.ProviderType, url, title string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", providerType, url, title)))
	return string(providerType) + ":" + hex.EncodeToString(sum[:8])
}
