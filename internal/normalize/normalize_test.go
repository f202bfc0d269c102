// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/unisearch/pkg/types"
)

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	old := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = old })
}

func TestNormalizeDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixClock(t, now)

	r := Normalize(types.ProviderGitHub, map[string]any{})
	if r.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", r.Title, DefaultTitle)
	}
	if r.Author != DefaultAuthor {
		t.Errorf("Author = %q, want %q", r.Author, DefaultAuthor)
	}
	if r.URL != DefaultURL {
		t.Errorf("URL = %q, want %q", r.URL, DefaultURL)
	}
	if !r.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want fallback clock %v", r.Timestamp, now)
	}
	if r.SourceType != types.ProviderGitHub {
		t.Errorf("SourceType = %s, want github", r.SourceType)
	}
	if r.SourceName != "github" {
		t.Errorf("SourceName = %q, want github", r.SourceName)
	}
	if r.RelevanceScore != 0.5 {
		t.Errorf("RelevanceScore = %f, want neutral 0.5", r.RelevanceScore)
	}
	if r.ID == "" {
		t.Error("ID is empty, want derived fallback")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	fixClock(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	raw := map[string]any{
		"full_name":  "acme/widgets",
		"html_url":   "https://github.com/acme/widgets",
		"updated_at": "2026-02-20T10:30:00Z",
	}
	a := Normalize(types.ProviderGitHub, raw)
	b := Normalize(types.ProviderGitHub, raw)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated normalization differs:\n%+v\n%+v", a, b)
	}
}

func TestNormalizeGitHubRepository(t *testing.T) {
	raw := map[string]any{
		"full_name":   "acme/widgets",
		"description": "Widget factory",
		"html_url":    "https://github.com/acme/widgets",
		"updated_at":  "2026-02-20T10:30:00Z",
		"owner":       map[string]any{"login": "acme"},
	}
	r := Normalize(types.ProviderGitHub, raw)
	if r.ID != "github:acme/widgets" {
		t.Errorf("ID = %q", r.ID)
	}
	if r.Title != "acme/widgets" || r.Content != "Widget factory" || r.Author != "acme" {
		t.Errorf("fields = %q / %q / %q", r.Title, r.Content, r.Author)
	}
	want := time.Date(2026, 2, 20, 10, 30, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", r.Timestamp, want)
	}
}

func TestNormalizeGitHubIssue(t *testing.T) {
	raw := map[string]any{
		"title":    "widget crashes on load",
		"body":     "stack trace attached",
		"number":   float64(42),
		"html_url": "https://github.com/acme/widgets/issues/42",
		"user":     map[string]any{"login": "reporter"},
	}
	r := Normalize(types.ProviderGitHub, raw)
	if r.ID != "github:issue:42" {
		t.Errorf("ID = %q", r.ID)
	}
	if r.Title != "widget crashes on load" || r.Author != "reporter" {
		t.Errorf("Title = %q, Author = %q", r.Title, r.Author)
	}
}

func TestNormalizeJira(t *testing.T) {
	raw := map[string]any{
		"key":  "PROJ-7",
		"self": "https://acme.atlassian.net/rest/api/2/issue/10007",
		"fields": map[string]any{
			"summary":     "Fix login redirect",
			"description": "Users land on a blank page.",
			"updated":     "2026-02-18T09:15:30.000-0700",
			"reporter":    map[string]any{"displayName": "Dana"},
		},
	}
	r := Normalize(types.ProviderJira, raw)
	if r.ID != "jira:PROJ-7" {
		t.Errorf("ID = %q", r.ID)
	}
	if r.Title != "PROJ-7: Fix login redirect" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Author != "Dana" {
		t.Errorf("Author = %q", r.Author)
	}
	if r.Timestamp.IsZero() {
		t.Error("Timestamp not parsed from Jira layout")
	}
}

func TestNormalizeConfluenceJoinsBaseURL(t *testing.T) {
	raw := map[string]any{
		"id":    "98304",
		"title": "Release Checklist",
		"_links": map[string]any{
			"base":  "https://acme.atlassian.net/wiki",
			"webui": "/spaces/ENG/pages/98304",
		},
	}
	r := Normalize(types.ProviderConfluence, raw)
	if r.URL != "https://acme.atlassian.net/wiki/spaces/ENG/pages/98304" {
		t.Errorf("URL = %q", r.URL)
	}
	if r.ID != "confluence:98304" {
		t.Errorf("ID = %q", r.ID)
	}
}

func TestNormalizeSlack(t *testing.T) {
	raw := map[string]any{
		"text":      "deploy finished, all green",
		"ts":        "1700000000.000200",
		"username":  "deploybot",
		"permalink": "https://acme.slack.com/archives/C01/p1700000000000200",
	}
	r := Normalize(types.ProviderSlack, raw)
	if r.ID != "slack:1700000000.000200" {
		t.Errorf("ID = %q", r.ID)
	}
	want := time.Unix(1700000000, 0).UTC()
	if !r.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", r.Timestamp, want)
	}
	if r.Author != "deploybot" {
		t.Errorf("Author = %q", r.Author)
	}
}

func TestNormalizeSlackTruncatesLongTitle(t *testing.T) {
	long := strings.Repeat("x", 200)
	r := Normalize(types.ProviderSlack, map[string]any{"text": long, "ts": "1700000000.1"})
	if len(r.Title) != 80 || !strings.HasSuffix(r.Title, "...") {
		t.Errorf("Title length = %d, suffix ok = %v", len(r.Title), strings.HasSuffix(r.Title, "..."))
	}
	if r.Content != long {
		t.Error("Content should keep the full text")
	}
}

func TestNormalizeSlackTruncationRuneSafe(t *testing.T) {
	long := strings.Repeat("é", 120)
	r := Normalize(types.ProviderSlack, map[string]any{"text": long, "ts": "1700000000.1"})
	if !utf8.ValidString(r.Title) {
		t.Errorf("Title is not valid UTF-8: %q", r.Title)
	}
	if utf8.RuneCountInString(r.Title) != 80 {
		t.Errorf("rune count = %d, want 80", utf8.RuneCountInString(r.Title))
	}
	if !strings.HasSuffix(r.Title, "...") {
		t.Errorf("Title = %q, want ellipsis suffix", r.Title)
	}
}

func TestNormalizeBitbucket(t *testing.T) {
	raw := map[string]any{
		"uuid":        "{abc-123}",
		"full_name":   "acme/api",
		"description": "core API",
		"updated_on":  "2026-02-10T08:00:00Z",
		"owner":       map[string]any{"display_name": "Acme Team"},
		"links": map[string]any{
			"html": map[string]any{"href": "https://bitbucket.org/acme/api"},
		},
	}
	r := Normalize(types.ProviderBitbucket, raw)
	if r.ID != "bitbucket:{abc-123}" {
		t.Errorf("ID = %q", r.ID)
	}
	if r.Title != "acme/api" || r.URL != "https://bitbucket.org/acme/api" {
		t.Errorf("Title = %q, URL = %q", r.Title, r.URL)
	}
}

func TestNormalizeWeb(t *testing.T) {
	raw := map[string]any{
		"title":   "Go Concurrency Patterns",
		"snippet": "Pipelines and cancellation.",
		"url":     "https://go.dev/blog/pipelines",
	}
	r := Normalize(types.ProviderWeb, raw)
	if r.Title != "Go Concurrency Patterns" || r.URL != "https://go.dev/blog/pipelines" {
		t.Errorf("Title = %q, URL = %q", r.Title, r.URL)
	}
	if r.Content != "Pipelines and cancellation." {
		t.Errorf("Content = %q", r.Content)
	}
}

func TestStrDottedPath(t *testing.T) {
	raw := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": "deep"},
			"n": float64(7),
		},
		"flag": true,
	}
	tests := []struct {
		path string
		want string
	}{
		{"a.b.c", "deep"},
		{"a.n", "7"},
		{"flag", "true"},
		{"a.missing", ""},
		{"a.b.c.d", ""},
	}
	for _, tt := range tests {
		if got := str(raw, tt.path); got != tt.want {
			t.Errorf("str(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseTimeLayouts(t *testing.T) {
	tests := []struct {
		in     string
		isZero bool
	}{
		{"2026-02-20T10:30:00Z", false},
		{"2026-02-18T09:15:30.000-0700", false},
		{"2026-02-18 09:15:30", false},
		{"2026-02-18", false},
		{"not a date", true},
		{"", true},
	}
	for _, tt := range tests {
		got := parseTime(tt.in)
		if got.IsZero() != tt.isZero {
			t.Errorf("parseTime(%q).IsZero() = %v, want %v", tt.in, got.IsZero(), tt.isZero)
		}
	}
}
