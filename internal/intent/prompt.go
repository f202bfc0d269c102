// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/unisearch/pkg/types"
)

// resolutionPromptTmpl asks the oracle to interpret a query as a ranked
// action list over the connected providers. The model is told to emit only
// JSON, but decodeIntent tolerates surrounding prose anyway.
var resolutionPromptTmpl = template.Must(template.New("resolution").Parse(`You are a query routing system for a workplace search aggregator. Interpret the user's query and decide which provider operations to run.

Connected providers and their operations:
{{.Catalog}}
Rules:
- Only use providers from the list above.
- Each action needs: provider, operation, parameters (non-empty object), priority (integer 1-10, 10 most relevant).
- Prefer the most specific operation. "my repos" means list_owned_repositories with {"type": "owner"}; a topic search means search_repositories with {"query": "..."}.
- Issue, bug, and ticket queries map to search_issues on github and jira.
- confidence is a float between 0.0 and 1.0 for how well you understood the query.

Respond with a single JSON object and no other text:
{"originalQuery": "...", "processedQuery": "...", "intent": "...", "actions": [{"provider": "github", "operation": "search_issues", "parameters": {"query": "..."}, "priority": 8}], "confidence": 0.9}

User query: {{.Query}}
`))

// buildPrompt renders the resolution prompt for one query.
func buildPrompt(query string, connected []types.ProviderType) string {
	var buf bytes.Buffer
	err := resolutionPromptTmpl.Execute(&buf, struct {
		Catalog string
		Query   string
	}{
		Catalog: connectedCatalog(connected),
		Query:   query,
	})
	if err != nil {
		// The template is static; execution only fails on writer errors,
		// which bytes.Buffer does not produce.
		panic(err)
	}
	return buf.String()
}

// decodeIntent finds the first balanced {...} span in the oracle's output
// and unmarshals it. Oracle output is boundary input: anything outside the
// JSON object is ignored, and anything inside it is re-validated by the
// caller.
func decodeIntent(raw string) (wireIntent, error) {
	span, ok := extractJSONObject(raw)
	if !ok {
		return wireIntent{}, fmt.Errorf("no JSON object in oracle response")
	}
	var wire wireIntent
	if err := json.Unmarshal([]byte(span), &wire); err != nil {
		return wireIntent{}, fmt.Errorf("parsing oracle JSON: %w", err)
	}
	return wire, nil
}

// extractJSONObject returns the first balanced top-level JSON object in s.
// Braces inside string literals are ignored; escaped quotes are honored.
func extractJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, c := range s {
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
