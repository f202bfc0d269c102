// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/unisearch/pkg/types"
)

// FormatTable writes results as a human-readable table to w.
func FormatTable(results []types.Result, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-12s  %-16s  %-6s\n",
		"Rank", "Title", "Source", "Author", "Score")
	fmt.Fprintln(w, strings.Repeat("-", 96))

	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-50s  %-12s  %-16s  %-6.2f\n",
			i+1,
			truncateString(r.Title, 50),
			truncateString(string(r.SourceType), 12),
			truncateString(r.Author, 16),
			r.RelevanceScore)
		if tag := r.MetadataType(); tag != "" && tag != TagAIResponse {
			fmt.Fprintf(w, "      %s\n", truncateString(r.Content, 90))
		}
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(results []types.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// truncateString shortens s to max runes, never splitting a multibyte
// character.
func truncateString(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
