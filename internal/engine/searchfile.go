// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/unisearch/pkg/types"
)

// SearchFile is the on-disk representation of one search and its results.
// A search can be saved to a file and reviewed later without re-querying
// providers.
type SearchFile struct {
	Query   string              `yaml:"query"`
	Mode    types.SearchMode    `yaml:"mode"`
	Options types.SearchOptions `yaml:"options"`
	Results []types.Result      `yaml:"results"`
	Summary SearchSummary       `yaml:"summary"`
}

// SearchSummary stores result statistics and a timestamp.
type SearchSummary struct {
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteSearchFile saves a search and its results to a YAML file.
func WriteSearchFile(path, query string, mode types.SearchMode, opts types.SearchOptions, results []types.Result) error {
	sf := SearchFile{
		Query:   query,
		Mode:    mode,
		Options: opts,
		Results: results,
		Summary: SearchSummary{
			Total:     len(results),
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(sf)
	if err != nil {
		return fmt.Errorf("marshaling search file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing search file %s: %w", path, err)
	}
	return nil
}

// ReadSearchFile loads a previously saved search.
func ReadSearchFile(path string) (SearchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SearchFile{}, fmt.Errorf("reading search file %s: %w", path, err)
	}
	var sf SearchFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return SearchFile{}, fmt.Errorf("parsing search file %s: %w", path, err)
	}
	return sf, nil
}
