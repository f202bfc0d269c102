// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/unisearch/internal/engine"
	"github.com/pdiddy/unisearch/internal/fanout"
	"github.com/pdiddy/unisearch/internal/intent"
	"github.com/pdiddy/unisearch/internal/oracle"
	"github.com/pdiddy/unisearch/internal/registry"
	"github.com/pdiddy/unisearch/internal/webfetch"
	"github.com/pdiddy/unisearch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search connected providers, the web, or AI models",
	Long: `Search runs one query through the selected mode:

  apps     resolve the query into provider actions and fan them out
  web      query the public web with domain and policy filtering
  ai       ask the configured AI models for generative answers
  unified  run all three concurrently and merge the ranked results`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]
		cfg := buildConfig()

		mode, _ := cmd.Flags().GetString("mode")
		limit, _ := cmd.Flags().GetInt("limit")
		models, _ := cmd.Flags().GetStringSlice("model")
		temperature, _ := cmd.Flags().GetFloat64("temperature")
		allowDomains, _ := cmd.Flags().GetStringSlice("allow-domain")
		blockDomains, _ := cmd.Flags().GetStringSlice("block-domain")
		sources, _ := cmd.Flags().GetStringSlice("source")
		asJSON, _ := cmd.Flags().GetBool("json")
		outFile, _ := cmd.Flags().GetString("out")

		opts := types.SearchOptions{
			AIModels:       models,
			AllowedDomains: allowDomains,
			BlockedDomains: blockDomains,
			Limit:          limit,
		}
		// Only an explicitly passed flag overrides the configured
		// temperature, so --temperature 0 is expressible.
		if cmd.Flags().Changed("temperature") {
			opts.Temperature = &temperature
		}
		for _, s := range sources {
			opts.Sources = append(opts.Sources, types.ProviderType(s))
		}

		store, err := registry.Open(cfg.Registry)
		if err != nil {
			return err
		}
		defer store.Close()

		httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
		logger := slog.Default()

		var oc oracle.Client
		if cfg.Oracle.APIKey != "" {
			oc = oracle.NewClaudeClient(cfg.Oracle, httpClient)
		}

		eng := engine.New(
			store,
			intent.NewResolver(oc, logger),
			fanout.New(cfg.Fanout, cfg.HTTP, httpClient, logger),
			&webfetch.DuckDuckGoBackend{Client: httpClient},
			oc,
			cfg,
			logger,
		)

		results, err := eng.Search(cmd.Context(), query, types.SearchMode(mode), opts)
		if err != nil {
			return err
		}

		if outFile != "" {
			if err := engine.WriteSearchFile(outFile, query, types.SearchMode(mode), opts, results); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved search to %s\n", outFile)
		}

		if asJSON {
			return engine.FormatJSON(results, os.Stdout)
		}
		engine.FormatTable(results, os.Stdout)
		return nil
	},
}

func init() {
	searchCmd.Flags().String("mode", "unified", "search mode: apps, web, ai, or unified")
	searchCmd.Flags().Int("limit", 0, "maximum number of results (0 means the mode default)")
	searchCmd.Flags().StringSlice("model", nil, "AI model to query in ai mode (repeatable)")
	searchCmd.Flags().Float64("temperature", 0, "sampling temperature for AI answers")
	searchCmd.Flags().StringSlice("allow-domain", nil, "restrict web results to this domain (repeatable)")
	searchCmd.Flags().StringSlice("block-domain", nil, "exclude web results from this domain (repeatable)")
	searchCmd.Flags().StringSlice("source", nil, "restrict apps results to this provider type (repeatable)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("out", "", "save the search and results to a YAML file")

	rootCmd.AddCommand(searchCmd)
}
