// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the unisearch CLI.
// See docs/ARCHITECTURE.md § CLI Surface.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/unisearch/internal/secrets"
	"github.com/pdiddy/unisearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when non-empty, otherwise the secret
// value for key, otherwise "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the unisearch CLI.
var rootCmd = &cobra.Command{
	Use:   "unisearch",
	Short: "Unified search across workplace providers, the web, and AI models",
	Long: `unisearch aggregates results from connected providers (GitHub, Jira,
Confluence, Slack, Teams, Bitbucket), the public web, and AI models into a
single ranked answer set for a natural-language query.

Register provider connections with the connections subcommand, then run
search with a mode: apps, web, ai, or unified.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s

		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		} else {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./unisearch.yaml or ~/.config/unisearch/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("unisearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "unisearch"))
		}
	}

	viper.SetEnvPrefix("UNISEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildConfig assembles the engine configuration from viper keys, secrets,
// and defaults.
func buildConfig() types.Config {
	cfg := types.Config{
		HTTP: types.HTTPConfig{
			Timeout:   viper.GetDuration("http.timeout"),
			UserAgent: viper.GetString("http.user_agent"),
		},
		Oracle: types.OracleConfig{
			Model:       viper.GetString("oracle.model"),
			APIKey:      secretDefault("anthropic-api-key", viper.GetString("oracle.api_key")),
			Temperature: viper.GetFloat64("oracle.temperature"),
			MaxTokens:   viper.GetInt("oracle.max_tokens"),
			MaxRetries:  viper.GetInt("oracle.max_retries"),
		},
		Fanout: types.FanoutConfig{
			ActionTimeout: viper.GetDuration("fanout.action_timeout"),
			CacheSize:     viper.GetInt("fanout.cache_size"),
			CacheTTL:      viper.GetDuration("fanout.cache_ttl"),
		},
		Web: types.WebConfig{
			AllowedDomains:  viper.GetStringSlice("web.allowed_domains"),
			BlockedDomains:  viper.GetStringSlice("web.blocked_domains"),
			BlockedKeywords: viper.GetStringSlice("web.blocked_keywords"),
		},
		Registry: types.RegistryConfig{
			Path: viper.GetString("registry.path"),
		},
		Engine: types.EngineConfig{
			RequestTimeout: viper.GetDuration("engine.request_timeout"),
		},
	}

	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = 20 * time.Second
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = "unisearch/" + version
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "claude-sonnet-4-5-20250929"
	}
	cfg.Web.HTTPConfig = cfg.HTTP
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
