// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/unisearch/internal/provider"
	"github.com/pdiddy/unisearch/internal/registry"
	"github.com/pdiddy/unisearch/pkg/types"
)

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Manage provider connections",
	Long: `Connections registers, lists, and removes provider connections. The
search engine only reads the registry; all mutation happens here.`,
}

var connectionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a provider connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ptype, _ := cmd.Flags().GetString("type")
		name, _ := cmd.Flags().GetString("name")
		token, _ := cmd.Flags().GetString("token")
		email, _ := cmd.Flags().GetString("email")
		baseURL, _ := cmd.Flags().GetString("base-url")

		t := types.ProviderType(strings.ToLower(ptype))
		if !types.IsAppProvider(t) {
			return fmt.Errorf("unknown provider type %q (expected one of: %s)", ptype, appProviderNames())
		}
		if name == "" {
			name = string(t)
		}

		p := types.Provider{
			ID:     uuid.NewString(),
			Type:   t,
			Name:   name,
			Status: types.StatusConnected,
			Credential: types.Credential{
				Token:   secretDefault(string(t)+"-token", token),
				Email:   secretDefault(string(t)+"-email", email),
				BaseURL: baseURL,
			},
			Capabilities: provider.Catalog[t],
			CreatedAt:    time.Now().UTC(),
		}
		if p.Credential.Token == "" {
			return fmt.Errorf("no token: pass --token or create .secrets/%s-token", t)
		}

		store, err := registry.Open(buildConfig().Registry)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Add(p); err != nil {
			return err
		}
		fmt.Printf("Added %s connection %q (%s)\n", p.Type, p.Name, p.ID)
		return nil
	},
}

var connectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := registry.Open(buildConfig().Registry)
		if err != nil {
			return err
		}
		defer store.Close()

		version, providers, err := store.Snapshot()
		if err != nil {
			return err
		}
		if len(providers) == 0 {
			fmt.Println("No connections registered.")
			return nil
		}

		fmt.Printf("%-38s  %-12s  %-16s  %-12s\n", "ID", "Type", "Name", "Status")
		fmt.Println(strings.Repeat("-", 84))
		for _, p := range providers {
			fmt.Printf("%-38s  %-12s  %-16s  %-12s\n", p.ID, p.Type, p.Name, p.Status)
		}
		fmt.Fprintf(os.Stderr, "\nregistry version %d\n", version)
		return nil
	},
}

var connectionsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := registry.Open(buildConfig().Registry)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed connection %s\n", args[0])
		return nil
	},
}

func appProviderNames() string {
	names := make([]string, len(types.AppProviderTypes))
	for i, t := range types.AppProviderTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func init() {
	connectionsAddCmd.Flags().String("type", "", "provider type (github, jira, confluence, slack, teams, bitbucket)")
	connectionsAddCmd.Flags().String("name", "", "label for the connection (default: the provider type)")
	connectionsAddCmd.Flags().String("token", "", "API token (default: .secrets/<type>-token)")
	connectionsAddCmd.Flags().String("email", "", "account email for Basic-auth providers (default: .secrets/<type>-email)")
	connectionsAddCmd.Flags().String("base-url", "", "API base URL for self-hosted instances")
	connectionsAddCmd.MarkFlagRequired("type")

	connectionsCmd.AddCommand(connectionsAddCmd)
	connectionsCmd.AddCommand(connectionsListCmd)
	connectionsCmd.AddCommand(connectionsRemoveCmd)
	rootCmd.AddCommand(connectionsCmd)
}
