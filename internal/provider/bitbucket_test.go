// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/unisearch/pkg/types"
)

func bitbucketServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	old := bitbucketAPIBase
	bitbucketAPIBase = ts.URL
	t.Cleanup(func() { bitbucketAPIBase = old })
}

func TestBitbucketListWorkspaces(t *testing.T) {
	bitbucketServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/workspaces" {
			t.Errorf("path = %s", r.URL.Path)
		}
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("user@example.com:app-pass"))
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Errorf("Authorization = %q, want email:token Basic auth", got)
		}
		w.Write([]byte(`{"values": [{"slug": "acme", "name": "Acme"}]}`))
	})

	c := &BitbucketClient{Credential: types.Credential{Email: "user@example.com", Token: "app-pass"}}
	items, err := c.Invoke(context.Background(), "list_workspaces", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(items) != 1 || items[0]["slug"] != "acme" {
		t.Errorf("items = %+v", items)
	}
}

func TestBitbucketListRepositories(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]string
		wantPath string
	}{
		{"member repos without workspace", map[string]string{}, "/repositories"},
		{"workspace repos", map[string]string{"workspace": "acme"}, "/repositories/acme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bitbucketServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.wantPath {
					t.Errorf("path = %s, want %s", r.URL.Path, tt.wantPath)
				}
				w.Write([]byte(`{"values": []}`))
			})

			c := &BitbucketClient{}
			if _, err := c.Invoke(context.Background(), "list_repositories", tt.params); err != nil {
				t.Fatalf("Invoke: %v", err)
			}
		})
	}
}

func TestBitbucketListFiles(t *testing.T) {
	bitbucketServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repositories/acme/api/src/develop/cmd" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"values": [{"path": "cmd/main.go", "type": "commit_file"}]}`))
	})

	c := &BitbucketClient{}
	items, err := c.Invoke(context.Background(), "list_files", map[string]string{
		"workspace": "acme",
		"repo_slug": "api",
		"branch":    "develop",
		"path":      "cmd",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(items) != 1 || items[0]["path"] != "cmd/main.go" {
		t.Errorf("items = %+v", items)
	}
}

func TestBitbucketListFilesRequiresRepo(t *testing.T) {
	c := &BitbucketClient{}
	if _, err := c.Invoke(context.Background(), "list_files", map[string]string{"workspace": "acme"}); err == nil {
		t.Error("expected error without repo_slug")
	}
}

func TestNewDispatch(t *testing.T) {
	for _, pt := range types.AppProviderTypes {
		client, err := New(types.Provider{Type: pt}, nil, types.HTTPConfig{})
		if err != nil {
			t.Errorf("New(%s): %v", pt, err)
			continue
		}
		if client.Type() != pt {
			t.Errorf("Type() = %s, want %s", client.Type(), pt)
		}
	}
	for _, pt := range []types.ProviderType{types.ProviderWeb, types.ProviderAI} {
		if _, err := New(types.Provider{Type: pt}, nil, types.HTTPConfig{}); err == nil {
			t.Errorf("New(%s) should refuse non-app types", pt)
		}
	}
}
