package secrets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	vault "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/pkg/config"
)

func TestNewStore(t *testing.T) {
	tests := []struct {
		name        string
		provider    string
		wantErr     bool
		errContains string
	}{
		{name: "default env", provider: "", wantErr: false},
		{name: "memory", provider: "memory", wantErr: false},
		{name: "env", provider: "env", wantErr: false},
		{name: "vault", provider: "vault", wantErr: false},
		{name: "unknown provider", provider: "k8s", wantErr: true, errContains: "unsupported secret provider"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewStore(config.SecretsConfig{Provider: tc.provider})
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if tc.errContains != "" && !strings.Contains(err.Error(), tc.errContains) {
					t.Fatalf("error = %q, want contains %q", err.Error(), tc.errContains)
				}
				if store != nil {
					t.Fatalf("store should be nil when error occurs")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if store == nil {
				t.Fatalf("store should not be nil")
			}
		})
	}
}

func TestMemoryAndEnvStoreBasicContract(t *testing.T) {
	ctx := context.Background()
	stores := []Store{NewMemoryStore(), NewEnvStore()}

	for _, s := range stores {
		if err := s.Set(ctx, "DOCQA_SECRET_TEST_KEY", "value"); err != nil {
			t.Fatalf("set secret failed: %v", err)
		}
		got, err := s.Get(ctx, "DOCQA_SECRET_TEST_KEY")
		if err != nil {
			t.Fatalf("get secret failed: %v", err)
		}
		if got != "value" {
			t.Fatalf("get secret = %q, want value", got)
		}
		if err := s.Delete(ctx, "DOCQA_SECRET_TEST_KEY"); err != nil {
			t.Fatalf("delete secret failed: %v", err)
		}
		_, err = s.Get(ctx, "DOCQA_SECRET_TEST_KEY")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	}
}

func TestResolveAPIKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "GOOGLE_API_KEY", "from-store"))

	got, err := ResolveAPIKey(ctx, s, "explicit", "GOOGLE_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "explicit", got)

	got, err = ResolveAPIKey(ctx, s, "", "GOOGLE_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "from-store", got)

	_, err = ResolveAPIKey(ctx, nil, "", "GOOGLE_API_KEY")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVaultStore_GetKV2(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/docqa/GOOGLE_API_KEY" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"value":"g-key"},"metadata":{"version":1}}}`))
	}))
	defer srv.Close()

	cfg := vault.DefaultConfig()
	cfg.Address = srv.URL
	client, err := vault.NewClient(cfg)
	require.NoError(t, err)
	client.SetToken("test")

	s := newVaultStoreWithClient(client, "secret/data/docqa")
	got, err := s.Get(context.Background(), "GOOGLE_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "g-key", got)

	_, err = s.Get(context.Background(), "MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}
