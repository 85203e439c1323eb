// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_FromFile(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvGoogleAPIKey, "")
	dir := t.TempDir()
	yaml := `
api:
  port: 9000
  host: "127.0.0.1"
storage:
  upload_dir: "/data/uploads"
  metadata:
    type: sqlite
    dsn: "/data/docqa.db"
log:
  level: "debug"
chunking:
  chunk_size: 500
  chunk_overlap: 50
`
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port: got %d", cfg.API.Port)
	}
	if cfg.API.Addr() != "127.0.0.1:9000" {
		t.Errorf("API.Addr: got %q", cfg.API.Addr())
	}
	if cfg.Storage.UploadDir != "/data/uploads" {
		t.Errorf("Storage.UploadDir: got %q", cfg.Storage.UploadDir)
	}
	if cfg.Storage.Metadata.Type != "sqlite" || cfg.Storage.Metadata.DSN != "/data/docqa.db" {
		t.Errorf("Storage.Metadata: got %+v", cfg.Storage.Metadata)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level: got %q", cfg.Log.Level)
	}
	if cfg.Chunking.ChunkSize != 500 || cfg.Chunking.ChunkOverlap != 50 {
		t.Errorf("Chunking: got %+v", cfg.Chunking)
	}
	// 未在文件中出现的项保持默认
	if cfg.Storage.Vector.Dir != "faiss_index" {
		t.Errorf("Storage.Vector.Dir default: got %q", cfg.Storage.Vector.Dir)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvGoogleAPIKey, "")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage.UploadDir != "uploads" {
		t.Errorf("UploadDir: got %q", cfg.Storage.UploadDir)
	}
	if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.ChunkOverlap != 100 {
		t.Errorf("Chunking: got %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 4 {
		t.Errorf("TopK: got %d", cfg.Retrieval.TopK)
	}
	if cfg.Model.Embedding.Model != "models/text-embedding-004" {
		t.Errorf("Embedding.Model: got %q", cfg.Model.Embedding.Model)
	}
	if cfg.Model.LLM.Model != "gemini-1.5-pro" {
		t.Errorf("LLM.Model: got %q", cfg.Model.LLM.Model)
	}
	if len(cfg.API.CORS.AllowOrigins) != 2 || cfg.API.CORS.AllowOrigins[1] != "http://localhost:5173" {
		t.Errorf("CORS.AllowOrigins: got %v", cfg.API.CORS.AllowOrigins)
	}
	if cfg.Model.TimeoutDuration() != 60*time.Second {
		t.Errorf("Timeout: got %v", cfg.Model.TimeoutDuration())
	}
}

func TestLoadConfig_RequiredEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://u:p@localhost:5432/docqa")
	t.Setenv(EnvGoogleAPIKey, "g-key")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage.Metadata.DSN != "postgres://u:p@localhost:5432/docqa" {
		t.Errorf("DSN: got %q", cfg.Storage.Metadata.DSN)
	}
	if cfg.Model.APIKey != "g-key" {
		t.Errorf("APIKey: got %q", cfg.Model.APIKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate_MissingEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvGoogleAPIKey, "")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	err = cfg.Validate()
	if err == nil {
		t.Fatal("Validate should fail without DB_URL and GOOGLE_API_KEY")
	}
	for _, name := range []string{EnvDatabaseURL, EnvGoogleAPIKey} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q should mention %s", err, name)
		}
	}
}

func TestValidate_MemoryRegistryNeedsNoDSN(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvGoogleAPIKey, "k")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Storage.Metadata.Type = "memory"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	cfg.Chunking.ChunkOverlap = cfg.Chunking.ChunkSize
	if err := cfg.Validate(); err == nil {
		t.Error("overlap >= size should be rejected")
	}
}

func TestReplaceEnvVars(t *testing.T) {
	t.Setenv("VAULT_TOKEN_FOR_TEST", "s.abc")
	cfg := &Config{}
	cfg.Secrets.Vault.Token = "${VAULT_TOKEN_FOR_TEST}"
	cfg.Model.LLM.APIKey = "literal"
	replaceEnvVars(cfg)
	if cfg.Secrets.Vault.Token != "s.abc" {
		t.Errorf("Vault.Token: got %q", cfg.Secrets.Vault.Token)
	}
	if cfg.Model.LLM.APIKey != "literal" {
		t.Errorf("literal value changed: %q", cfg.Model.LLM.APIKey)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DOCQA_DOTENV_PROBE=loaded\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("DOCQA_DOTENV_PROBE") })
	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if os.Getenv("DOCQA_DOTENV_PROBE") != "loaded" {
		t.Errorf("DOCQA_DOTENV_PROBE not loaded")
	}
}
