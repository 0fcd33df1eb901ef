package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIPort != "8080" {
		t.Fatalf("APIPort = %q", cfg.APIPort)
	}
	if cfg.NATSSubject != "documents.ingest" {
		t.Fatalf("NATSSubject = %q", cfg.NATSSubject)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Fatalf("chunking = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.RetrievalTopK != 20 || cfg.RerankTopK != 5 {
		t.Fatalf("retrieval = %d/%d", cfg.RetrievalTopK, cfg.RerankTopK)
	}
	if !cfg.SectionAware {
		t.Fatal("SectionAware must default to true")
	}
	if cfg.ChatHistoryLimit != 10 {
		t.Fatalf("ChatHistoryLimit = %d", cfg.ChatHistoryLimit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("CHUNK_SIZE", "512")
	t.Setenv("SECTION_AWARE", "false")
	t.Setenv("TOOL_RATE_LIMIT", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != "9999" {
		t.Fatalf("APIPort = %q", cfg.APIPort)
	}
	if cfg.ChunkSize != 512 {
		t.Fatalf("ChunkSize = %d", cfg.ChunkSize)
	}
	if cfg.SectionAware {
		t.Fatal("SECTION_AWARE=false not applied")
	}
	if cfg.ToolRateLimit != 2.5 {
		t.Fatalf("ToolRateLimit = %v", cfg.ToolRateLimit)
	}
}

func TestLoadBadEnvValuesFallBack(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "lots")
	t.Setenv("SECTION_AWARE", "sometimes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChunkSize != 1000 {
		t.Fatalf("ChunkSize = %d, want default for unparseable value", cfg.ChunkSize)
	}
	if !cfg.SectionAware {
		t.Fatal("SectionAware must keep its default for unparseable value")
	}
}

func TestLoadFileOverlayWinsOverEnv(t *testing.T) {
	t.Setenv("API_PORT", "9999")

	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := "api_port: \"7000\"\nrerank_top_k: 8\n"
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != "7000" {
		t.Fatalf("APIPort = %q, file overlay must win", cfg.APIPort)
	}
	if cfg.RerankTopK != 8 {
		t.Fatalf("RerankTopK = %d", cfg.RerankTopK)
	}
	if cfg.ChunkSize != 1000 {
		t.Fatalf("keys absent from the file must keep env/defaults, ChunkSize = %d", cfg.ChunkSize)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unreadable config file")
	}
}
