package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("REDIS_HOST", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr, got %s", cfg.Server.Addr)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("expected gemini default, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.MaxTokens != 1024 {
		t.Errorf("expected default max tokens, got %d", cfg.LLM.MaxTokens)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  addr: ":9000"
llm:
  provider: openai
  openai_key: from-file
redis:
  addr: "localhost:6380"
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr from file, got %s", cfg.Server.Addr)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.OpenAIKey != "from-file" {
		t.Errorf("llm config not loaded: %+v", cfg.LLM)
	}
	if cfg.Redis.Addr != "localhost:6380" {
		t.Errorf("redis config not loaded: %+v", cfg.Redis)
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "env-key")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.GeminiKey != "env-key" {
		t.Errorf("expected key from env, got %q", cfg.LLM.GeminiKey)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("expected redis addr from env with default port, got %q", cfg.Redis.Addr)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.LLM.Provider = "gemini"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing gemini key")
	}

	cfg.LLM.GeminiKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.LLM.Provider = "llama"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
