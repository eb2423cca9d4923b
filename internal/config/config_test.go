package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Provider != ProviderGemini {
		t.Fatalf("expected default provider gemini, got %q", cfg.Provider)
	}
	if cfg.Tier != "Free Tier" || cfg.WorkingLanguage != "English" {
		t.Fatalf("unexpected defaults: tier=%q language=%q", cfg.Tier, cfg.WorkingLanguage)
	}
	if cfg.GroupAName != "Customer" || cfg.GroupBName != "IT Support" {
		t.Fatalf("unexpected group names %q/%q", cfg.GroupAName, cfg.GroupBName)
	}
	if cfg.HTTPTimeout() != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %s", cfg.HTTPTimeout())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("API_TIER", "Tier 1")
	t.Setenv("HTTP_TIMEOUT_SEC", "15")
	t.Setenv("GEMINI_API_KEY", "from-gemini-env")

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Fatalf("expected provider to be normalized to openai, got %q", cfg.Provider)
	}
	if cfg.Tier != "Tier 1" {
		t.Fatalf("expected tier from env, got %q", cfg.Tier)
	}
	if cfg.HTTPTimeoutSec != 15 {
		t.Fatalf("expected timeout 15, got %d", cfg.HTTPTimeoutSec)
	}
	if cfg.APIKey != "from-gemini-env" {
		t.Fatalf("expected GEMINI_API_KEY fallback, got %q", cfg.APIKey)
	}
}

func TestUseMockForcesMockProvider(t *testing.T) {
	t.Setenv("USE_MOCK_LLM", "true")
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Provider != ProviderMock {
		t.Fatalf("expected mock provider, got %q", cfg.Provider)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analyzer.yaml")
	body := strings.TrimSpace(`
api_tier: Tier 1
group_a_name: Client
group_b_name: Vendor
history_db: ""
port: "9000"
`)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9100")

	cfg, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Tier != "Tier 1" || cfg.GroupAName != "Client" || cfg.GroupBName != "Vendor" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.HistoryDB != "" {
		t.Fatalf("expected history disabled, got %q", cfg.HistoryDB)
	}
	if cfg.Port != "9100" {
		t.Fatalf("env should win over file, got port %q", cfg.Port)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{Provider: ProviderGemini, HTTPTimeoutSec: 10, GroupAName: "A", GroupBName: "B"}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider = "bard" }, true},
		{"zero timeout", func(c *Config) { c.HTTPTimeoutSec = 0 }, true},
		{"blank group", func(c *Config) { c.GroupBName = " " }, true},
		{"same groups", func(c *Config) { c.GroupBName = "a" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
