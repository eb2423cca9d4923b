package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"chat-insights-go/internal/backend/gemini"
	"chat-insights-go/internal/backend/mock"
	"chat-insights-go/internal/backend/openai"
	"chat-insights-go/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Provider:        config.ProviderMock,
		APIKey:          "k",
		Tier:            "Free Tier",
		WorkingLanguage: "English",
		SessionDir:      filepath.Join(dir, "sessions"),
		PromptsPath:     filepath.Join(dir, "prompts.json"),
		HistoryDB:       filepath.Join(dir, "analyzer.db"),
		GroupAName:      "Customer",
		GroupBName:      "IT Support",
		HTTPTimeoutSec:  5,
		Port:            "0",
	}
}

func TestNewBackend(t *testing.T) {
	cfg := testConfig(t)
	tests := []struct {
		provider string
		check    func(any) bool
	}{
		{config.ProviderGemini, func(b any) bool { _, ok := b.(*gemini.Client); return ok }},
		{config.ProviderOpenAI, func(b any) bool { _, ok := b.(*openai.Client); return ok }},
		{config.ProviderMock, func(b any) bool { _, ok := b.(*mock.Backend); return ok }},
	}
	for _, tt := range tests {
		cfg.Provider = tt.provider
		b, err := NewBackend(cfg)
		if err != nil || !tt.check(b) {
			t.Fatalf("%s: unexpected backend %T, err %v", tt.provider, b, err)
		}
	}
	cfg.Provider = "bard"
	if _, err := NewBackend(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestOpenRestoreAndSnapshot(t *testing.T) {
	cfg := testConfig(t)
	a, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()
	if a.History == nil {
		t.Fatal("history store should be open")
	}

	ctx := context.Background()
	if err := a.RestoreLatest(ctx); err != nil {
		t.Fatalf("RestoreLatest: %v", err)
	}
	if !a.Session.Catalog.Active() || len(a.Session.Catalog.Models()) != 2 {
		t.Fatalf("configured key should sign in, models=%v", a.Session.Catalog.Models())
	}
	if err := a.Session.Catalog.Select("Gemini 1.5 Flash"); err != nil {
		t.Fatal(err)
	}
	a.SaveSnapshot()

	entries, err := os.ReadDir(cfg.SessionDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one snapshot, got %v (%v)", entries, err)
	}

	b, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if err := b.RestoreLatest(ctx); err != nil {
		t.Fatalf("RestoreLatest: %v", err)
	}
	if m, ok := b.Session.Catalog.Selected(); !ok || m.DisplayLabel != "Gemini 1.5 Flash" {
		t.Fatalf("selected model not restored: %+v", m)
	}
}

func TestOpenRejectsBadPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.HistoryDB = ""
	cfg.RateLimitsPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Open(cfg); err == nil {
		t.Fatal("expected error for missing policy file")
	}
}
