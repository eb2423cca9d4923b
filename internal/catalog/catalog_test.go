package catalog

import (
	"context"
	"errors"
	"testing"

	"chat-insights-go/internal/backend"
	"chat-insights-go/internal/backend/mock"
	"chat-insights-go/internal/types"
)

func TestListRequiresValidation(t *testing.T) {
	c := New(mock.New())
	if _, err := c.ListModels(context.Background()); !errors.Is(err, types.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	b := mock.New()
	b.ValidKey = "secret"
	c := New(b)

	var authErr *types.AuthError
	if err := c.Validate(context.Background(), "   "); !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError for blank key, got %v", err)
	}
	if err := c.Validate(context.Background(), "secret"); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !c.Active() {
		t.Fatal("catalog should be active")
	}
	if err := c.Validate(context.Background(), "other"); !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if c.Active() {
		t.Fatal("failed re-validation should deactivate the catalog")
	}
}

func TestListModelsFiltersAndSorts(t *testing.T) {
	b := mock.New()
	b.Models = []backend.ModelInfo{
		{ID: "m/zeta", DisplayName: "zeta", Methods: []string{backend.MethodGenerateContent}},
		{ID: "m/embed", DisplayName: "Embed", Methods: []string{"embedContent"}},
		{ID: "m/alpha", DisplayName: "Alpha", Methods: []string{backend.MethodGenerateContent}},
		{ID: "m/beta", DisplayName: "beta", Methods: []string{"countTokens", backend.MethodGenerateContent}},
	}
	c := New(b)
	if err := c.Validate(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	var labels []string
	for _, m := range models {
		labels = append(labels, m.DisplayLabel)
	}
	want := []string{"Alpha", "beta", "zeta"}
	if len(labels) != len(want) {
		t.Fatalf("got %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("got %v, want %v", labels, want)
		}
	}

	// a re-fetch replaces the cache wholesale
	b.Models = b.Models[:1]
	if _, err := c.ListModels(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Resolve("Alpha"); ok {
		t.Fatal("stale model still resolvable after re-fetch")
	}
	if m, ok := c.Resolve("zeta"); !ok || m.InternalID != "m/zeta" {
		t.Fatalf("Resolve(zeta) = %+v, %v", m, ok)
	}
}

func TestListModelsFetchError(t *testing.T) {
	b := mock.New()
	b.ListErr = errors.New("boom")
	c := New(b)
	_ = c.Validate(context.Background(), "k")
	var fetchErr *types.FetchError
	if _, err := c.ListModels(context.Background()); !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestResolveIsExact(t *testing.T) {
	c := New(mock.New())
	_ = c.Validate(context.Background(), "k")
	if _, err := c.ListModels(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Resolve("gemini 1.5 pro"); ok {
		t.Fatal("Resolve must not match case-insensitively")
	}
	if err := c.Select("Gemini 1.5 Pro"); err != nil {
		t.Fatal(err)
	}
	m, ok := c.Selected()
	if !ok || m.InternalID != "models/gemini-1.5-pro" {
		t.Fatalf("Selected() = %+v, %v", m, ok)
	}
	if err := c.Select("nope"); !errors.Is(err, types.ErrNoModelSelected) {
		t.Fatalf("expected ErrNoModelSelected, got %v", err)
	}
}

func TestRefreshDropsVanishedSelection(t *testing.T) {
	ctx := context.Background()
	b := mock.New()
	c := New(b)
	if err := c.Validate(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListModels(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Select("Gemini 1.5 Flash"); err != nil {
		t.Fatal(err)
	}

	b.Models = []backend.ModelInfo{
		{ID: "models/gemini-1.5-flash-002", DisplayName: "Gemini 1.5 Flash", Methods: []string{backend.MethodGenerateContent}},
	}
	if _, err := c.ListModels(ctx); err != nil {
		t.Fatal(err)
	}
	if m, ok := c.Selected(); !ok || m.InternalID != "models/gemini-1.5-flash-002" {
		t.Fatalf("selection should follow its label into the new list, got %+v", m)
	}

	b.Models = []backend.ModelInfo{
		{ID: "models/gemini-2.0-pro", DisplayName: "Gemini 2.0 Pro", Methods: []string{backend.MethodGenerateContent}},
	}
	if _, err := c.ListModels(ctx); err != nil {
		t.Fatal(err)
	}
	if m, ok := c.Selected(); ok {
		t.Fatalf("selection of a vanished model should be cleared, got %+v", m)
	}
	if _, ok := c.Resolve("Gemini 1.5 Flash"); ok {
		t.Fatal("old label should not resolve")
	}
}
