// Package app wires configuration into a ready session and its stores.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"chat-insights-go/internal/backend"
	"chat-insights-go/internal/backend/gemini"
	"chat-insights-go/internal/backend/mock"
	"chat-insights-go/internal/backend/openai"
	"chat-insights-go/internal/config"
	"chat-insights-go/internal/history"
	"chat-insights-go/internal/logger"
	"chat-insights-go/internal/prompts"
	"chat-insights-go/internal/ratelimit"
	"chat-insights-go/internal/server"
	"chat-insights-go/internal/session"
)

type App struct {
	Config    *config.Config
	Session   *session.Session
	Prompts   *prompts.Library
	History   *history.Store // nil when HISTORY_DB is empty
	Snapshots *session.SnapshotStore

	log *logrus.Entry
}

// NewBackend picks the backend named by cfg.Provider.
func NewBackend(cfg *config.Config) (backend.Backend, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(cfg.GatewayURL, cfg.HTTPTimeout()), nil
	case config.ProviderOpenAI:
		return openai.New(cfg.GatewayURL), nil
	case config.ProviderMock:
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unsupported llm_provider %q", cfg.Provider)
	}
}

// Open builds the session for cfg and opens the prompt library and history
// database. Call Close when done.
func Open(cfg *config.Config) (*App, error) {
	log := logger.New().WithField("component", "app")

	b, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	policy := ratelimit.DefaultPolicy()
	if cfg.RateLimitsPath != "" {
		if policy, err = ratelimit.LoadPolicy(cfg.RateLimitsPath); err != nil {
			return nil, err
		}
		log.WithField("path", cfg.RateLimitsPath).Info("rate limit policy loaded")
	}
	if !knownTier(policy, cfg.Tier) {
		log.WithField("tier", cfg.Tier).Warn("unknown api tier, free tier limits apply")
	}

	lib, err := prompts.Load(cfg.PromptsPath)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config: cfg,
		Session: session.New(b, session.Options{
			Tier:            cfg.Tier,
			GroupAName:      cfg.GroupAName,
			GroupBName:      cfg.GroupBName,
			WorkingLanguage: cfg.WorkingLanguage,
			Policy:          policy,
		}),
		Prompts:   lib,
		Snapshots: session.NewSnapshotStore(cfg.SessionDir),
		log:       log.WithField("provider", cfg.Provider),
	}
	if cfg.HistoryDB != "" {
		if a.History, err = history.Open(cfg.HistoryDB); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func knownTier(p ratelimit.Policy, tier string) bool {
	for _, t := range p.Tiers() {
		if t == tier {
			return true
		}
	}
	return false
}

func (a *App) Close() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}

// RestoreLatest reloads the newest session snapshot, if any, then signs in
// with the configured key when the snapshot carried none.
func (a *App) RestoreLatest(ctx context.Context) error {
	snap, ok, err := a.Snapshots.LoadLatest()
	if err != nil {
		return err
	}
	var errs []error
	if ok {
		if err := a.Session.Restore(ctx, snap); err != nil {
			errs = append(errs, err)
		}
		a.log.WithField("chat_log", snap.ChatLogDisplay).Info("session restored")
	}
	if !a.Session.Catalog.Active() && a.Config.APIKey != "" {
		if _, err := a.Session.Authenticate(ctx, a.Config.APIKey); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SaveSnapshot persists the session and logs, rather than returns, failures.
func (a *App) SaveSnapshot() {
	path, err := a.Snapshots.Save(a.Session.Snapshot())
	if err != nil {
		a.log.WithError(err).Warn("failed to save session snapshot")
		return
	}
	a.log.WithField("path", path).Debug("session snapshot saved")
}

// Serve runs the HTTP API on addr until ctx is done.
func (a *App) Serve(ctx context.Context, addr string) error {
	h := server.New(a.Session,
		server.WithPrompts(a.Prompts),
		server.WithHistory(a.History),
		server.WithSnapshots(a.Snapshots),
	).Handler()
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
