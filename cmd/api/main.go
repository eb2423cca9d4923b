package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chat-insights-go/internal/app"
	"chat-insights-go/internal/config"
	"chat-insights-go/internal/logger"
)

func main() {
	log := logger.New()
	log.WithField("service", "chat-insights-go").Info("starting service")

	cfg, err := config.Load(nil, os.Getenv("ANALYZER_CONFIG"))
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	a, err := app.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open analyzer")
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.RestoreLatest(ctx); err != nil {
		log.WithError(err).Warn("session restore incomplete")
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	if err := a.Serve(ctx, addr); err != nil {
		log.WithError(err).Fatal("server terminated")
	}
}
