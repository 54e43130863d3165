package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/Veraticus/kopiyka/internal/bot"
	"github.com/Veraticus/kopiyka/internal/certs"
	"github.com/Veraticus/kopiyka/internal/config"
	"github.com/Veraticus/kopiyka/internal/extract"
	"github.com/Veraticus/kopiyka/internal/llm"
	"github.com/Veraticus/kopiyka/internal/media"
	"github.com/Veraticus/kopiyka/internal/ocr"
	"github.com/Veraticus/kopiyka/internal/service"
	"github.com/Veraticus/kopiyka/internal/sheets"
	"github.com/Veraticus/kopiyka/internal/storage"
	"github.com/Veraticus/kopiyka/internal/telegram"
)

// initStorage opens the configured ledger and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (service.Storage, error) {
	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newClassifier builds the completion client and the classifier on top of it.
func newClassifier(cfg *config.Config, logger *slog.Logger) (*llm.OpenAIClient, *llm.Classifier, error) {
	client, err := llm.NewOpenAIClient(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, llm.NewClassifier(client, logger), nil
}

// newBotHandler wires every pipeline component around the shared clients.
func newBotHandler(ctx context.Context, cfg *config.Config, store service.Storage, tg *telegram.Client, logger *slog.Logger) (*bot.Handler, error) {
	llmClient, classifier, err := newClassifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	fetcher, err := media.NewFetcher(cfg.Media, tg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create media fetcher: %w", err)
	}

	engine, err := ocr.NewEngine(cfg.OCR, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}

	sink, err := sheets.NewSink(ctx, cfg.Sheets, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create spreadsheet sink: %w", err)
	}

	return bot.NewHandler(bot.Deps{
		Users:      store,
		Ledger:     store,
		Extractor:  extract.NewExtractor(fetcher, engine, llmClient, logger),
		Classifier: classifier,
		Sink:       sink,
		Messenger:  tg,
	}, logger)
}

// applySelfSignedTLS issues the certificate for the webhook host and points
// both the server and the webhook registration at it. No-op unless enabled.
func applySelfSignedTLS(cfg *config.Config) error {
	if !cfg.TLS.SelfSigned {
		return nil
	}

	u, err := url.Parse(cfg.Telegram.WebhookURL)
	if err != nil || u.Hostname() == "" {
		return fmt.Errorf("self-signed TLS needs telegram.webhook_url")
	}

	manager := certs.NewFileManager(cfg.TLS.CertDir, u.Hostname())
	cert, err := manager.GetOrCreateCertificate()
	if err != nil {
		return fmt.Errorf("failed to prepare certificate: %w", err)
	}

	cfg.Server.TLS = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	cfg.Telegram.CertificatePath = manager.CertFile()
	slog.Info("Using self-signed certificate", "host", u.Hostname(), "file", manager.CertFile())
	return nil
}
