package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/Veraticus/kopiyka/internal/config"
	"github.com/Veraticus/kopiyka/internal/server"
	"github.com/Veraticus/kopiyka/internal/telegram"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Long: `Run the bot.

By default kopiyka listens for webhook deliveries on server.addr. With --poll it
removes any registered webhook and long-polls Telegram instead, which needs no
public HTTPS address.`,
		RunE: runServe,
	}

	cmd.Flags().Bool("poll", false, "Long-poll for updates instead of serving the webhook")
	cmd.Flags().Bool("set-webhook", false, "Register telegram.webhook_url before serving")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	poll, _ := cmd.Flags().GetBool("poll")
	setWebhook, _ := cmd.Flags().GetBool("set-webhook")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.Default()

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if !poll {
		if err := applySelfSignedTLS(cfg); err != nil {
			return err
		}
	}

	tg, err := telegram.NewClient(cfg.Telegram, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	handler, err := newBotHandler(ctx, cfg, store, tg, logger)
	if err != nil {
		return err
	}

	if poll {
		if err := tg.DeleteWebhook(ctx, false); err != nil {
			return err
		}
		return tg.Poll(ctx, func(ctx context.Context, update tgbotapi.Update) {
			if in, ok := telegram.ToInbound(update); ok {
				handler.Handle(ctx, in)
			}
		})
	}

	if setWebhook {
		if cfg.Telegram.WebhookURL == "" {
			return errors.New("--set-webhook needs telegram.webhook_url")
		}
		if err := tg.SetWebhook(ctx, cfg.Telegram.WebhookURL); err != nil {
			return err
		}
	}

	slog.Info("Starting kopiyka", "version", version, "bot", tg.Username(), "ledger", cfg.Database.Driver)
	return server.New(cfg.Server, handler, tg, logger).Run(ctx)
}
