package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kopiyka/internal/cli"
	"github.com/Veraticus/kopiyka/internal/config"
	"github.com/Veraticus/kopiyka/internal/telegram"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook",
	}

	set := &cobra.Command{
		Use:   "set [url]",
		Short: "Point Telegram at the webhook (default: telegram.webhook_url)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWebhookSet,
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "Show the registered webhook",
		RunE:  runWebhookInfo,
	}

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook",
		RunE:  runWebhookDelete,
	}
	del.Flags().Bool("drop-pending", false, "Discard updates Telegram has queued")

	cmd.AddCommand(set, info, del)
	return cmd
}

func telegramClient() (*telegram.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := applySelfSignedTLS(cfg); err != nil {
		return nil, nil, err
	}
	tg, err := telegram.NewClient(cfg.Telegram, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	return tg, cfg, nil
}

func runWebhookSet(cmd *cobra.Command, args []string) error {
	tg, cfg, err := telegramClient()
	if err != nil {
		return err
	}

	url := cfg.Telegram.WebhookURL
	if len(args) == 1 {
		url = args[0]
	}
	if url == "" {
		return fmt.Errorf("no webhook url: pass one or set telegram.webhook_url")
	}

	if err := tg.SetWebhook(cmd.Context(), url); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Webhook set to "+url))
	return nil
}

func runWebhookInfo(cmd *cobra.Command, _ []string) error {
	tg, _, err := telegramClient()
	if err != nil {
		return err
	}

	status, err := tg.WebhookInfo(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if status.URL == "" {
		fmt.Fprintln(out, cli.FormatWarning("No webhook registered for @"+tg.Username()))
		return nil
	}

	body := fmt.Sprintf("URL:     %s\nPending: %d", status.URL, status.PendingUpdateCount)
	if status.LastErrorMessage != "" {
		when := time.Unix(int64(status.LastErrorDate), 0).Format(time.RFC3339)
		body += fmt.Sprintf("\nError:   %s (%s)", status.LastErrorMessage, when)
	}
	fmt.Fprintln(out, cli.RenderBox("@"+tg.Username(), body))
	return nil
}

func runWebhookDelete(cmd *cobra.Command, _ []string) error {
	dropPending, _ := cmd.Flags().GetBool("drop-pending")

	tg, _, err := telegramClient()
	if err != nil {
		return err
	}

	if err := tg.DeleteWebhook(cmd.Context(), dropPending); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Webhook deleted"))
	return nil
}
