package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	neturl "net/url"
	"path"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Veraticus/kopiyka/internal/service"
)

// Client implements service.Messenger and service.FileResolver on the Bot API.
type Client struct {
	api          *tgbotapi.BotAPI
	logger       *slog.Logger
	token        string
	fileEndpoint string
	certificate  string
	secret       string
}

// WebhookStatus is what the Bot API reports about the current webhook.
type WebhookStatus struct {
	URL                string
	LastErrorMessage   string
	PendingUpdateCount int
	LastErrorDate      int
}

// NewClient connects to the Bot API and verifies the token.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultConfig()
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = defaults.APIEndpoint
	}
	if cfg.FileEndpoint == "" {
		cfg.FileEndpoint = defaults.FileEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.APIEndpoint, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	api.Debug = false

	logger.Debug("connected to telegram", "username", api.Self.UserName)

	return &Client{
		api:          api,
		logger:       logger,
		token:        cfg.Token,
		fileEndpoint: cfg.FileEndpoint,
		certificate:  cfg.CertificatePath,
		secret:       cfg.WebhookSecret,
	}, nil
}

// Username returns the bot's username.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// SendText sends a plain text message to a chat.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

// ResolveFile turns a file id into a temporary download link.
func (c *Client) ResolveFile(ctx context.Context, fileID string) (service.RemoteFile, error) {
	if err := ctx.Err(); err != nil {
		return service.RemoteFile{}, err
	}
	if fileID == "" {
		return service.RemoteFile{}, errors.New("file id is required")
	}

	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return service.RemoteFile{}, fmt.Errorf("failed to resolve file %s: %w", fileID, err)
	}
	if file.FilePath == "" {
		return service.RemoteFile{}, fmt.Errorf("file %s has no download path", fileID)
	}

	return service.RemoteFile{
		Path: path.Clean(file.FilePath),
		URL:  fmt.Sprintf(c.fileEndpoint, c.token, file.FilePath),
	}, nil
}

// SetWebhook registers url as the update destination along with the webhook
// secret, uploading the self-signed certificate when one is configured.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := neturl.Parse(url); err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}

	// tgbotapi.WebhookConfig has no secret_token field.
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", c.secret)

	var err error
	if c.certificate != "" {
		_, err = c.api.UploadFiles("setWebhook", params, []tgbotapi.RequestFile{
			{Name: "certificate", Data: tgbotapi.FilePath(c.certificate)},
		})
	} else {
		_, err = c.api.MakeRequest("setWebhook", params)
	}
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	c.logger.Info("webhook registered", "url", url, "self_signed", c.certificate != "", "secret", c.secret != "")
	return nil
}

// WebhookInfo reports the currently registered webhook.
func (c *Client) WebhookInfo(ctx context.Context) (WebhookStatus, error) {
	if err := ctx.Err(); err != nil {
		return WebhookStatus{}, err
	}

	info, err := c.api.GetWebhookInfo()
	if err != nil {
		return WebhookStatus{}, fmt.Errorf("failed to get webhook info: %w", err)
	}

	return WebhookStatus{
		URL:                info.URL,
		PendingUpdateCount: info.PendingUpdateCount,
		LastErrorDate:      info.LastErrorDate,
		LastErrorMessage:   info.LastErrorMessage,
	}, nil
}

// DeleteWebhook removes the webhook so updates can be polled instead.
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	c.logger.Info("webhook deleted", "drop_pending", dropPending)
	return nil
}

// Poll long-polls for updates and hands each one to handle until ctx is done.
// The webhook must not be set while polling.
func (c *Client) Poll(ctx context.Context, handle func(context.Context, tgbotapi.Update)) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := c.api.GetUpdatesChan(cfg)
	defer c.api.StopReceivingUpdates()

	c.logger.Info("polling for updates", "username", c.Username())

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			handle(ctx, update)
		}
	}
}
