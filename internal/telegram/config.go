// Package telegram wraps the Bot API: sending replies, resolving file ids to
// download links, managing the webhook and converting updates into inbound
// messages.
package telegram

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"regexp"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Config holds the Bot API settings.
type Config struct {
	Token string
	// WebhookURL is the public address updates are delivered to.
	WebhookURL   string
	APIEndpoint  string
	FileEndpoint string
	// CertificatePath is a PEM certificate uploaded with the webhook, for
	// servers using a self-signed certificate.
	CertificatePath string
	// WebhookSecret is registered with the webhook; Telegram echoes it in
	// the X-Telegram-Bot-Api-Secret-Token header of every delivery.
	WebhookSecret string
	Timeout       time.Duration
}

var webhookSecretPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

// DeriveWebhookSecret returns a stable webhook secret for a bot token, so a
// server and a separate `webhook set` run agree without extra configuration.
func DeriveWebhookSecret(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte("kopiyka-webhook:" + token))
	return hex.EncodeToString(sum[:])
}

// DefaultConfig returns a Config pointing at the public Bot API.
func DefaultConfig() Config {
	return Config{
		APIEndpoint:  tgbotapi.APIEndpoint,
		FileEndpoint: tgbotapi.FileEndpoint,
		Timeout:      30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("telegram bot token is required")
	}
	if c.WebhookURL != "" {
		u, err := url.Parse(c.WebhookURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return errors.New("telegram webhook URL must be an absolute https URL")
		}
	}
	if c.WebhookSecret != "" && !webhookSecretPattern.MatchString(c.WebhookSecret) {
		return errors.New("telegram webhook secret must be 1-256 characters of A-Z, a-z, 0-9, _ and -")
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	return nil
}
