package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/llm"
	"github.com/Veraticus/kopiyka/internal/media"
	"github.com/Veraticus/kopiyka/internal/ocr"
	"github.com/Veraticus/kopiyka/internal/server"
	"github.com/Veraticus/kopiyka/internal/sheets"
	"github.com/Veraticus/kopiyka/internal/storage"
	"github.com/Veraticus/kopiyka/internal/telegram"
)

// EnvPrefix prefixes every environment variable viper reads.
const EnvPrefix = "KOPIYKA"

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// DatabaseConfig selects the ledger backend.
type DatabaseConfig struct {
	Driver string
	DSN    string // a file path for sqlite, a connection URL for postgres
}

// TLSConfig makes the webhook server terminate HTTPS with a self-signed
// certificate that is uploaded to Telegram along with the webhook.
type TLSConfig struct {
	CertDir    string
	SelfSigned bool
}

// Config is the complete application configuration. Sections are validated
// by the components that consume them, so commands only fail on the settings
// they actually use.
type Config struct {
	Logging  LoggingConfig
	Database DatabaseConfig
	TLS      TLSConfig
	Telegram telegram.Config
	Server   server.Config
	LLM      llm.Config
	Sheets   sheets.Config
	Media    media.Config
	OCR      ocr.Config
}

// ConfigureViper applies the environment conventions to v.
func ConfigureViper(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, falling back to the conventional
// unprefixed environment variables and then to defaults.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  stringOr(v, "logging.level", "info"),
			Format: stringOr(v, "logging.format", "console"),
		},
		Database: loadDatabaseConfig(v),
		TLS: TLSConfig{
			SelfSigned: v.GetBool("server.self_signed_tls"),
			CertDir:    ExpandPath(stringOr(v, "server.cert_dir", filepath.Join(DataDir(), "certs"))),
		},
		Telegram: loadTelegramConfig(v),
		Server:   loadServerConfig(v),
		LLM:      loadLLMConfig(v),
		Sheets:   loadSheetsConfig(v),
		Media:    loadMediaConfig(v),
		OCR:      loadOCRConfig(v),
	}

	if cfg.Server.WebhookURL == "" {
		cfg.Server.WebhookURL = cfg.Telegram.WebhookURL
	}
	cfg.Server.WebhookSecret = cfg.Telegram.WebhookSecret

	switch cfg.Database.Driver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: database driver %q", common.ErrInvalidConfig, cfg.Database.Driver)
	}

	return cfg, nil
}

func loadDatabaseConfig(v *viper.Viper) DatabaseConfig {
	cfg := DatabaseConfig{
		Driver: stringOr(v, "database.driver", storage.DriverSQLite),
		DSN:    v.GetString("database.dsn"),
	}

	switch cfg.Driver {
	case storage.DriverSQLite:
		if cfg.DSN == "" {
			cfg.DSN = filepath.Join(DataDir(), "kopiyka.db")
		}
		cfg.DSN = ExpandPath(cfg.DSN)
	case storage.DriverPostgres:
		if cfg.DSN == "" {
			cfg.DSN = os.Getenv("DATABASE_URL")
		}
	}
	return cfg
}

func loadTelegramConfig(v *viper.Viper) telegram.Config {
	cfg := telegram.DefaultConfig()
	cfg.Token = stringValue(v, "telegram.token", "TELEGRAM_BOT_TOKEN")
	cfg.WebhookURL = stringValue(v, "telegram.webhook_url", "TELEGRAM_WEBHOOK_URL")
	if endpoint := v.GetString("telegram.api_endpoint"); endpoint != "" {
		cfg.APIEndpoint = endpoint
	}
	if endpoint := v.GetString("telegram.file_endpoint"); endpoint != "" {
		cfg.FileEndpoint = endpoint
	}
	cfg.WebhookSecret = stringOr(v, "telegram.webhook_secret", telegram.DeriveWebhookSecret(cfg.Token))
	if v.IsSet("telegram.timeout") {
		cfg.Timeout = v.GetDuration("telegram.timeout")
	}
	return cfg
}

func loadServerConfig(v *viper.Viper) server.Config {
	cfg := server.DefaultConfig()
	if addr := v.GetString("server.addr"); addr != "" {
		cfg.Addr = addr
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if path := v.GetString("server.webhook_path"); path != "" {
		cfg.WebhookPath = path
	}
	cfg.AdminToken = v.GetString("server.admin_token")
	cfg.WebhookURL = v.GetString("server.webhook_url")
	if v.IsSet("server.shutdown_timeout") {
		cfg.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")
	}
	return cfg
}

func loadLLMConfig(v *viper.Viper) llm.Config {
	cfg := llm.DefaultConfig()
	cfg.APIKey = stringValue(v, "llm.api_key", "OPENAI_API_KEY")
	if url := v.GetString("llm.base_url"); url != "" {
		cfg.BaseURL = url
	}
	if model := v.GetString("llm.model"); model != "" {
		cfg.Model = model
	}
	if model := v.GetString("llm.transcription_model"); model != "" {
		cfg.TranscriptionModel = model
	}
	if v.IsSet("llm.timeout") {
		cfg.Timeout = v.GetDuration("llm.timeout")
	}
	cfg.MaxTokens = v.GetInt("llm.max_tokens")
	cfg.RateLimit = v.GetInt("llm.rate_limit")
	return cfg
}

func loadMediaConfig(v *viper.Viper) media.Config {
	cfg := media.DefaultConfig()
	cfg.Dir = filepath.Join(DataDir(), "media")
	if dir := v.GetString("media.dir"); dir != "" {
		cfg.Dir = dir
	}
	cfg.Dir = ExpandPath(cfg.Dir)
	if v.IsSet("media.timeout") {
		cfg.Timeout = v.GetDuration("media.timeout")
	}
	if v.IsSet("media.max_bytes") {
		cfg.MaxBytes = v.GetInt64("media.max_bytes")
	}
	return cfg
}

func loadOCRConfig(v *viper.Viper) ocr.Config {
	cfg := ocr.DefaultConfig()
	if lang := v.GetString("ocr.language"); lang != "" {
		cfg.Language = lang
	}
	if v.IsSet("ocr.min_height") {
		cfg.MinHeight = v.GetInt("ocr.min_height")
	}
	if v.IsSet("ocr.target_height") {
		cfg.TargetHeight = v.GetInt("ocr.target_height")
	}
	return cfg
}

// stringValue reads key from viper and falls back to the first non-empty
// environment variable in env.
func stringValue(v *viper.Viper, key string, env ...string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	for _, name := range env {
		if s := os.Getenv(name); s != "" {
			return s
		}
	}
	return ""
}

func stringOr(v *viper.Viper, key, fallback string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return fallback
}
