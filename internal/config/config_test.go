package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/storage"
	"github.com/Veraticus/kopiyka/internal/telegram"
)

// clearEnv blanks the unprefixed variables the loader falls back to.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_WEBHOOK_URL", "OPENAI_API_KEY", "DATABASE_URL", "PORT",
		"GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func newViper() *viper.Viper {
	v := viper.New()
	ConfigureViper(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(newViper())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, storage.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_DATA_HOME"), "kopiyka", "kopiyka.db"), cfg.Database.DSN)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_DATA_HOME"), "kopiyka", "media"), cfg.Media.Dir)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/webhook", cfg.Server.WebhookPath)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.Equal(t, "Europe/Kyiv", cfg.Sheets.TimeZone)
	assert.True(t, cfg.Sheets.EnableFormatting)
	assert.Equal(t, "ukr", cfg.OCR.Language)
	assert.Empty(t, cfg.Telegram.Token)
	assert.Empty(t, cfg.Server.WebhookSecret)
	assert.False(t, cfg.TLS.SelfSigned)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_DATA_HOME"), "kopiyka", "certs"), cfg.TLS.CertDir)
}

func TestLoadFromPrefixedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("KOPIYKA_TELEGRAM_TOKEN", "123:ABC")
	t.Setenv("KOPIYKA_TELEGRAM_WEBHOOK_URL", "https://bot.example.com/webhook")
	t.Setenv("KOPIYKA_LLM_API_KEY", "sk-test")
	t.Setenv("KOPIYKA_LLM_TIMEOUT", "15s")
	t.Setenv("KOPIYKA_SHEETS_ENABLE_FORMATTING", "false")
	t.Setenv("KOPIYKA_SHEETS_TIME_ZONE", "UTC")
	t.Setenv("KOPIYKA_OCR_LANGUAGE", "ukr+eng")
	t.Setenv("KOPIYKA_SERVER_ADMIN_TOKEN", "s3cret")
	t.Setenv("KOPIYKA_SERVER_SELF_SIGNED_TLS", "true")

	cfg, err := LoadFrom(newViper())
	require.NoError(t, err)

	assert.Equal(t, "123:ABC", cfg.Telegram.Token)
	assert.Equal(t, "https://bot.example.com/webhook", cfg.Telegram.WebhookURL)
	assert.Equal(t, "https://bot.example.com/webhook", cfg.Server.WebhookURL)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.False(t, cfg.Sheets.EnableFormatting)
	assert.Equal(t, "UTC", cfg.Sheets.TimeZone)
	assert.Equal(t, "ukr+eng", cfg.OCR.Language)
	assert.Equal(t, "s3cret", cfg.Server.AdminToken)
	assert.True(t, cfg.TLS.SelfSigned)
	assert.Equal(t, telegram.DeriveWebhookSecret("123:ABC"), cfg.Telegram.WebhookSecret)
	assert.Equal(t, cfg.Telegram.WebhookSecret, cfg.Server.WebhookSecret)
}

func TestExplicitWebhookSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("KOPIYKA_TELEGRAM_TOKEN", "123:ABC")
	t.Setenv("KOPIYKA_TELEGRAM_WEBHOOK_SECRET", "rotated-secret")

	cfg, err := LoadFrom(newViper())
	require.NoError(t, err)
	assert.Equal(t, "rotated-secret", cfg.Telegram.WebhookSecret)
	assert.Equal(t, "rotated-secret", cfg.Server.WebhookSecret)
}

func TestLoadFallsBackToConventionalEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "999:XYZ")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "client")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "refresh")
	t.Setenv("PORT", "9000")

	cfg, err := LoadFrom(newViper())
	require.NoError(t, err)

	assert.Equal(t, "999:XYZ", cfg.Telegram.Token)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, "client", cfg.Sheets.ClientID)
	assert.Equal(t, "secret", cfg.Sheets.ClientSecret)
	assert.Equal(t, "refresh", cfg.Sheets.RefreshToken)
	assert.NoError(t, cfg.Sheets.Validate())
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestViperTakesPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")

	v := newViper()
	v.Set("llm.api_key", "sk-config")
	v.Set("server.addr", "127.0.0.1:7000")
	t.Setenv("PORT", "9000")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-config", cfg.LLM.APIKey)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
}

func TestLoadDatabase(t *testing.T) {
	tests := []struct {
		settings   map[string]string
		env        map[string]string
		name       string
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{
		{
			name:       "explicit sqlite path",
			settings:   map[string]string{"database.dsn": "$KOPIYKA_TEST_DIR/ledger.db"},
			env:        map[string]string{"KOPIYKA_TEST_DIR": "/srv/data"},
			wantDriver: storage.DriverSQLite,
			wantDSN:    "/srv/data/ledger.db",
		},
		{
			name:       "postgres from DATABASE_URL",
			settings:   map[string]string{"database.driver": "postgres"},
			env:        map[string]string{"DATABASE_URL": "postgres://kopiyka@db/kopiyka"},
			wantDriver: storage.DriverPostgres,
			wantDSN:    "postgres://kopiyka@db/kopiyka",
		},
		{
			name:       "postgres dsn from config",
			settings:   map[string]string{"database.driver": "postgres", "database.dsn": "postgres://cfg@db/k"},
			env:        map[string]string{"DATABASE_URL": "postgres://env@db/k"},
			wantDriver: storage.DriverPostgres,
			wantDSN:    "postgres://cfg@db/k",
		},
		{
			name:     "unknown driver",
			settings: map[string]string{"database.driver": "mysql"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, val := range tt.env {
				t.Setenv(k, val)
			}
			v := newViper()
			for k, val := range tt.settings {
				v.Set(k, val)
			}

			cfg, err := LoadFrom(v)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, cfg.Database.Driver)
			assert.Equal(t, tt.wantDSN, cfg.Database.DSN)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("KOPIYKA_TEST_VAR", "value")

	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "~", want: home},
		{input: "~/data/kopiyka.db", want: filepath.Join(home, "data", "kopiyka.db")},
		{input: "/abs/$KOPIYKA_TEST_VAR/x", want: "/abs/value/x"},
		{input: "relative/path", want: "relative/path"},
		{input: "~user/path", want: "~user/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg")
	assert.Equal(t, "/xdg/kopiyka", DataDir())

	t.Setenv("XDG_DATA_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", "kopiyka"), DataDir())
}
