package config

import (
	"github.com/spf13/viper"

	"github.com/Veraticus/kopiyka/internal/sheets"
)

// loadSheetsConfig reads Google Sheets settings. Precedence:
// 1. Viper configuration (config file or KOPIYKA_SHEETS_* env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func loadSheetsConfig(v *viper.Viper) sheets.Config {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(stringValue(v, "sheets.service_account_path", "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"))
	config.ClientID = stringValue(v, "sheets.client_id", "GOOGLE_SHEETS_CLIENT_ID")
	config.ClientSecret = stringValue(v, "sheets.client_secret", "GOOGLE_SHEETS_CLIENT_SECRET")
	config.RefreshToken = stringValue(v, "sheets.refresh_token", "GOOGLE_SHEETS_REFRESH_TOKEN")

	if tz := v.GetString("sheets.time_zone"); tz != "" {
		config.TimeZone = tz
	}
	if prefix := v.GetString("sheets.title_prefix"); prefix != "" {
		config.TitlePrefix = prefix
	}
	if v.IsSet("sheets.enable_formatting") {
		config.EnableFormatting = v.GetBool("sheets.enable_formatting")
	}

	return config
}
