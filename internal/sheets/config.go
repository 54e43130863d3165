// Package sheets keeps each user's expense spreadsheet in Google Sheets.
package sheets

import (
	"fmt"
	"time"
	_ "time/tzdata" // hosts without a zoneinfo database still resolve Europe/Kyiv
)

// DefaultTimeZone is the zone used for the date column.
const DefaultTimeZone = "Europe/Kyiv"

// Config holds the configuration for the spreadsheet sink.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	TimeZone           string
	TitlePrefix        string
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		TimeZone:         DefaultTimeZone,
		TitlePrefix:      "Витрати",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if _, err := c.location(); err != nil {
		return err
	}

	return nil
}

func (c *Config) location() (*time.Location, error) {
	tz := c.TimeZone
	if tz == "" {
		tz = DefaultTimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", tz, err)
	}
	return loc, nil
}
