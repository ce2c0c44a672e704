package config

import (
	"testing"

	"github.com/Veraticus/the-paper-trail/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSheetsConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-client")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "env-secret")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "env-token")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "env-sheet")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "")

	viper.Set("sheets.spreadsheet_id", "configured-sheet")
	viper.Set("sheets.timezone", "UTC")

	cfg, err := LoadSheetsConfig()
	require.NoError(t, err)
	assert.Equal(t, "env-client", cfg.ClientID)
	assert.Equal(t, "configured-sheet", cfg.SpreadsheetID)
	assert.Equal(t, "UTC", cfg.TimeZone)
	assert.Equal(t, "Paper Trail Ledger", cfg.SpreadsheetName)
}

func TestLoadSheetsConfigWithoutCredentials(t *testing.T) {
	t.Cleanup(viper.Reset)
	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
	} {
		t.Setenv(key, "")
	}

	_, err := LoadSheetsConfig()
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}
