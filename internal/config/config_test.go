package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  env: prod\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":8580", cfg.App.HTTPAddr)
	assert.Equal(t, "1h", cfg.Scan.Interval)
	assert.Equal(t, 200, cfg.Scan.CandleLimit)
	assert.Equal(t, 20, cfg.Scan.Concurrency)
	assert.Equal(t, 14, cfg.Indicator.RSIPeriod)
	assert.Equal(t, 1_000_000.0, cfg.Filter.MinTradeVolume)
	assert.Equal(t, 20, cfg.Order.Leverage)
	assert.Equal(t, 3, cfg.Order.PerScanLimit)
	assert.Equal(t, "data/perpscan.db", cfg.Store.Path)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
scan:
  interval: 15m
  concurrency: 8
order:
  leverage: 5
  per_scan_limit: 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "15m", cfg.Scan.Interval)
	assert.Equal(t, 8, cfg.Scan.Concurrency)
	assert.Equal(t, 5, cfg.Order.Leverage)
	assert.Equal(t, 1, cfg.Order.PerScanLimit)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	path := writeConfig(t, "scan:\n  interval: 90x\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan.interval")
}

func TestLoadRejectsInvertedMACD(t *testing.T) {
	path := writeConfig(t, "indicator:\n  macd_fast: 30\n  macd_slow: 26\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "macd_fast")
}

func TestLoadRejectsExcessiveLeverage(t *testing.T) {
	path := writeConfig(t, "order:\n  leverage: 200\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leverage")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesCredentials(t *testing.T) {
	t.Setenv("PERPSCAN_API_KEY", "env-key")
	t.Setenv("PERPSCAN_API_SECRET", "env-secret")
	path := writeConfig(t, "exchange:\n  api_key: file-key\n  api_secret: file-secret\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Exchange.APIKey)
	assert.Equal(t, "env-secret", cfg.Exchange.APISecret)
}

func TestActiveKeysSelectsEndpoint(t *testing.T) {
	e := ExchangeConfig{
		APIKey: "main-k", APISecret: "main-s",
		TestAPIKey: "test-k", TestAPISecret: "test-s",
	}
	k, s := e.ActiveKeys()
	assert.Equal(t, "main-k", k)
	assert.Equal(t, "main-s", s)

	e.Testnet = true
	k, s = e.ActiveKeys()
	assert.Equal(t, "test-k", k)
	assert.Equal(t, "test-s", s)
}

func TestExampleYAMLRoundTrips(t *testing.T) {
	body, err := ExampleYAML()
	require.NoError(t, err)
	assert.Contains(t, body, "interval: 1h")
	assert.Contains(t, body, "leverage: 20")

	path := writeConfig(t, body)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Scan.CandleLimit)
}
