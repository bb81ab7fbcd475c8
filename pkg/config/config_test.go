package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 5*time.Second, c.Cache.QuoteTTL)
	assert.Equal(t, 5*time.Minute, c.Cache.AssetListTTL)
	assert.Equal(t, 5, c.Cache.BatchParallelism)
	assert.Equal(t, "https://api.twelvedata.com", c.Vendor.BaseURL)
	assert.Equal(t, "sqlite", c.Store.Driver)
	assert.Equal(t, "0 */5 * * * *", c.Cron.UpdatePrices)
	assert.Equal(t, "info", c.Logger.Level)
	assert.Empty(t, c.Vendor.APIKey)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: production
server:
  port: 9090
vendor:
  api_key: from-file
  timeout: 3s
cache:
  quote_ttl: 2s
pricing:
  spread_bps:
    forex: 1.5
seed_assets:
  - symbol: EURUSD
    class: forex
    precision: 5
  - symbol: BTCUSD
    class: crypto
    active: false
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "from-file", c.Vendor.APIKey)
	assert.Equal(t, 3*time.Second, c.Vendor.Timeout)
	assert.Equal(t, 2*time.Second, c.Cache.QuoteTTL)
	assert.Equal(t, 1.5, c.Pricing.SpreadBps["forex"])

	require.Len(t, c.SeedAssets, 2)
	assert.Equal(t, 5, c.SeedAssets[0].Precision)
	assert.True(t, c.SeedAssets[0].IsActive())
	assert.Equal(t, 2, c.SeedAssets[1].Precision)
	assert.Equal(t, 1.0, c.SeedAssets[1].LotSize)
	assert.False(t, c.SeedAssets[1].IsActive())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"bad driver":      "store:\n  driver: mysql\n",
		"bad seed class":  "seed_assets:\n  - symbol: X\n    class: bond\n",
		"bad port":        "server:\n  port: 70000\n",
		"kafka no broker": "kafka:\n  enabled: true\n",
		"negative spread": "pricing:\n  spread_bps:\n    stock: -1\n",
		"bad log level":   "logger:\n  level: loud\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c, err := load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	env := map[string]string{
		"TWELVE_DATA_API_KEY": "secret-key",
		"DATABASE_URL":        "postgres://u:p@db:5432/app",
		"CRON_SECRET":         "s3cret",
		"REDIS_ADDR":          "redis:6379",
		"KAFKA_BROKERS":       "k1:9092,k2:9092",
		"HTTP_PORT":           "3000",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "secret-key", c.Vendor.APIKey)
	assert.Equal(t, "pgx", c.Store.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/app", c.Store.DSN)
	assert.Equal(t, "s3cret", c.Cron.Secret)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "redis:6379", c.Redis.Addr)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 3000, c.Server.Port)
	require.NoError(t, c.Validate())
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("TWELVE_DATA_API_KEY", "env-key")
	t.Setenv("STORE_DRIVER", "sqlite")

	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", c.Vendor.APIKey)
}

func TestShippedConfig(t *testing.T) {
	c, err := Load("../../config/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.Store.Driver)
	assert.Equal(t, "0 */5 * * * *", c.Cron.UpdatePrices)
	assert.Equal(t, 1.0, c.Pricing.SpreadBps["forex"])
	require.NotEmpty(t, c.SeedAssets)

	var inactive []string
	for _, a := range c.SeedAssets {
		if !a.IsActive() {
			inactive = append(inactive, a.Symbol)
		}
	}
	assert.Equal(t, []string{"WTIUSD"}, inactive)
}
