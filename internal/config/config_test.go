package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/wattsense/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "15s", cfg.Server.ReadTimeout)
	assert.Equal(t, 90.0, cfg.Alerts.ThresholdPct)
	assert.Equal(t, "24h", cfg.Alerts.ThrottleWindow)
	assert.Equal(t, "0 */6 * * *", cfg.Schedule.BudgetAlerts)
	assert.Equal(t, "0 0 1 * *", cfg.Schedule.MonthlySummary)
	assert.Equal(t, 4, cfg.Schedule.SweepWorkers)
	assert.Equal(t, 80, cfg.Tips.MaxTokens)
	assert.Equal(t, "gemini-1.5-flash", cfg.Tips.Gemini.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "Asia/Jakarta", cfg.App.Timezone)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
storage:
  path: /tmp/test.db
server:
  listen: ":9090"
auth:
  admin_subjects: [ops_admin]
alerts:
  threshold_pct: 80
  throttle_window: 12h
  mqtt:
    enabled: true
    broker: localhost:1883
logging:
  level: debug
app:
  timezone: UTC
`)
	err := os.WriteFile(cfgPath, data, 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, []string{"ops_admin"}, cfg.Auth.AdminSubjects)
	assert.Equal(t, 80.0, cfg.Alerts.ThresholdPct)
	assert.Equal(t, "12h", cfg.Alerts.ThrottleWindow)
	assert.True(t, cfg.Alerts.MQTT.Enabled)
	assert.Equal(t, "localhost:1883", cfg.Alerts.MQTT.Broker)
	assert.Equal(t, "debug", cfg.Logging.Level)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WATTSENSE_LOGGING_LEVEL", "error")
	t.Setenv("WATTSENSE_SERVER_LISTEN", ":7070")
	t.Setenv("WATTSENSE_AUTH_JWT_SECRET", "s3cret")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, ":7070", cfg.Server.Listen)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoad_ProviderKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("GEMINI_API_KEY", "gm_456")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "re_123", cfg.Email.Resend.APIKey)
	assert.Equal(t, "gm_456", cfg.Tips.Gemini.APIKey)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	err := os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644)
	require.NoError(t, err)

	_, err = config.Load(cfgPath)
	assert.Error(t, err)
}

func TestConfig_Location_Invalid(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Timezone: "Mars/Olympus"}}
	_, err := cfg.Location()
	assert.Error(t, err)
}
