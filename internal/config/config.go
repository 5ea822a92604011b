package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all WattSense configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Email    EmailConfig    `mapstructure:"email"`
	Tips     TipsConfig     `mapstructure:"tips"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig defines application-wide settings.
type AppConfig struct {
	// Timezone is the IANA zone budget dates and months are interpreted in.
	Timezone string `mapstructure:"timezone"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig defines HTTP API settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// AuthConfig defines bearer token verification.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// AdminSubjects may trigger the scheduled jobs over HTTP.
	AdminSubjects []string `mapstructure:"admin_subjects"`
}

// AlertsConfig defines the alert policy and mirror integrations.
type AlertsConfig struct {
	ThresholdPct   float64       `mapstructure:"threshold_pct"`
	ThrottleWindow string        `mapstructure:"throttle_window"`
	Slack          SlackConfig   `mapstructure:"slack"`
	Webhook        WebhookConfig `mapstructure:"webhook"`
	MQTT           MQTTConfig    `mapstructure:"mqtt"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// MQTTConfig defines the MQTT mirror settings.
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

// EmailConfig defines the primary email transport.
type EmailConfig struct {
	Resend ResendConfig `mapstructure:"resend"`
}

// ResendConfig defines the Resend API settings.
type ResendConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	From     string `mapstructure:"from"`
}

// TipsConfig defines tip generation settings.
type TipsConfig struct {
	MaxTokens int          `mapstructure:"max_tokens"`
	Gemini    GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig defines the Gemini API settings.
type GeminiConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

// ScheduleConfig defines cron expressions for background jobs.
type ScheduleConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BudgetAlerts   string `mapstructure:"budget_alerts"`
	MonthlySummary string `mapstructure:"monthly_summary"`
	SweepWorkers   int    `mapstructure:"sweep_workers"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Location resolves App.Timezone. An empty zone means the host's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".wattsense"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("app.timezone", "Asia/Jakarta")
	v.SetDefault("storage.path", filepath.Join(home, ".wattsense", "wattsense.db"))
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_subjects", []string{})
	v.SetDefault("alerts.threshold_pct", 90.0)
	v.SetDefault("alerts.throttle_window", "24h")
	v.SetDefault("alerts.slack.channel", "#energy")
	v.SetDefault("alerts.mqtt.client_id", "wattsense")
	v.SetDefault("alerts.mqtt.topic_prefix", "wattsense")
	v.SetDefault("email.resend.endpoint", "https://api.resend.com/emails")
	v.SetDefault("email.resend.from", "Energy Monitor <no-reply@wattsense.local>")
	v.SetDefault("tips.max_tokens", 80)
	v.SetDefault("tips.gemini.model", "gemini-1.5-flash")
	v.SetDefault("tips.gemini.endpoint", "https://generativelanguage.googleapis.com")
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.budget_alerts", "0 */6 * * *")
	v.SetDefault("schedule.monthly_summary", "0 0 1 * *")
	v.SetDefault("schedule.sweep_workers", 4)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("WATTSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys are also accepted under their conventional names.
	if err := v.BindEnv("email.resend.api_key", "WATTSENSE_EMAIL_RESEND_API_KEY", "RESEND_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("tips.gemini.api_key", "WATTSENSE_TIPS_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
