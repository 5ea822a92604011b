package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/wattsense/internal/config"
	"github.com/ogulcanaydogan/wattsense/pkg/alerts"
	"github.com/ogulcanaydogan/wattsense/pkg/budget"
	"github.com/ogulcanaydogan/wattsense/pkg/metrics"
	"github.com/ogulcanaydogan/wattsense/pkg/storage"
	"github.com/ogulcanaydogan/wattsense/pkg/summary"
	"github.com/ogulcanaydogan/wattsense/pkg/tips"
	"github.com/ogulcanaydogan/wattsense/pkg/usage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wattsense",
	Short: "WattSense - energy budget tracking and alerts",
	Long: `WattSense tracks electricity usage from two PZEM sensors, compares spend
against a per-user budget in Rupiah or kWh, and emails a warning when usage
crosses the alert threshold. It also sends a monthly usage summary.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.wattsense/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// app holds the wired services shared by all commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	loc     *time.Location
	store   *storage.SQLite
	metrics *metrics.Metrics
	budgets *budget.Service
	sweep   *budget.Sweep
	summary *summary.MonthlySender
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config, loc *time.Location) (*storage.SQLite, error) {
	return storage.NewSQLite(cfg.Storage.Path, storage.WithLocation(loc))
}

// initPolicy builds the alert policy from config.
func initPolicy(cfg *config.Config) (budget.Policy, error) {
	policy := budget.DefaultPolicy()
	if cfg.Alerts.ThresholdPct > 0 {
		policy.AlertThresholdPct = cfg.Alerts.ThresholdPct
	}
	if cfg.Alerts.ThrottleWindow != "" {
		d, err := time.ParseDuration(cfg.Alerts.ThrottleWindow)
		if err != nil {
			return policy, fmt.Errorf("parse alerts.throttle_window: %w", err)
		}
		policy.Throttle.Window = d
	}
	return policy, nil
}

// initDispatcher creates the email transport and configured mirrors.
func initDispatcher(cfg *config.Config, logger *slog.Logger) (*alerts.Dispatcher, func()) {
	resend := cfg.Email.Resend
	primary := alerts.NewResendMailer(resend.Endpoint, resend.APIKey, resend.From)
	if resend.APIKey == "" {
		logger.Warn("email API key not set; notifications will not be sent")
	}

	var mirrors []alerts.Mailer
	cleanup := func() {}

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		mirrors = append(mirrors, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		mirrors = append(mirrors, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	if cfg.Alerts.MQTT.Enabled {
		mq := cfg.Alerts.MQTT
		n, err := alerts.NewMQTTNotifier(alerts.MQTTConfig{
			Broker:      mq.Broker,
			ClientID:    mq.ClientID,
			Username:    mq.Username,
			Password:    mq.Password,
			TopicPrefix: mq.TopicPrefix,
		})
		if err != nil {
			logger.Error("mqtt mirror disabled", "error", err)
		} else {
			mirrors = append(mirrors, n)
			cleanup = n.Close
		}
	}

	return alerts.NewDispatcher(primary, mirrors, logger.With("component", "alerts")), cleanup
}

// initTips creates the tip generator.
func initTips(cfg *config.Config) tips.Generator {
	return tips.NewGemini(tips.GeminiConfig{
		APIKey:    cfg.Tips.Gemini.APIKey,
		Model:     cfg.Tips.Gemini.Model,
		Endpoint:  cfg.Tips.Gemini.Endpoint,
		MaxTokens: cfg.Tips.MaxTokens,
	})
}

// initApp creates a fully wired application.
func initApp(cfg *config.Config) (*app, error) {
	logger := newLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	policy, err := initPolicy(cfg)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(cfg, loc)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		loc:     loc,
		store:   store,
		metrics: metrics.New(),
	}
	a.closers = append(a.closers, func() { store.Close() })

	dispatcher, closeDispatcher := initDispatcher(cfg, logger)
	a.closers = append(a.closers, closeDispatcher)

	agg := usage.NewAggregator(store, a.metrics, logger.With("component", "usage"))
	evaluator := budget.NewEvaluator(agg)
	alerter := budget.NewAlerter(store, dispatcher, policy, a.metrics, logger.With("component", "budget"))

	a.budgets = budget.NewService(store, evaluator, alerter, logger.With("component", "budget"), budget.WithLocation(loc))
	a.sweep = budget.NewSweep(store, evaluator, alerter, cfg.Schedule.SweepWorkers, logger.With("component", "sweep"))
	a.summary = summary.NewMonthlySender(store, agg, initTips(cfg), dispatcher, loc, logger.With("component", "summary"))

	return a, nil
}

// withApp loads config, wires the app and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := initApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
