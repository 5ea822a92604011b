package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/wattsense/internal/auth"
	"github.com/ogulcanaydogan/wattsense/internal/scheduler"
	"github.com/ogulcanaydogan/wattsense/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and scheduled jobs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
	serveCmd.Flags().Bool("no-schedule", false, "Disable the cron jobs")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	listen, _ := cmd.Flags().GetString("listen")
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if noSchedule, _ := cmd.Flags().GetBool("no-schedule"); noSchedule {
		cfg.Schedule.Enabled = false
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be set to serve the API")
	}

	a, err := initApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sched := scheduler.New(a.loc, a.metrics, logger)
	if cfg.Schedule.Enabled {
		jobs := []scheduler.Job{
			{
				Name:     server.JobBudgetAlerts,
				Schedule: cfg.Schedule.BudgetAlerts,
				Run: func(ctx context.Context, now time.Time) error {
					_, err := a.sweep.Run(ctx, now)
					return err
				},
			},
			{
				Name:     server.JobMonthlySummary,
				Schedule: cfg.Schedule.MonthlySummary,
				Run: func(ctx context.Context, now time.Time) error {
					_, err := a.summary.Run(ctx, now)
					return err
				},
			},
		}
		for _, job := range jobs {
			if err := sched.Add(ctx, job); err != nil {
				return err
			}
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	apiServer := server.NewServer(server.Options{
		Budgets:  a.budgets,
		Sweep:    a.sweep,
		Summary:  a.summary,
		Readings: a.store,
		Tokens:   auth.NewTokens(cfg.Auth.JWTSecret),
		Admins:   cfg.Auth.AdminSubjects,
		Metrics:  a.metrics,
		Logger:   logger.With("component", "server"),
	})

	readTimeout, _ := time.ParseDuration(cfg.Server.ReadTimeout)
	if readTimeout == 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout, _ := time.ParseDuration(cfg.Server.WriteTimeout)
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      apiServer.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "listen", cfg.Server.Listen)
		fmt.Fprintf(os.Stderr, "WattSense listening on %s\n", cfg.Server.Listen)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
