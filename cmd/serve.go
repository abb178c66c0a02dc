package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/politeping/politeping/internal/api"
	"github.com/politeping/politeping/internal/config"
	"github.com/politeping/politeping/internal/metrics"
	"github.com/politeping/politeping/internal/monitor"
	"github.com/politeping/politeping/internal/report"
	"github.com/politeping/politeping/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the monitor with its HTTP dashboard",
		Long: `Starts the scheduler that checks every configured endpoint on an
interval, plus the HTTP surface serving the dashboard, snapshot API,
health endpoint, and Prometheus metrics.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	tp, err := telemetry.InitTracerProvider(ctx, telemetry.Config{ServiceName: "politeping"})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			logger.Error("tracer shutdown error", zap.Error(shutdownErr))
		}
	}()

	store, runner, err := buildMonitor(cfg, logger)
	if err != nil {
		return err
	}

	apiServer := api.NewServer(store, runner, cfg.Endpoints, cfg.Monitor.UserAgent, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go runPasses(ctx, runner, cfg, logger.Named("scheduler"))

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

// runPasses runs one pass immediately and then on the configured interval
// until the context finishes. Each pass optionally lands in the CSV report.
func runPasses(ctx context.Context, runner *monitor.Runner, cfg config.Config, logger *zap.Logger) {
	ticker := time.NewTicker(cfg.PassInterval())
	defer ticker.Stop()

	for {
		verdicts := runner.RunPass(ctx)
		if cfg.Report.CSVPath != "" && len(verdicts) > 0 {
			if err := report.WriteFile(cfg.Report.CSVPath, verdicts); err != nil {
				logger.Error("csv report failed", zap.Error(err))
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
