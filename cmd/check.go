package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/politeping/politeping/internal/classify"
	"github.com/politeping/politeping/internal/config"
	"github.com/politeping/politeping/internal/metrics"
	"github.com/politeping/politeping/internal/monitor"
	"github.com/politeping/politeping/internal/probe"
	"github.com/politeping/politeping/internal/ratelimit"
	"github.com/politeping/politeping/internal/report"
	"github.com/politeping/politeping/internal/robots"
)

func newCheckCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Runs one monitoring pass and prints the CSV report",
		Long: `Checks every configured endpoint exactly once, honoring robots.txt
and the configured request budgets, then writes the CSV report to
stdout or to --output.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheckCommand(cmd, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the CSV report to this file instead of stdout")
	return cmd
}

func runCheckCommand(cmd *cobra.Command, output string) error {
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

	_, runner, err := buildMonitor(cfg, logger)
	if err != nil {
		return err
	}

	verdicts := runner.RunPass(ctx)
	if output != "" {
		if err := report.WriteFile(output, verdicts); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("report written", zap.String("path", output), zap.Int("endpoints", len(verdicts)))
		return nil
	}
	if err := report.Write(os.Stdout, verdicts); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// buildMonitor wires the check pipeline from configuration.
func buildMonitor(cfg config.Config, logger *zap.Logger) (*monitor.Store, *monitor.Runner, error) {
	matcher, err := classify.Compile(cfg.Keywords)
	if err != nil {
		return nil, nil, fmt.Errorf("compile keywords: %w", err)
	}

	clock := monitor.SystemClock{}
	guard := robots.NewGuard(robots.Config{
		UserAgent:    cfg.Monitor.UserAgent,
		FetchTimeout: time.Duration(cfg.Timeouts.RobotsSeconds) * time.Second,
	}, nil, clock, logger.Named("robots"))
	limiter := ratelimit.New(ratelimit.Config{
		HostMinInterval:     cfg.HostMinInterval(),
		EndpointMinInterval: cfg.EndpointMinInterval(),
	})
	prober := probe.New(probe.Config{
		UserAgent:      cfg.Monitor.UserAgent,
		ConnectTimeout: time.Duration(cfg.Timeouts.ConnectSeconds) * time.Second,
		ReadTimeout:    time.Duration(cfg.Timeouts.ReadSeconds) * time.Second,
		TotalTimeout:   time.Duration(cfg.Timeouts.TotalSeconds) * time.Second,
	}, clock, logger.Named("probe"))

	store := monitor.NewStore()
	evaluator := monitor.NewEvaluator(guard, limiter, prober, classify.New(matcher), store, clock, logger.Named("evaluator"))
	runner := monitor.NewRunner(evaluator, cfg.Endpoints, monitor.RunnerConfig{
		MaxConcurrency:    cfg.Budgets.GlobalMaxConcurrency,
		RequestsPerSecond: cfg.Budgets.RequestsPerSecond,
	}, logger.Named("runner"))
	return store, runner, nil
}
