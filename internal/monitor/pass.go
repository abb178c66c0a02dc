package monitor

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/politeping/politeping/internal/metrics"
)

// RunnerConfig bounds a monitoring pass.
type RunnerConfig struct {
	// MaxConcurrency caps probes in flight across all hosts.
	MaxConcurrency int
	// RequestsPerSecond paces dispatches globally, on top of the per-host
	// and per-endpoint budgets the limiter enforces.
	RequestsPerSecond float64
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 3
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
	return c
}

// Runner walks the endpoint list once per pass. Endpoints sharing a host
// are checked sequentially; distinct hosts run concurrently up to the
// global ceiling.
type Runner struct {
	evaluator *Evaluator
	endpoints []Endpoint
	cfg       RunnerConfig
	pacer     *rate.Limiter
	logger    *zap.Logger
}

// NewRunner creates a Runner over a fixed endpoint list.
func NewRunner(evaluator *Evaluator, endpoints []Endpoint, cfg RunnerConfig, logger *zap.Logger) *Runner {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		evaluator: evaluator,
		endpoints: endpoints,
		cfg:       cfg,
		pacer:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:    logger,
	}
}

// RunPass evaluates every endpoint once and returns the verdicts in
// completion order. A canceled context stops dispatching; endpoints already
// in flight still finish.
func (r *Runner) RunPass(ctx context.Context) []HealthVerdict {
	passID := uuid.NewString()
	start := time.Now()
	ctx, span := tracer.Start(ctx, "monitor.pass")
	defer span.End()
	span.SetAttributes(attribute.String("pass.id", passID))
	r.logger.Info("pass started",
		zap.String("pass_id", passID),
		zap.Int("endpoints", len(r.endpoints)),
	)

	byHost := groupByHost(r.endpoints)

	sem := make(chan struct{}, r.cfg.MaxConcurrency)
	results := make(chan HealthVerdict, len(r.endpoints))

	var wg sync.WaitGroup
	for _, eps := range byHost {
		wg.Add(1)
		go func(eps []Endpoint) {
			defer wg.Done()
			for _, ep := range eps {
				if err := r.pacer.Wait(ctx); err != nil {
					return
				}
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return
				}
				v := r.evaluator.Evaluate(ctx, ep)
				<-sem
				results <- v
			}
		}(eps)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]HealthVerdict, 0, len(r.endpoints))
	for v := range results {
		out = append(out, v)
	}

	metrics.ObservePass(time.Since(start))
	r.logger.Info("pass finished",
		zap.String("pass_id", passID),
		zap.Int("checked", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}

// groupByHost buckets endpoints by host, preserving list order within each
// bucket. Unparseable URLs get their own bucket and fail in Evaluate.
func groupByHost(endpoints []Endpoint) map[string][]Endpoint {
	byHost := make(map[string][]Endpoint)
	for _, ep := range endpoints {
		host := ep.URL
		if u, err := url.Parse(ep.URL); err == nil && u.Host != "" {
			host = u.Host
		}
		byHost[host] = append(byHost[host], ep)
	}
	return byHost
}
