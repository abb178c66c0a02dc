package monitor

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/politeping/politeping/internal/metrics"
)

var tracer = otel.Tracer("politeping/monitor")

// Evaluator runs the full check pipeline for one endpoint: robots gate,
// rate budget, probe, classification. Every failure mode resolves to a
// verdict; Evaluate never returns an error and never panics.
type Evaluator struct {
	guard      RobotsGuard
	limiter    RateLimiter
	prober     Prober
	classifier Classifier
	store      *Store
	clock      Clock
	logger     *zap.Logger
}

// NewEvaluator wires the pipeline stages together. The store is shared with
// the HTTP surface and must not be nil.
func NewEvaluator(guard RobotsGuard, limiter RateLimiter, prober Prober, classifier Classifier, store *Store, clock Clock, logger *zap.Logger) *Evaluator {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		guard:      guard,
		limiter:    limiter,
		prober:     prober,
		classifier: classifier,
		store:      store,
		clock:      clock,
		logger:     logger,
	}
}

// Store exposes the verdict store backing this evaluator.
func (e *Evaluator) Store() *Store {
	return e.store
}

// Evaluate checks one endpoint and records the verdict. Order is fixed:
// robots first, then the rate budget, then at most one probe cycle. Skips
// and robots denials never advance rate timers.
func (e *Evaluator) Evaluate(ctx context.Context, ep Endpoint) HealthVerdict {
	ctx, span := tracer.Start(ctx, "monitor.check")
	defer span.End()
	span.SetAttributes(attribute.String("endpoint.url", ep.URL))

	v := e.evaluate(ctx, ep)
	span.SetAttributes(attribute.String("check.tier", string(v.Tier)))
	return v
}

func (e *Evaluator) evaluate(ctx context.Context, ep Endpoint) HealthVerdict {
	now := e.clock.Now()

	u, err := url.Parse(ep.URL)
	if err != nil || u.Host == "" {
		v := HealthVerdict{Endpoint: ep, Tier: TierError, ErrorText: "invalid URL", Timestamp: now, RobotsKind: PolicyUnknown}
		e.record(v)
		return v
	}
	host := u.Host

	decision, kind := e.guard.Check(ctx, ep.URL)
	metrics.ObserveRobotsFetch(string(kind))
	if decision == RobotsDisallow {
		v := HealthVerdict{Endpoint: ep, Tier: TierDisallowed, Timestamp: now, RobotsKind: kind}
		e.record(v)
		return v
	}

	if e.limiter.ShouldSkip(host, ep.URL, now) {
		metrics.ObserveSkip(metrics.SanitizeSite(ep.URL))
		v := e.replaySkip(ep, now, kind)
		// The replay is reported but never stored: the store keeps the
		// last completed verdict so a skip can be replayed again later.
		e.observe(v)
		return v
	}

	res := e.prober.Probe(ctx, ep.URL, kind)
	e.limiter.MarkChecked(host, ep.URL, e.clock.Now())
	metrics.ObserveProbe(metrics.SanitizeSite(ep.URL), string(res.Method), res.Latency)

	v := e.verdictFrom(ep, res, kind)
	e.record(v)
	return v
}

// replaySkip re-tags the last stored verdict as Skipped, keeping its
// original timestamp so stale data is visible as stale. With no prior
// verdict the skip itself is the record.
func (e *Evaluator) replaySkip(ep Endpoint, now time.Time, kind PolicyKind) HealthVerdict {
	if e.store != nil {
		if prev, ok := e.store.Get(ep.URL); ok {
			prev.Tier = TierSkipped
			return prev
		}
	}
	return HealthVerdict{Endpoint: ep, Tier: TierSkipped, Timestamp: now, RobotsKind: kind}
}

func (e *Evaluator) verdictFrom(ep Endpoint, res ProbeResult, kind PolicyKind) HealthVerdict {
	v := HealthVerdict{
		Endpoint:   ep,
		HTTPStatus: res.StatusCode,
		LatencyMs:  res.Latency.Milliseconds(),
		Timestamp:  res.Timestamp,
		RobotsKind: kind,
	}

	if res.StatusCode == 0 {
		v.Tier = TierError
		v.ErrorText = res.TransportError
		return v
	}

	if len(res.BodySample) == 0 {
		// HEAD carried no body; grade on status alone.
		if res.StatusCode >= 200 && res.StatusCode < 400 {
			v.Tier = TierHealthy
		} else {
			v.Tier = TierUnhealthy
		}
		return v
	}

	host := ""
	if u, err := url.Parse(ep.URL); err == nil {
		host = u.Hostname()
	}
	tier, ev := e.classifier.Classify(res.StatusCode, res.BodySample, host)
	v.Tier = tier
	v.Title = ev.Title
	v.MatchedKeyword = ev.MatchedKeyword
	return v
}

func (e *Evaluator) record(v HealthVerdict) {
	if e.store != nil {
		e.store.Put(v)
	}
	e.observe(v)
}

func (e *Evaluator) observe(v HealthVerdict) {
	metrics.ObserveCheck(metrics.SanitizeSite(v.Endpoint.URL), string(v.Tier))
	e.logger.Info("endpoint checked",
		zap.String("name", v.Endpoint.Name),
		zap.String("url", v.Endpoint.URL),
		zap.String("tier", string(v.Tier)),
		zap.Int("status", v.HTTPStatus),
		zap.Int64("latency_ms", v.LatencyMs),
		zap.String("robots", string(v.RobotsKind)),
		zap.String("matched_keyword", v.MatchedKeyword),
	)
}
