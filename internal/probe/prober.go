// Package probe issues the bounded network requests behind each endpoint
// check: one HEAD, plus at most one streamed partial GET fallback.
package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/politeping/politeping/internal/monitor"
)

// Config sets the probe timeout tiers and body sampling bounds.
type Config struct {
	UserAgent      string
	ConnectTimeout time.Duration // dial deadline, default 5s
	ReadTimeout    time.Duration // response header / body read deadline, default 8s
	TotalTimeout   time.Duration // whole-attempt deadline, default 12s
	MaxSampleBytes int64         // GET body prefix retained for classification, default 50_000
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 8 * time.Second
	}
	if c.TotalTimeout <= 0 {
		c.TotalTimeout = 12 * time.Second
	}
	if c.MaxSampleBytes <= 0 {
		c.MaxSampleBytes = 50_000
	}
	return c
}

// Prober measures reachability and latency for a single URL.
type Prober struct {
	cfg    Config
	client *http.Client
	clock  monitor.Clock
	logger *zap.Logger
}

// New builds a Prober with its own pooled transport so probe deadlines never
// leak into the robots client.
func New(cfg Config, clock monitor.Clock, logger *zap.Logger) *Prober {
	cfg = cfg.withDefaults()
	if clock == nil {
		clock = monitor.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		cfg: cfg,
		client: &http.Client{
			Transport: newTransport(cfg),
		},
		clock:  clock,
		logger: logger,
	}
}

func newTransport(cfg Config) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}

// Probe runs the HEAD-then-partial-GET cycle for url. When the robots policy
// kind is Unknown, a HEAD transport failure is reported directly instead of
// issuing the GET: indeterminate robots intent means minimal extra load.
// Every failure mode resolves to a ProbeResult; Probe never returns an error.
func (p *Prober) Probe(ctx context.Context, url string, policyKind monitor.PolicyKind) monitor.ProbeResult {
	result := monitor.ProbeResult{
		Timestamp: p.clock.Now(),
		Method:    monitor.MethodHead,
	}

	status, latency, headErr := p.headAttempt(ctx, url)
	if headErr == nil && !headRejected(status) {
		result.StatusCode = status
		result.Latency = latency
		return result
	}

	// A 405/501 means the server answered but refuses HEAD; the GET fallback
	// applies even under an unknown robots policy because the host is
	// demonstrably reachable.
	if headErr != nil && policyKind == monitor.PolicyUnknown {
		result.TransportError = headErr.Error()
		return result
	}

	p.logger.Debug("head probe failed, falling back to partial get",
		zap.String("url", url),
		zap.Int("head_status", status),
		zap.Error(headErr))

	result.Method = monitor.MethodGet
	status, latency, sample, getErr := p.getAttempt(ctx, url)
	if getErr != nil {
		result.TransportError = getErr.Error()
		return result
	}
	result.StatusCode = status
	result.Latency = latency
	result.BodySample = sample
	return result
}

func headRejected(status int) bool {
	return status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented
}

func (p *Prober) headAttempt(ctx context.Context, url string) (int, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.TotalTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, 0, err
	}
	p.setHeaders(req)

	start := p.clock.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	latency := p.clock.Now().Sub(start)
	_ = resp.Body.Close()
	return resp.StatusCode, latency, nil
}

// getAttempt streams the response and keeps only the first MaxSampleBytes,
// then closes the body to abort the rest of the transfer. Bytes moved stay
// bounded regardless of page size.
func (p *Prober) getAttempt(ctx context.Context, url string) (int, time.Duration, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.TotalTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, nil, err
	}
	p.setHeaders(req)

	start := p.clock.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, 0, nil, err
	}
	latency := p.clock.Now().Sub(start)
	defer func() { _ = resp.Body.Close() }()

	sample, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxSampleBytes))
	if err != nil {
		// The status line already arrived; a truncated body still classifies.
		p.logger.Debug("partial body read interrupted",
			zap.String("url", url),
			zap.Error(err))
	}
	return resp.StatusCode, latency, sample, nil
}

func (p *Prober) setHeaders(req *http.Request) {
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
}
