// Package robots decides whether a URL may be probed, based on each host's
// robots.txt. Only the wildcard user-agent block is honored.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/politeping/politeping/internal/monitor"
)

// rule is one allow/disallow line compiled to an anchored prefix pattern.
// Length precedence uses the literal character count of the source rule,
// not the span the pattern happened to match.
type rule struct {
	raw string
	re  *regexp.Regexp
}

func compileRule(raw string) (rule, error) {
	escaped := strings.ReplaceAll(regexp.QuoteMeta(raw), `\*`, `.*`)
	re, err := regexp.Compile("^" + escaped)
	if err != nil {
		return rule{}, fmt.Errorf("compile robots rule %q: %w", raw, err)
	}
	return rule{raw: raw, re: re}, nil
}

// Policy is the cached robots state for one host. Policies are replaced
// wholesale on refresh, never mutated in place.
type Policy struct {
	Host      string
	FetchedAt time.Time
	Kind      monitor.PolicyKind
	allows    []rule
	disallows []rule
}

// Allowed reports whether the path may be requested under this policy.
// The longest matching rule wins; equal lengths favor allow; no match allows.
func (p *Policy) Allowed(path string) bool {
	if p == nil || p.Kind != monitor.PolicyParsed {
		return true
	}
	a := longestMatch(path, p.allows)
	d := longestMatch(path, p.disallows)
	if a < 0 && d < 0 {
		return true
	}
	return a >= d
}

func longestMatch(path string, rules []rule) int {
	best := -1
	for _, r := range rules {
		if r.re.MatchString(path) && len(r.raw) > best {
			best = len(r.raw)
		}
	}
	return best
}

// Parse builds a Policy from a robots.txt body. Directives outside a
// user-agent: * block are ignored; multiple star blocks accumulate.
func Parse(host, body string, fetchedAt time.Time) *Policy {
	p := &Policy{Host: host, FetchedAt: fetchedAt, Kind: monitor.PolicyParsed}
	inStar := false
	for _, line := range strings.Split(body, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "user-agent":
			inStar = value == "*"
		case "allow", "disallow":
			if !inStar || value == "" {
				continue
			}
			r, err := compileRule(value)
			if err != nil {
				continue
			}
			if key == "allow" {
				p.allows = append(p.allows, r)
			} else {
				p.disallows = append(p.disallows, r)
			}
		}
	}
	return p
}

// Config controls Guard behavior.
type Config struct {
	UserAgent    string
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}

// Guard fetches, parses, and caches robots.txt per host and answers
// allow/disallow/unknown for candidate URLs.
type Guard struct {
	cfg    Config
	client *http.Client
	clock  monitor.Clock
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]*Policy
}

// NewGuard builds a Guard. A nil client falls back to a short-timeout default.
func NewGuard(cfg Config, client *http.Client, clock monitor.Clock, logger *zap.Logger) *Guard {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 3 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	if clock == nil {
		clock = monitor.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		cfg:    cfg,
		client: client,
		clock:  clock,
		logger: logger,
		cache:  make(map[string]*Policy),
	}
}

// Check resolves the policy for the URL's host (from cache when fresh) and
// returns the decision for its path. It performs no network I/O beyond the
// robots.txt fetch itself.
func (g *Guard) Check(ctx context.Context, rawURL string) (monitor.RobotsDecision, monitor.PolicyKind) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return monitor.RobotsUnknown, monitor.PolicyUnknown
	}
	policy := g.policyFor(ctx, u)

	switch policy.Kind {
	case monitor.PolicyParsed:
		path := u.EscapedPath()
		if path == "" {
			path = "/"
		}
		if policy.Allowed(path) {
			return monitor.RobotsAllow, monitor.PolicyParsed
		}
		return monitor.RobotsDisallow, monitor.PolicyParsed
	case monitor.PolicyAllow:
		return monitor.RobotsAllow, monitor.PolicyAllow
	default:
		return monitor.RobotsUnknown, monitor.PolicyUnknown
	}
}

// policyFor returns a fresh cached policy or refreshes it synchronously.
// Refresh is lazy: nothing happens until a check for the host arrives after
// the TTL expires.
func (g *Guard) policyFor(ctx context.Context, u *url.URL) *Policy {
	now := g.clock.Now()

	g.mu.Lock()
	cached, ok := g.cache[u.Host]
	g.mu.Unlock()
	if ok && now.Sub(cached.FetchedAt) < g.cfg.CacheTTL {
		return cached
	}

	policy := g.fetch(ctx, u, now)

	g.mu.Lock()
	g.cache[u.Host] = policy
	g.mu.Unlock()
	return policy
}

func (g *Guard) fetch(ctx context.Context, u *url.URL, now time.Time) *Policy {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return &Policy{Host: u.Host, FetchedAt: now, Kind: monitor.PolicyUnknown}
	}
	if g.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", g.cfg.UserAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("robots fetch failed",
			zap.String("host", u.Host),
			zap.Error(err))
		return &Policy{Host: u.Host, FetchedAt: now, Kind: monitor.PolicyUnknown}
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
		if err != nil {
			return &Policy{Host: u.Host, FetchedAt: now, Kind: monitor.PolicyUnknown}
		}
		return Parse(u.Host, string(body), now)
	case http.StatusNotFound:
		return &Policy{Host: u.Host, FetchedAt: now, Kind: monitor.PolicyAllow}
	default:
		return &Policy{Host: u.Host, FetchedAt: now, Kind: monitor.PolicyUnknown}
	}
}
