package monitor

import (
	"context"
	"time"
)

// RobotsGuard answers whether a URL may be probed under its host's
// robots.txt, consulted strictly before any probe is issued.
type RobotsGuard interface {
	Check(ctx context.Context, url string) (RobotsDecision, PolicyKind)
}

// RateLimiter tracks check budgets per host and per endpoint. MarkChecked
// is called only after a completed probe, never on skips or robots denials.
type RateLimiter interface {
	ShouldSkip(host, url string, now time.Time) bool
	MarkChecked(host, url string, now time.Time)
}

// Prober issues the bounded request cycle for one URL.
type Prober interface {
	Probe(ctx context.Context, url string, policyKind PolicyKind) ProbeResult
}

// Classifier grades a response into a health tier with evidence.
type Classifier interface {
	Classify(status int, bodySample []byte, host string) (Tier, Evidence)
}
