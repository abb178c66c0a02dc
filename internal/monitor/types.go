// Package monitor defines core types shared across subsystems.
package monitor

import (
	"time"
)

// Tier classifies the outcome of a single endpoint check.
type Tier string

// Verdict tiers. The first three grade fetched content; the rest are
// operational outcomes that never involve a completed classification.
const (
	TierHealthy    Tier = "Healthy"
	TierDegraded   Tier = "Degraded"
	TierUnhealthy  Tier = "Unhealthy"
	TierError      Tier = "Error"
	TierDisallowed Tier = "Disallowed"
	TierSkipped    Tier = "Skipped"
)

// Endpoint is a single monitored URL with a display name. Endpoints are
// loaded once from configuration and read-only for the life of the run.
type Endpoint struct {
	Name string `mapstructure:"name" json:"name"`
	URL  string `mapstructure:"url" json:"url"`
}

// PolicyKind records how a host's robots.txt policy was obtained. Parsed
// means the file was fetched and parsed; PolicyAllow means the host serves
// none (404); PolicyUnknown covers every fetch failure and is treated
// conservatively downstream.
type PolicyKind string

// Robots policy kinds.
const (
	PolicyParsed  PolicyKind = "parsed"
	PolicyAllow   PolicyKind = "allow"
	PolicyUnknown PolicyKind = "unknown"
)

// RobotsDecision is the per-URL verdict derived from a host policy.
type RobotsDecision int

// Robots check outcomes.
const (
	RobotsAllow RobotsDecision = iota
	RobotsDisallow
	RobotsUnknown
)

func (d RobotsDecision) String() string {
	switch d {
	case RobotsDisallow:
		return "DISALLOW"
	case RobotsUnknown:
		return "UNKNOWN"
	default:
		return "ALLOW"
	}
}

// Method is the HTTP method a probe actually used.
type Method string

// Probe methods.
const (
	MethodHead Method = "HEAD"
	MethodGet  Method = "GET"
)

// ProbeResult is the outcome of the bounded network request cycle for one
// endpoint. StatusCode 0 means no HTTP status was obtained.
type ProbeResult struct {
	Timestamp      time.Time
	StatusCode     int
	Latency        time.Duration
	Method         Method
	BodySample     []byte
	TransportError string
}

// Evidence explains how a classification tier was reached.
type Evidence struct {
	// MatchedKeyword is the negative term that fired, if any.
	MatchedKeyword string
	// NeutralKeyword is the informational term that fired, if any.
	NeutralKeyword string
	// QualityIssues lists the heuristics that flagged the content.
	QualityIssues []string
	// Title is the extracted page title, kept for reporting.
	Title string
}

// HealthVerdict is the externally visible record for one check and the
// "last known" state replayed on rate-limit skips.
type HealthVerdict struct {
	Endpoint       Endpoint   `json:"endpoint"`
	Tier           Tier       `json:"tier"`
	HTTPStatus     int        `json:"http_status,omitempty"`
	LatencyMs      int64      `json:"latency_ms"`
	Title          string     `json:"title,omitempty"`
	MatchedKeyword string     `json:"matched_keyword,omitempty"`
	ErrorText      string     `json:"error,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
	RobotsKind     PolicyKind `json:"robots_kind"`
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used outside tests.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
