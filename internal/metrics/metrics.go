// Package metrics exposes Prometheus collectors for the monitor service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	checksTotal          *prometheus.CounterVec
	probeDurationSeconds *prometheus.HistogramVec
	robotsFetchesTotal   *prometheus.CounterVec
	skipsTotal           *prometheus.CounterVec
	passDurationSeconds  prometheus.Histogram
	httpRequestsTotal    *prometheus.CounterVec
	httpDurationSeconds  *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		checksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "politeping_checks_total",
				Help: "Total endpoint checks, labeled by site and verdict tier.",
			},
			[]string{"site", "tier"},
		)

		probeDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "politeping_probe_duration_seconds",
				Help:    "Histogram of probe latencies, labeled by site and method.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 12},
			},
			[]string{"site", "method"},
		)

		robotsFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "politeping_robots_fetches_total",
				Help: "Total robots.txt fetches, labeled by resulting policy kind.",
			},
			[]string{"kind"},
		)

		skipsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "politeping_skips_total",
				Help: "Checks skipped by the rate budget, labeled by site.",
			},
			[]string{"site"},
		)

		passDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "politeping_pass_duration_seconds",
				Help:    "Histogram of full monitoring pass durations.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "politeping_http_requests_total",
				Help: "Total HTTP requests served, labeled by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		)

		httpDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "politeping_http_request_duration_seconds",
				Help:    "Histogram of HTTP request durations, labeled by method and route.",
				Buckets: []float64{0.005, 0.05, 0.25, 1, 5, 30, 120},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite reduces a URL to a lowercase hostname label.
func SanitizeSite(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveCheck records a finished check verdict.
func ObserveCheck(site, tier string) {
	if checksTotal == nil {
		return
	}
	checksTotal.WithLabelValues(site, tier).Inc()
}

// ObserveProbe records a probe latency sample.
func ObserveProbe(site, method string, d time.Duration) {
	if probeDurationSeconds == nil {
		return
	}
	probeDurationSeconds.WithLabelValues(site, method).Observe(d.Seconds())
}

// ObserveRobotsFetch counts one robots.txt fetch outcome.
func ObserveRobotsFetch(kind string) {
	if robotsFetchesTotal == nil {
		return
	}
	robotsFetchesTotal.WithLabelValues(kind).Inc()
}

// ObserveSkip counts one rate-budget skip.
func ObserveSkip(site string) {
	if skipsTotal == nil {
		return
	}
	skipsTotal.WithLabelValues(site).Inc()
}

// ObservePass records a monitoring pass duration.
func ObservePass(d time.Duration) {
	if passDurationSeconds == nil {
		return
	}
	passDurationSeconds.Observe(d.Seconds())
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
