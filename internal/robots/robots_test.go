package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/politeping/politeping/internal/monitor"
)

func TestParse_StarBlockOnly(t *testing.T) {
	t.Parallel()

	body := `
User-agent: googlebot
Disallow: /private

User-agent: *
Disallow: /admin # trailing comment
Allow:
not-a-directive

User-agent: *
Disallow: /tmp
`
	p := Parse("example.org", body, time.Now())
	require.Equal(t, monitor.PolicyParsed, p.Kind)
	require.Len(t, p.disallows, 2, "both star blocks should accumulate")
	require.Empty(t, p.allows, "empty allow value must be ignored")
	require.True(t, p.Allowed("/private"), "non-star block must not apply")
	require.False(t, p.Allowed("/admin"))
	require.False(t, p.Allowed("/tmp/x"))
}

func TestPolicy_LongestRuleWins(t *testing.T) {
	t.Parallel()

	p := Parse("example.org", "User-agent: *\nAllow: /a\nDisallow: /ab\n", time.Now())
	require.False(t, p.Allowed("/ab/x"), "longer disallow rule must win")
	require.True(t, p.Allowed("/a/x"))
}

func TestPolicy_TieFavorsAllow(t *testing.T) {
	t.Parallel()

	p := Parse("example.org", "User-agent: *\nAllow: /a\nDisallow: /a\n", time.Now())
	require.True(t, p.Allowed("/a"))
	require.True(t, p.Allowed("/a/deep"))
}

func TestPolicy_WildcardAndNoMatch(t *testing.T) {
	t.Parallel()

	p := Parse("example.org", "User-agent: *\nDisallow: /search*.html\n", time.Now())
	require.False(t, p.Allowed("/search/results.html"))
	require.True(t, p.Allowed("/search"), "prefix pattern must not match shorter path")
	require.True(t, p.Allowed("/about"), "unmatched paths are allowed")
}

func TestGuard_OutcomeMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		status   int
		body     string
		path     string
		decision monitor.RobotsDecision
		kind     monitor.PolicyKind
	}{
		{"parsed disallow", http.StatusOK, "User-agent: *\nDisallow: /blocked\n", "/blocked", monitor.RobotsDisallow, monitor.PolicyParsed},
		{"parsed allow", http.StatusOK, "User-agent: *\nDisallow: /blocked\n", "/open", monitor.RobotsAllow, monitor.PolicyParsed},
		{"missing robots", http.StatusNotFound, "", "/anything", monitor.RobotsAllow, monitor.PolicyAllow},
		{"server error", http.StatusInternalServerError, "", "/anything", monitor.RobotsUnknown, monitor.PolicyUnknown},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/robots.txt", r.URL.Path)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			g := NewGuard(Config{}, srv.Client(), nil, nil)
			decision, kind := g.Check(context.Background(), srv.URL+tc.path)
			require.Equal(t, tc.decision, decision)
			require.Equal(t, tc.kind, kind)
		})
	}
}

func TestGuard_TransportFailureIsUnknown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	g := NewGuard(Config{FetchTimeout: time.Second}, nil, nil, nil)
	decision, kind := g.Check(context.Background(), srv.URL+"/page")
	require.Equal(t, monitor.RobotsUnknown, decision)
	require.Equal(t, monitor.PolicyUnknown, kind)
}

func TestGuard_CachesPerHostWithinTTL(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /blocked\n"))
	}))
	defer srv.Close()

	g := NewGuard(Config{CacheTTL: time.Hour}, srv.Client(), nil, nil)
	for i := 0; i < 3; i++ {
		decision, _ := g.Check(context.Background(), srv.URL+"/open")
		require.Equal(t, monitor.RobotsAllow, decision)
	}
	require.Equal(t, int64(1), fetches.Load(), "second check within TTL must hit the cache")
}

func TestGuard_RefreshAfterTTL(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
	}))
	defer srv.Close()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	g := NewGuard(Config{CacheTTL: time.Hour}, srv.Client(), clock, nil)

	g.Check(context.Background(), srv.URL+"/a")
	clock.now = clock.now.Add(2 * time.Hour)
	g.Check(context.Background(), srv.URL+"/a")
	require.Equal(t, int64(2), fetches.Load())
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}
