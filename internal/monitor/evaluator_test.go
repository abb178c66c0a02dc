package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeGuard struct {
	decision RobotsDecision
	kind     PolicyKind
}

func (g fakeGuard) Check(_ context.Context, _ string) (RobotsDecision, PolicyKind) {
	return g.decision, g.kind
}

type fakeLimiter struct {
	skip   bool
	marked atomic.Int64
}

func (l *fakeLimiter) ShouldSkip(_, _ string, _ time.Time) bool { return l.skip }

func (l *fakeLimiter) MarkChecked(_, _ string, _ time.Time) { l.marked.Add(1) }

type fakeProber struct {
	result ProbeResult
	calls  atomic.Int64
}

func (p *fakeProber) Probe(_ context.Context, _ string, _ PolicyKind) ProbeResult {
	p.calls.Add(1)
	return p.result
}

type fakeClassifier struct {
	tier Tier
	ev   Evidence
}

func (c fakeClassifier) Classify(_ int, _ []byte, _ string) (Tier, Evidence) {
	return c.tier, c.ev
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

func newTestEvaluator(guard RobotsGuard, limiter RateLimiter, prober Prober, classifier Classifier, clock Clock) *Evaluator {
	return NewEvaluator(guard, limiter, prober, classifier, NewStore(), clock, nil)
}

func TestEvaluate_DisallowNeverProbes(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{}
	limiter := &fakeLimiter{}
	e := newTestEvaluator(
		fakeGuard{decision: RobotsDisallow, kind: PolicyParsed},
		limiter,
		prober,
		fakeClassifier{},
		fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	)

	v := e.Evaluate(context.Background(), Endpoint{Name: "gov", URL: "https://example.go.kr/data"})

	require.Equal(t, TierDisallowed, v.Tier)
	require.Equal(t, PolicyParsed, v.RobotsKind)
	require.Equal(t, int64(0), prober.calls.Load())
	require.Equal(t, int64(0), limiter.marked.Load(), "robots denial must not advance rate timers")
}

func TestEvaluate_SkipReplaysPriorVerdict(t *testing.T) {
	t.Parallel()

	probed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	prober := &fakeProber{result: ProbeResult{
		Timestamp:  probed,
		StatusCode: 200,
		Latency:    40 * time.Millisecond,
		Method:     MethodHead,
	}}
	limiter := &fakeLimiter{}
	clock := fakeClock{now: probed}
	e := newTestEvaluator(
		fakeGuard{decision: RobotsAllow, kind: PolicyParsed},
		limiter,
		prober,
		fakeClassifier{tier: TierHealthy},
		clock,
	)
	ep := Endpoint{Name: "gov", URL: "https://example.go.kr/data"}

	first := e.Evaluate(context.Background(), ep)
	require.Equal(t, TierHealthy, first.Tier)
	require.Equal(t, int64(1), limiter.marked.Load())

	limiter.skip = true
	second := e.Evaluate(context.Background(), ep)
	require.Equal(t, TierSkipped, second.Tier)
	require.Equal(t, first.Timestamp, second.Timestamp, "skip keeps the original timestamp")
	require.Equal(t, first.HTTPStatus, second.HTTPStatus)
	require.Equal(t, int64(1), prober.calls.Load(), "skip must not probe")
	require.Equal(t, int64(1), limiter.marked.Load(), "skip must not advance rate timers")

	stored, ok := e.Store().Get(ep.URL)
	require.True(t, ok)
	require.Equal(t, TierHealthy, stored.Tier, "skip must not overwrite the stored verdict")
	require.Equal(t, first.Timestamp, stored.Timestamp)

	limiter.skip = false
	third := e.Evaluate(context.Background(), ep)
	require.Equal(t, TierHealthy, third.Tier, "the next completed check resumes from the stored state")
}

func TestEvaluate_SkipWithoutHistory(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	prober := &fakeProber{}
	e := newTestEvaluator(
		fakeGuard{decision: RobotsAllow, kind: PolicyAllow},
		&fakeLimiter{skip: true},
		prober,
		fakeClassifier{},
		fakeClock{now: now},
	)

	v := e.Evaluate(context.Background(), Endpoint{Name: "gov", URL: "https://example.go.kr/data"})

	require.Equal(t, TierSkipped, v.Tier)
	require.Equal(t, now, v.Timestamp)
	require.Equal(t, int64(0), prober.calls.Load())
}

func TestEvaluate_TransportErrorIsErrorTier(t *testing.T) {
	t.Parallel()

	limiter := &fakeLimiter{}
	e := newTestEvaluator(
		fakeGuard{decision: RobotsUnknown, kind: PolicyUnknown},
		limiter,
		&fakeProber{result: ProbeResult{TransportError: "dial tcp: connection refused"}},
		fakeClassifier{},
		fakeClock{now: time.Now()},
	)

	v := e.Evaluate(context.Background(), Endpoint{Name: "gov", URL: "https://example.go.kr/data"})

	require.Equal(t, TierError, v.Tier)
	require.Equal(t, "dial tcp: connection refused", v.ErrorText)
	require.Equal(t, 0, v.HTTPStatus)
	require.Equal(t, int64(1), limiter.marked.Load(), "a completed attempt advances rate timers")
}

func TestEvaluate_HeadOnlyGradesByStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		want   Tier
	}{
		{"ok", 200, TierHealthy},
		{"redirect", 302, TierHealthy},
		{"client error", 404, TierUnhealthy},
		{"server error", 503, TierUnhealthy},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEvaluator(
				fakeGuard{decision: RobotsAllow, kind: PolicyParsed},
				&fakeLimiter{},
				&fakeProber{result: ProbeResult{StatusCode: tc.status, Method: MethodHead}},
				fakeClassifier{tier: TierDegraded}, // must not be consulted
				fakeClock{now: time.Now()},
			)

			v := e.Evaluate(context.Background(), Endpoint{Name: "gov", URL: "https://example.go.kr/data"})
			require.Equal(t, tc.want, v.Tier)
		})
	}
}

func TestEvaluate_BodySampleGoesThroughClassifier(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(
		fakeGuard{decision: RobotsAllow, kind: PolicyParsed},
		&fakeLimiter{},
		&fakeProber{result: ProbeResult{
			StatusCode: 200,
			Method:     MethodGet,
			BodySample: []byte("<html><title>점검 안내</title></html>"),
		}},
		fakeClassifier{tier: TierUnhealthy, ev: Evidence{MatchedKeyword: "점검", Title: "점검 안내"}},
		fakeClock{now: time.Now()},
	)

	v := e.Evaluate(context.Background(), Endpoint{Name: "gov", URL: "https://example.go.kr/data"})

	require.Equal(t, TierUnhealthy, v.Tier)
	require.Equal(t, "점검", v.MatchedKeyword)
	require.Equal(t, "점검 안내", v.Title)
}

func TestEvaluate_InvalidURL(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{}
	e := newTestEvaluator(
		fakeGuard{decision: RobotsAllow, kind: PolicyParsed},
		&fakeLimiter{},
		prober,
		fakeClassifier{},
		fakeClock{now: time.Now()},
	)

	v := e.Evaluate(context.Background(), Endpoint{Name: "bad", URL: "://not-a-url"})

	require.Equal(t, TierError, v.Tier)
	require.Equal(t, int64(0), prober.calls.Load())
}
