package classify

import (
	"strings"

	"github.com/politeping/politeping/internal/monitor"
)

// scriptErrorSignatures are fixed markers of a page that rendered a JS crash
// instead of content. Matched against normalized text.
var scriptErrorSignatures = []string{
	"uncaught typeerror",
	"uncaught referenceerror",
	"uncaught syntaxerror",
	"script error",
	"chunkloaderror",
	"loading chunk",
	"cannot read properties of undefined",
	"is not defined",
}

const minBodyWords = 10

// Classifier applies the ordered three-tier decision table. It is stateless
// apart from the compiled matcher and deterministic for identical inputs.
type Classifier struct {
	matcher *Matcher
}

// New builds a Classifier around a compiled keyword matcher.
func New(matcher *Matcher) *Classifier {
	return &Classifier{matcher: matcher}
}

// Classify evaluates one response. Rules fire in order, first match wins:
//
//  1. no usable HTTP status (absent or outside [200,400)) -> Unhealthy
//  2. negative keyword match -> Unhealthy, term recorded
//  3. neutral keyword match, or exactly one quality issue -> Degraded
//  4. two or more quality issues -> Unhealthy
//  5. otherwise -> Healthy
func (c *Classifier) Classify(status int, bodySample []byte, host string) (monitor.Tier, monitor.Evidence) {
	if status < 200 || status >= 400 {
		return monitor.TierUnhealthy, monitor.Evidence{}
	}

	page := ExtractText(bodySample)
	text := Normalize(page.Combined())
	ev := monitor.Evidence{Title: page.Title}

	if term, ok := c.matcher.MatchNegative(text, host); ok {
		ev.MatchedKeyword = term
		return monitor.TierUnhealthy, ev
	}

	ev.QualityIssues = c.qualityIssues(page, text, host)

	if term, ok := c.matcher.MatchNeutral(text); ok {
		ev.NeutralKeyword = term
		return monitor.TierDegraded, ev
	}
	switch n := len(ev.QualityIssues); {
	case n == 1:
		return monitor.TierDegraded, ev
	case n >= 2:
		return monitor.TierUnhealthy, ev
	default:
		return monitor.TierHealthy, ev
	}
}

// qualityIssues counts independent signals that the content is suspiciously
// thin or broken despite a successful status.
func (c *Classifier) qualityIssues(page PageText, text, host string) []string {
	var issues []string

	if len([]rune(text)) < c.matcher.MinTextLength(host) {
		issues = append(issues, "short_text")
	}
	if len(strings.Fields(Normalize(page.BodyText))) < minBodyWords {
		issues = append(issues, "few_body_words")
	}
	if page.Title == "" && !page.HasTitleSubstitute() {
		issues = append(issues, "missing_title")
	}
	for _, sig := range scriptErrorSignatures {
		if strings.Contains(text, sig) {
			issues = append(issues, "script_error_signature")
			break
		}
	}
	return issues
}
