// Package classify turns probe responses into three-tier health verdicts
// using keyword rules and content quality heuristics.
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// KeywordConfig is the loosely-typed keyword configuration as it appears on
// disk. Compile turns it into the typed matcher used per check.
type KeywordConfig struct {
	GlobalKeywords  []string            `mapstructure:"global_keywords" json:"global_keywords"`
	NeutralKeywords []string            `mapstructure:"neutral_info_keywords" json:"neutral_info_keywords"`
	Domains         map[string][]string `mapstructure:"domains" json:"domains"`
	RegexKeywords   []RegexKeyword      `mapstructure:"regex_keywords" json:"regex_keywords"`
	Settings        Settings            `mapstructure:"settings" json:"settings"`
}

// RegexKeyword is one configured pattern; Flags containing "i" makes the
// pattern case-insensitive.
type RegexKeyword struct {
	Pattern string `mapstructure:"pattern" json:"pattern"`
	Flags   string `mapstructure:"flags" json:"flags"`
}

// Settings holds the text-quality thresholds.
type Settings struct {
	MinTextLength          int            `mapstructure:"min_text_length" json:"min_text_length"`
	MinTextLengthOverrides map[string]int `mapstructure:"min_text_length_overrides" json:"min_text_length_overrides"`
}

// keyword pairs the original configured term with its normalized form used
// for matching. Evidence always reports the original term.
type keyword struct {
	original   string
	normalized string
}

func compileKeywords(terms []string) []keyword {
	out := make([]keyword, 0, len(terms))
	for _, term := range terms {
		norm := Normalize(term)
		if norm == "" {
			continue
		}
		out = append(out, keyword{original: term, normalized: norm})
	}
	return out
}

type wildcardDomainRule struct {
	suffix   string // ".go.kr" for the pattern "*.go.kr"
	keywords []keyword
}

type regexRule struct {
	pattern string
	re      *regexp.Regexp
}

type lengthOverride struct {
	suffix string
	min    int
}

// Matcher is the compiled, ordered keyword rule set. It is immutable after
// Compile and safe for concurrent use.
type Matcher struct {
	exactDomain    map[string][]keyword
	wildcardDomain []wildcardDomainRule
	global         []keyword
	neutral        []keyword
	regexes        []regexRule

	minTextLength  int
	minLenExact    map[string]int
	minLenWildcard []lengthOverride
}

// DefaultMinTextLength applies when settings.min_text_length is absent.
const DefaultMinTextLength = 60

// Compile validates and compiles the keyword configuration once at load
// time. Invalid regex patterns are configuration errors and fail fast.
func Compile(cfg KeywordConfig) (*Matcher, error) {
	m := &Matcher{
		exactDomain:   make(map[string][]keyword),
		global:        compileKeywords(cfg.GlobalKeywords),
		neutral:       compileKeywords(cfg.NeutralKeywords),
		minTextLength: cfg.Settings.MinTextLength,
		minLenExact:   make(map[string]int),
	}
	if m.minTextLength <= 0 {
		m.minTextLength = DefaultMinTextLength
	}

	for pattern, terms := range cfg.Domains {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		kws := compileKeywords(terms)
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			m.wildcardDomain = append(m.wildcardDomain, wildcardDomainRule{
				suffix:   "." + suffix,
				keywords: kws,
			})
			continue
		}
		m.exactDomain[pattern] = kws
	}

	for _, rk := range cfg.RegexKeywords {
		if strings.TrimSpace(rk.Pattern) == "" {
			continue
		}
		expr := rk.Pattern
		if strings.Contains(rk.Flags, "i") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile regex keyword %q: %w", rk.Pattern, err)
		}
		m.regexes = append(m.regexes, regexRule{pattern: rk.Pattern, re: re})
	}

	// Domains arrive as a map; fix wildcard order so rule precedence does
	// not depend on iteration order.
	sort.Slice(m.wildcardDomain, func(i, j int) bool {
		return m.wildcardDomain[i].suffix < m.wildcardDomain[j].suffix
	})

	for pattern, min := range cfg.Settings.MinTextLengthOverrides {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" || min <= 0 {
			continue
		}
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			m.minLenWildcard = append(m.minLenWildcard, lengthOverride{suffix: "." + suffix, min: min})
			continue
		}
		m.minLenExact[pattern] = min
	}
	sort.Slice(m.minLenWildcard, func(i, j int) bool {
		return m.minLenWildcard[i].suffix < m.minLenWildcard[j].suffix
	})

	return m, nil
}

// MatchNegative searches the normalized text for a failure indicator. Search
// order: exact-domain list, wildcard-domain lists, global list, regex
// patterns. The first hit wins and its original term is returned.
func (m *Matcher) MatchNegative(text, host string) (string, bool) {
	host = strings.ToLower(host)
	if kws, ok := m.exactDomain[host]; ok {
		if term, found := matchKeywords(text, kws); found {
			return term, true
		}
	}
	for _, rule := range m.wildcardDomain {
		if !strings.HasSuffix(host, rule.suffix) {
			continue
		}
		if term, found := matchKeywords(text, rule.keywords); found {
			return term, true
		}
	}
	if term, found := matchKeywords(text, m.global); found {
		return term, true
	}
	for _, rr := range m.regexes {
		if rr.re.MatchString(text) {
			return rr.pattern, true
		}
	}
	return "", false
}

// MatchNeutral searches the normalized text for an informational keyword
// (planned maintenance notices and the like).
func (m *Matcher) MatchNeutral(text string) (string, bool) {
	return matchKeywords(text, m.neutral)
}

// MinTextLength resolves the short-text threshold for a host: exact override
// first, then wildcard override, then the global default.
func (m *Matcher) MinTextLength(host string) int {
	host = strings.ToLower(host)
	if min, ok := m.minLenExact[host]; ok {
		return min
	}
	for _, o := range m.minLenWildcard {
		if strings.HasSuffix(host, o.suffix) {
			return o.min
		}
	}
	return m.minTextLength
}

func matchKeywords(text string, kws []keyword) (string, bool) {
	for _, kw := range kws {
		if strings.Contains(text, kw.normalized) {
			return kw.original, true
		}
	}
	return "", false
}
