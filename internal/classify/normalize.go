package classify

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares text for keyword matching: Unicode compatibility
// folding (NFKC), whitespace collapsing, and case folding, in that order.
// Keyword terms and page text go through the same pipeline so substring
// matching is insensitive to encoding and spacing noise.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}
