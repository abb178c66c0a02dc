package classify

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// PageText carries the signals extracted from a sampled HTML body.
type PageText struct {
	Title    string
	MetaDesc string
	OGTitle  string
	OGDesc   string
	Noscript string
	BodyText string
}

// HasTitleSubstitute reports whether a missing <title> is acceptable because
// a meta description or Open Graph title/description stands in for it.
func (p PageText) HasTitleSubstitute() bool {
	return p.MetaDesc != "" || p.OGTitle != "" || p.OGDesc != ""
}

// Combined concatenates every extracted signal in a stable order for
// keyword scanning.
func (p PageText) Combined() string {
	parts := []string{p.Title, p.MetaDesc, p.OGTitle, p.OGDesc, p.Noscript, p.BodyText}
	return strings.Join(parts, " ")
}

// maxScanBytes bounds how much visible body text is retained for heuristics.
const maxScanBytes = 50_000

// ExtractText pulls title, meta/Open Graph descriptions, noscript text, and
// a bounded prefix of visible body text from an HTML sample. Decoding is
// best-effort: the charset is sniffed from the bytes, and on any parse
// failure the raw sample text is returned so classification can proceed.
func ExtractText(sample []byte) PageText {
	reader, err := charset.NewReader(bytes.NewReader(sample), "")
	if err != nil {
		reader = bytes.NewReader(sample)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return PageText{BodyText: truncate(string(sample), maxScanBytes)}
	}

	pt := PageText{
		Title:    cleanFragment(doc.Find("title").First().Text()),
		MetaDesc: cleanFragment(doc.Find(`meta[name="description"]`).First().AttrOr("content", "")),
		OGTitle:  cleanFragment(doc.Find(`meta[property="og:title"]`).First().AttrOr("content", "")),
		OGDesc:   cleanFragment(doc.Find(`meta[property="og:description"]`).First().AttrOr("content", "")),
		Noscript: cleanFragment(doc.Find("noscript").Text()),
	}

	body := doc.Find("body")
	body.Find("script, style").Remove()
	pt.BodyText = truncate(cleanFragment(body.Text()), maxScanBytes)
	return pt
}

func cleanFragment(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Cut on a rune boundary so normalization sees valid UTF-8.
	cut := n
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut]
}
