package browser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// DOMByteLimit bounds captureState's dom field.
const DOMByteLimit = 100 * 1024

// PageTextByteLimit bounds pageText's sanitized output.
const PageTextByteLimit = 3 * 1024

// truncateDOM bounds raw captured HTML to DOMByteLimit bytes, body-preferred
// (the caller already queries "body" rather than the full document).
func truncateDOM(dom string) string {
	return truncateBytes(dom, DOMByteLimit)
}

// sanitizeText strips scripts and styles from raw page HTML and returns
// plain visible text bounded to PageTextByteLimit. It prefers
// go-readability's article extraction, which already discards nav/ads/
// boilerplate, and falls back to a goquery-based strip of the full body
// when readability can't parse an article out of the page (common for
// app-shell or e-commerce pages that aren't article-shaped).
func sanitizeText(html string) string {
	if article, err := readability.FromReader(strings.NewReader(html), &url.URL{}); err == nil && strings.TrimSpace(article.TextContent) != "" {
		return truncateBytes(normalizeWhitespace(article.TextContent), PageTextByteLimit)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return truncateBytes(normalizeWhitespace(doc.Text()), PageTextByteLimit)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
