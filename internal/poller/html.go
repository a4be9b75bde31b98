package poller

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlDocumentFromString parses a full HTML document already captured as a
// string; the browser poller uses it for the rendered outerHTML. The HTTP
// poller parses its response body with goquery directly.
func htmlDocumentFromString(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
