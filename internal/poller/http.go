package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/namba3/patrol/internal/domain"
)

// httpClientTimeout bounds a single GET, matching the browser poller's 30s
// element-wait budget so the two pollers have comparable worst-case
// latency.
const httpClientTimeout = 30 * time.Second

// HTTPPoller implements C4: a plain GET-and-parse poller for targets whose
// content doesn't require a rendered DOM.
type HTTPPoller struct {
	client *http.Client
}

// NewHTTPPoller returns an HTTPPoller backed by a dedicated http.Client,
// rather than http.DefaultClient, so its timeout and transport can't be
// mutated out from under concurrent pollers.
func NewHTTPPoller() *HTTPPoller {
	return &HTTPPoller{client: &http.Client{Timeout: httpClientTimeout}}
}

// Poll issues a GET to cfg.Url, parses the body as HTML, and returns the
// newline-joined concatenation of the trimmed, non-empty text nodes under
// every element matching cfg.Selector (see extractText).
func (p *HTTPPoller) Poll(ctx context.Context, cfg domain.Config) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Url.String(), nil)
	if err != nil {
		return "", &HttpError{Url: cfg.Url.String(), Err: err}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &HttpError{Url: cfg.Url.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HttpError{
			Url: cfg.Url.String(),
			Err: fmt.Errorf("unexpected status %d %s", resp.StatusCode, resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &HttpError{Url: cfg.Url.String(), Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", &HttpError{Url: cfg.Url.String(), Err: fmt.Errorf("parse html: %w", err)}
	}

	return extractText(doc.Selection, cfg.Selector.String()), nil
}

// extractText concatenates, with "\n" between each, the trimmed, non-blank
// text of every descendant text node under every match of sel under root —
// one line per text node, not one line per matched element, so mixed
// inline markup like "<p>Hello <b>World</b></p>" yields "Hello\nWorld"
// rather than a single space-joined line.
func extractText(root *goquery.Selection, sel string) string {
	var lines []string
	root.Find(sel).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			collectTextNodes(n, &lines)
		}
	})
	return strings.Join(lines, "\n")
}

// collectTextNodes appends the trimmed, non-blank content of every text
// node in n's subtree (n included) to lines, in document order.
func collectTextNodes(n *html.Node, lines *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*lines = append(*lines, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTextNodes(c, lines)
	}
}

// PollMultiple fans Poll out across configs concurrently and streams one
// Result per id as it completes; the channel is closed once every target
// has reported.
func (p *HTTPPoller) PollMultiple(ctx context.Context, configs map[domain.Id]domain.Config) <-chan Result {
	out := make(chan Result, len(configs))
	go func() {
		defer close(out)
		done := make(chan Result)
		for id, cfg := range configs {
			go func(id domain.Id, cfg domain.Config) {
				text, err := p.Poll(ctx, cfg)
				done <- Result{Id: id, Text: text, Err: err}
			}(id, cfg)
		}
		for range configs {
			out <- <-done
		}
	}()
	return out
}
