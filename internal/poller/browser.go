package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/namba3/patrol/internal/domain"
)

// elementWaitTimeout bounds how long the browser poller waits for
// cfg.Selector to become visible before giving up.
const elementWaitTimeout = 30 * time.Second

// BrowserPoller implements C5: a pool-backed poller for targets whose
// content only appears after JavaScript has run.
type BrowserPoller struct {
	pool *Pool
	log  *slog.Logger
}

// NewBrowserPoller returns a BrowserPoller drawing sessions from pool.
func NewBrowserPoller(pool *Pool, log *slog.Logger) *BrowserPoller {
	if log == nil {
		log = slog.Default()
	}
	return &BrowserPoller{pool: pool, log: log.With("component", "browser_poller")}
}

// Poll acquires a leased session, navigates it to cfg.Url, waits for the
// html element to exist, optionally sleeps cfg.WaitSeconds for content
// that only finishes rendering after a delay, then waits (up to a fresh
// elementWaitTimeout that starts only once the sleep is over) for
// cfg.Selector to become visible, and returns its concatenated text
// exactly as extractText does for the HTTP poller. Navigating the tab
// back to about:blank afterward is a best-effort cleanup step: a failure
// there is logged but never changes the returned result, mirroring the
// original poller's non-fatal treatment of that step.
func (p *BrowserPoller) Poll(ctx context.Context, cfg domain.Config) (string, error) {
	lease, err := p.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer lease.Release()

	sel := cfg.Selector.String()

	if err := chromedp.Run(lease.Context(),
		chromedp.Navigate(cfg.Url.String()),
		chromedp.WaitReady("html", chromedp.ByQuery),
	); err != nil {
		p.resetToBlank(lease)
		return "", &CommandError{Url: cfg.Url.String(), Err: err}
	}

	if cfg.WaitSeconds != nil {
		select {
		case <-time.After(time.Duration(*cfg.WaitSeconds) * time.Second):
		case <-ctx.Done():
			p.resetToBlank(lease)
			return "", ctx.Err()
		}
	}

	// The element-wait budget starts here, after the wait_seconds sleep has
	// already elapsed, so a long sleep never eats into the time allotted
	// for the selector itself to appear.
	waitCtx, cancel := context.WithTimeout(lease.Context(), elementWaitTimeout)
	defer cancel()

	err = chromedp.Run(waitCtx, chromedp.WaitVisible(sel, chromedp.ByQueryAll))
	if err != nil {
		p.resetToBlank(lease)
		if waitCtx.Err() != nil {
			return "", &TimeoutError{Url: cfg.Url.String(), Selector: sel}
		}
		return "", &CommandError{Url: cfg.Url.String(), Err: err}
	}

	var html string
	err = chromedp.Run(waitCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	p.resetToBlank(lease)
	if err != nil {
		if waitCtx.Err() != nil {
			return "", &TimeoutError{Url: cfg.Url.String(), Selector: sel}
		}
		return "", &CommandError{Url: cfg.Url.String(), Err: err}
	}

	doc, err := htmlDocumentFromString(html)
	if err != nil {
		return "", &CommandError{Url: cfg.Url.String(), Err: err}
	}
	return extractText(doc.Selection, sel), nil
}

// resetToBlank navigates the leased tab back to about:blank so the next
// caller of this session doesn't inherit a stale page. Errors are logged,
// never surfaced: this is cleanup, not part of the poll's result.
func (p *BrowserPoller) resetToBlank(lease *Lease) {
	if err := chromedp.Run(lease.Context(), chromedp.Navigate("about:blank")); err != nil {
		p.log.Warn("failed to reset browser tab to about:blank", "port", lease.Port(), "error", err)
	}
}

// PollMultiple fans Poll out across configs; because all targets share one
// Pool, concurrency here is naturally bounded by pool size rather than by
// len(configs).
func (p *BrowserPoller) PollMultiple(ctx context.Context, configs map[domain.Id]domain.Config) <-chan Result {
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
