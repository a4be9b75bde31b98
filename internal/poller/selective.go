package poller

import (
	"context"
	"sync"

	"github.com/namba3/patrol/internal/domain"
)

// SelectivePoller implements C6: it partitions a batch of targets by
// domain.Mode and routes each partition to the HTTP or browser poller,
// merging both result streams as they arrive rather than waiting for the
// slower lane to finish before the faster lane's results are usable.
type SelectivePoller struct {
	http    *HTTPPoller
	browser *BrowserPoller
}

// NewSelectivePoller returns a SelectivePoller backed by http for
// domain.ModeSimple targets and browser for domain.ModeFull targets.
func NewSelectivePoller(http *HTTPPoller, browser *BrowserPoller) *SelectivePoller {
	return &SelectivePoller{http: http, browser: browser}
}

// Poll routes a single target by its Mode. It exists to satisfy the Poller
// interface; the engine's batch path goes through PollMultiple.
func (p *SelectivePoller) Poll(ctx context.Context, cfg domain.Config) (string, error) {
	if cfg.Mode == domain.ModeSimple {
		text, err := p.http.Poll(ctx, cfg)
		if err != nil {
			return "", &TaggedError{Mode: string(domain.ModeSimple), Err: err}
		}
		return text, nil
	}
	text, err := p.browser.Poll(ctx, cfg)
	if err != nil {
		return "", &TaggedError{Mode: string(domain.ModeFull), Err: err}
	}
	return text, nil
}

// PollMultiple partitions configs into a Simple subset (routed to the HTTP
// poller) and a Full subset (routed to the browser poller), starts both
// substreams concurrently, and merges their results onto a single output
// channel as each arrives. Errors from either lane are wrapped in a
// TaggedError naming which lane produced them. The merged channel closes
// once both substreams have ended.
func (p *SelectivePoller) PollMultiple(ctx context.Context, configs map[domain.Id]domain.Config) <-chan Result {
	simple := make(map[domain.Id]domain.Config)
	full := make(map[domain.Id]domain.Config)
	for id, cfg := range configs {
		if cfg.Mode == domain.ModeSimple {
			simple[id] = cfg
		} else {
			full[id] = cfg
		}
	}

	out := make(chan Result, len(configs))

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		merge(out, p.http.PollMultiple(ctx, simple), string(domain.ModeSimple))
	}()
	go func() {
		defer wg.Done()
		merge(out, p.browser.PollMultiple(ctx, full), string(domain.ModeFull))
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// merge copies every Result from in to out, tagging any error with mode so
// the caller can tell which lane it came from.
func merge(out chan<- Result, in <-chan Result, mode string) {
	for r := range in {
		if r.Err != nil {
			r.Err = &TaggedError{Mode: mode, Err: r.Err}
		}
		out <- r
	}
}
