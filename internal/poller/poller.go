package poller

import (
	"context"

	"github.com/namba3/patrol/internal/domain"
)

// Result is one target's outcome from a PollMultiple stream: either Text is
// populated and Err is nil, or vice versa.
type Result struct {
	Id   domain.Id
	Text string
	Err  error
}

// Poller is the shape shared by the HTTP poller (C4), the browser poller
// (C5), and the selective router (C6).
type Poller interface {
	Poll(ctx context.Context, cfg domain.Config) (string, error)
	PollMultiple(ctx context.Context, configs map[domain.Id]domain.Config) <-chan Result
}

var (
	_ Poller = (*HTTPPoller)(nil)
	_ Poller = (*BrowserPoller)(nil)
	_ Poller = (*SelectivePoller)(nil)
)
