package poller

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
)

// Pool is a fixed-size pool of long-lived browser sessions, one per
// WebDriver port passed via --webdriver-ports. Acquire
// blocks until a session is available and Lease.Release returns it; the
// pool is modeled as a channel pre-loaded with one token per session,
// which gives approximately-FIFO fairness among waiters without a
// separate queue data structure.
type Pool struct {
	sessions chan *session
	mu       sync.Mutex
	closed   bool
}

type session struct {
	port   int
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool establishes one chromedp session per port and returns a Pool
// holding all of them. If any session fails to establish, the sessions
// already opened are torn down and a SessionError is returned.
func NewPool(ctx context.Context, ports []int) (*Pool, error) {
	p := &Pool{sessions: make(chan *session, len(ports))}

	for _, port := range ports {
		allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, fmt.Sprintf("http://127.0.0.1:%d", port))
		sessCtx, sessCancel := chromedp.NewContext(allocCtx)

		if err := chromedp.Run(sessCtx, chromedp.Navigate("about:blank")); err != nil {
			sessCancel()
			allocCancel()
			p.closeAll()
			return nil, &SessionError{Port: port, Err: err}
		}

		p.sessions <- &session{
			port: port,
			ctx:  sessCtx,
			cancel: func() {
				sessCancel()
				allocCancel()
			},
		}
	}

	return p, nil
}

// Acquire blocks until a session is free or ctx is done, and returns a
// Lease wrapping it. The caller must call Lease.Release exactly once,
// from every exit path (defer is the idiomatic spot), to return the
// session to the pool.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case s := <-p.sessions:
		return &Lease{pool: p, session: s}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close tears down every session in the pool. It must only be called once
// all leases have been released.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.closeAll()
}

func (p *Pool) closeAll() {
	close(p.sessions)
	for s := range p.sessions {
		s.cancel()
	}
}

// Lease is a single checked-out browser session. Release returns it to the
// pool; calling Release more than once is a no-op, so it is safe to defer
// unconditionally even when other code paths also release explicitly.
type Lease struct {
	pool    *Pool
	session *session
	once    sync.Once
}

func (l *Lease) Release() {
	l.once.Do(func() {
		l.pool.sessions <- l.session
	})
}

// Context returns the chromedp context bound to this lease's session.
func (l *Lease) Context() context.Context { return l.session.ctx }

// Port reports the WebDriver port this lease's session is attached to, for
// logging and metrics.
func (l *Lease) Port() int { return l.session.port }
