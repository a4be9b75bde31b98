package realtime

import (
	"sync"
)

// subscriberCapacity bounds how many undelivered DocUpdates a slow
// subscriber can accumulate before the broadcaster starts dropping its
// oldest queued event to make room for the newest one.
const subscriberCapacity = 100

// Subscriber is a single WebSocket client's view onto the broadcaster: a
// bounded, per-client event queue plus a done signal for cleanup.
type Subscriber struct {
	id     string
	events chan DocUpdate

	closeOnce sync.Once
	closed    chan struct{}
}

func newSubscriber(id string) *Subscriber {
	return &Subscriber{
		id:     id,
		events: make(chan DocUpdate, subscriberCapacity),
		closed: make(chan struct{}),
	}
}

// ID returns the subscriber's unique id, assigned at Subscribe time.
func (s *Subscriber) ID() string { return s.id }

// Events returns the channel of DocUpdates pushed to this subscriber. The
// channel is never closed; the caller (the WebSocket server, C13) receives
// from it alongside Done to notice teardown.
func (s *Subscriber) Events() <-chan DocUpdate { return s.events }

// Close marks this client closed, so Publish stops delivering to it; it
// does not remove it from the Broadcaster (Unsubscribe does that). It is
// safe to call more than once.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}

// Done returns a channel closed once Close has been called, so callers
// holding only a *Subscriber (not the Broadcaster) can notice it was torn
// down, e.g. to stop pushing to Events().
func (s *Subscriber) Done() <-chan struct{} { return s.closed }

func (s *Subscriber) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// deliver pushes event to the subscriber's queue. If the queue is full,
// the oldest queued event is dropped to make room, so a slow subscriber
// loses history rather than stalling the broadcaster. It reports whether a
// drop occurred, for metrics.
func (s *Subscriber) deliver(event DocUpdate) (dropped bool) {
	select {
	case s.events <- event:
		return false
	default:
	}

	select {
	case <-s.events:
		dropped = true
	default:
	}

	select {
	case s.events <- event:
	default:
		// Another goroutine raced us and refilled the slot; give up
		// rather than block the broadcaster.
	}
	return dropped
}
