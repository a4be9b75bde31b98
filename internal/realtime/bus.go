package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Broadcaster fans DocUpdate events out to every subscribed WebSocket
// client (C9). A single Publish call never blocks on a slow client: each
// subscriber has its own bounded queue, and a full queue has its oldest
// entry dropped to make room for the new event.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber

	log     *slog.Logger
	metrics *Metrics
}

// NewBroadcaster returns an empty Broadcaster.
func NewBroadcaster(log *slog.Logger, metrics *Metrics) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]*Subscriber),
		log:         log.With("component", "broadcaster"),
		metrics:     metrics,
	}
}

// Subscribe registers a new client and returns its Subscriber handle. The
// caller must call Unsubscribe (typically via defer) when the client
// disconnects.
func (b *Broadcaster) Subscribe() *Subscriber {
	sub := newSubscriber(uuid.NewString())

	b.mu.Lock()
	b.subscribers[sub.id] = sub
	count := len(b.subscribers)
	b.mu.Unlock()

	b.log.Debug("subscriber added", "subscriber_id", sub.id, "total", count)
	if b.metrics != nil {
		b.metrics.ConnectionsActive.Set(float64(count))
	}
	return sub
}

// Unsubscribe removes sub from the broadcaster and closes it.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	_, ok := b.subscribers[sub.id]
	delete(b.subscribers, sub.id)
	count := len(b.subscribers)
	b.mu.Unlock()

	if !ok {
		return
	}
	sub.Close()

	b.log.Debug("subscriber removed", "subscriber_id", sub.id, "total", count)
	if b.metrics != nil {
		b.metrics.ConnectionsActive.Set(float64(count))
	}
}

// ActiveSubscribers reports how many clients are currently subscribed.
func (b *Broadcaster) ActiveSubscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish fans event out to every subscriber concurrently. It never
// blocks on a slow or dead subscriber.
func (b *Broadcaster) Publish(event DocUpdate) {
	start := time.Now()

	b.mu.RLock()
	subs := make([]*Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	if b.metrics != nil {
		b.metrics.EventsPublished.Inc()
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *Subscriber) {
			defer wg.Done()
			if sub.isClosed() {
				return
			}
			if dropped := sub.deliver(event); dropped {
				b.log.Warn("subscriber queue full, dropped oldest event", "subscriber_id", sub.id)
				if b.metrics != nil {
					b.metrics.EventsDropped.Inc()
				}
			}
		}(sub)
	}
	wg.Wait()

	if b.metrics != nil {
		b.metrics.BroadcastDuration.Observe(time.Since(start).Seconds())
	}
}
