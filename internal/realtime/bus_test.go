package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namba3/patrol/internal/domain"
)

func mustRealtimeID(t *testing.T, s string) domain.Id {
	t.Helper()
	id, err := domain.ParseID(s)
	require.NoError(t, err)
	return id
}

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster(nil, nil)
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	defer b.Unsubscribe(s1)
	defer b.Unsubscribe(s2)

	b.Publish(DocUpdate{Id: mustRealtimeID(t, "a"), Timestamp: domain.Now()})

	select {
	case <-s1.Events():
	case <-time.After(time.Second):
		t.Fatal("s1 never received event")
	}
	select {
	case <-s2.Events():
	case <-time.After(time.Second):
		t.Fatal("s2 never received event")
	}
}

func TestBroadcasterDropsOldestWhenSubscriberQueueFull(t *testing.T) {
	b := NewBroadcaster(nil, nil)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for i := 0; i < subscriberCapacity+10; i++ {
		b.Publish(DocUpdate{Id: mustRealtimeID(t, "a"), Timestamp: domain.NewTimestamp(time.Unix(int64(i), 0))})
	}

	assert.LessOrEqual(t, len(sub.Events()), subscriberCapacity)
	// The first 10 events were the oldest, so they were the ones dropped.
	oldest := <-sub.Events()
	assert.Equal(t, time.Unix(10, 0).UTC(), oldest.Timestamp.Time())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster(nil, nil)
	sub := b.Subscribe()
	b.Unsubscribe(sub)

	assert.Equal(t, 0, b.ActiveSubscribers())

	b.Publish(DocUpdate{Id: mustRealtimeID(t, "a"), Timestamp: domain.Now()})
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "closed subscriber's channel should not receive or should be drained/empty")
	default:
	}
}

func TestActiveSubscribersCount(t *testing.T) {
	b := NewBroadcaster(nil, nil)
	assert.Equal(t, 0, b.ActiveSubscribers())
	s1 := b.Subscribe()
	assert.Equal(t, 1, b.ActiveSubscribers())
	b.Subscribe()
	assert.Equal(t, 2, b.ActiveSubscribers())
	b.Unsubscribe(s1)
	assert.Equal(t, 1, b.ActiveSubscribers())
}
