package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namba3/patrol/internal/domain"
)

func TestDocUpdateMarshalsDisplayTimestamp(t *testing.T) {
	ts := domain.NewTimestamp(time.Date(2026, 7, 31, 12, 30, 0, 0, time.UTC))
	u, err := domain.ParseUrl("https://example.com")
	require.NoError(t, err)

	update := DocUpdate{Id: mustRealtimeID(t, "a"), Url: u, Timestamp: ts}

	out, err := json.Marshal(update)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "a", decoded["id"])
	assert.Equal(t, "https://example.com", decoded["url"])
	assert.Equal(t, "2026-07-31 12:30:00", decoded["timestamp"])
}
