package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashRoundTrip(t *testing.T) {
	inputs := [][]byte{
		[]byte(""),
		[]byte("hello\nworld"),
		[]byte("the quick brown fox jumps over the lazy dog"),
	}
	for _, in := range inputs {
		h := NewHash(in)
		parsed, err := ParseHash(h.String())
		require.NoError(t, err)
		assert.Equal(t, h, parsed)
	}
}

func TestParseHashRejectsBadInput(t *testing.T) {
	_, err := ParseHash("not-hex")
	assert.Error(t, err)

	_, err = ParseHash("abcd")
	assert.Error(t, err)

	var pe *ParseError
	_, err = ParseHash("zz")
	require.Error(t, err)
	assert.ErrorAs(t, err, &pe)
}

func TestParseIDRoundTrip(t *testing.T) {
	id, err := ParseID("target-1")
	require.NoError(t, err)
	assert.Equal(t, "target-1", id.String())

	_, err = ParseID("")
	assert.Error(t, err)
}

func TestNewIDIsLowercaseHex32(t *testing.T) {
	id := NewID()
	assert.Len(t, string(id), 32)
	for _, r := range string(id) {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'))
	}
}

func TestParseUrlRequiresAbsolute(t *testing.T) {
	_, err := ParseUrl("/relative/path")
	assert.Error(t, err)

	u, err := ParseUrl("https://example.com/page")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", u.String())
}

func TestParseSelectorValidatesCSS(t *testing.T) {
	_, err := ParseSelector(":::not-a-selector")
	assert.Error(t, err)

	sel, err := ParseSelector("div.article > p")
	require.NoError(t, err)
	assert.Equal(t, "div.article > p", sel.String())
}

func TestTimestampOrderingAndDisplay(t *testing.T) {
	t0 := NewTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	t1 := t0.Add(Minutes(1))
	assert.True(t, t0.Before(t1))
	assert.True(t, t1.After(t0))
	assert.Equal(t, "2026-01-02 03:04:05", t0.String())
	assert.Equal(t, Minutes(1), t1.Sub(t0))
}

func TestDurationIsNonNegative(t *testing.T) {
	assert.Equal(t, time.Duration(0), Seconds(-5).Stdlib())
	assert.Equal(t, 90*time.Second, Minutes(1.5).Stdlib())
}

func TestParseModeDefaultsToFull(t *testing.T) {
	assert.Equal(t, ModeFull, ParseMode(""))
	assert.Equal(t, ModeFull, ParseMode("nonsense"))
	assert.Equal(t, ModeSimple, ParseMode("simple"))
}

func TestDataCloneIsIndependent(t *testing.T) {
	h := NewHash([]byte("x"))
	ts := Now()
	d := Data{Hash: &h, LastUpdated: &ts, LastChecked: ts}

	clone := d.Clone()
	*clone.Hash = NewHash([]byte("y"))

	assert.NotEqual(t, *d.Hash, *clone.Hash)
}
