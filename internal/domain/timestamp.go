package domain

import "time"

const timestampLayout = "2006-01-02 15:04:05"

// Timestamp is a UTC instant with nanosecond resolution. It is totally
// ordered and displays as "YYYY-MM-DD HH:MM:SS".
type Timestamp struct {
	t time.Time
}

// Now returns the current instant as a Timestamp.
func Now() Timestamp {
	return Timestamp{t: time.Now().UTC()}
}

// NewTimestamp wraps an arbitrary time.Time, normalizing it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t.UTC()}
}

// Time returns the underlying time.Time value.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// Add returns ts advanced by d.
func (ts Timestamp) Add(d Duration) Timestamp {
	return Timestamp{t: ts.t.Add(d.d)}
}

// Sub returns the Duration elapsed between other and ts (ts - other). If
// other is after ts the result is clamped to zero, since Duration is
// non-negative.
func (ts Timestamp) Sub(other Timestamp) Duration {
	d := ts.t.Sub(other.t)
	if d < 0 {
		d = 0
	}
	return Duration{d: d}
}

// Before reports whether ts is strictly before other.
func (ts Timestamp) Before(other Timestamp) bool {
	return ts.t.Before(other.t)
}

// After reports whether ts is strictly after other.
func (ts Timestamp) After(other Timestamp) bool {
	return ts.t.After(other.t)
}

// Equal reports whether ts and other represent the same instant.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.t.Equal(other.t)
}

// String formats ts as "YYYY-MM-DD HH:MM:SS".
func (ts Timestamp) String() string {
	return ts.t.Format(timestampLayout)
}

// MarshalText implements encoding.TextMarshaler, encoding ts as an
// RFC3339Nano string. The data store's TOML file does not go through it: it
// stores time.Time fields, which BurntSushi/toml encodes as native
// datetimes.
func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.t.Format(time.RFC3339Nano)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ts *Timestamp) UnmarshalText(text []byte) error {
	t, err := time.Parse(time.RFC3339Nano, string(text))
	if err != nil {
		return err
	}
	ts.t = t.UTC()
	return nil
}
