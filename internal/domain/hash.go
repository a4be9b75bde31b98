package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash is a 32-byte digest, canonically produced via NewHash (SHA-256 of an
// input byte sequence). It round-trips through lowercase hex.
type Hash [sha256.Size]byte

// NewHash computes the SHA-256 digest of data.
func NewHash(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// ParseHash decodes a 64-character, case-insensitive hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	if len(s) != hex.EncodedLen(sha256.Size) {
		return Hash{}, &ParseError{Kind: "Hash", Input: s}
	}
	var h Hash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return Hash{}, &ParseError{Kind: "Hash", Input: s, Cause: err}
	}
	return h, nil
}

// String renders h as fixed-width lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Equal reports whether h and other are the same digest.
func (h Hash) Equal(other Hash) bool {
	return h == other
}

// MarshalText implements encoding.TextMarshaler so TOML/JSON encode Hash as
// its hex string.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
