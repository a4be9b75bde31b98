package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Id is an opaque, non-empty target identifier. Equality, hashing (as a map
// key), and ordering are all byte-sequence based since Id is a defined string
// type.
type Id string

// NewID mints a fresh id: a 32-char lowercase-hex UUIDv4 with hyphens
// stripped, matching the format Patrol writes for targets it creates itself.
func NewID() Id {
	return Id(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// ParseID accepts any non-empty externally supplied id verbatim.
func ParseID(s string) (Id, error) {
	if s == "" {
		return "", &ParseError{Kind: "Id", Input: s}
	}
	return Id(s), nil
}

// String implements fmt.Stringer and round-trips through ParseID.
func (id Id) String() string {
	return string(id)
}

// Less reports whether id sorts before other by byte sequence.
func (id Id) Less(other Id) bool {
	return id < other
}
