package domain

import "github.com/andybalholm/cascadia"

// Selector is a string known to parse as a valid CSS selector. Parsing is
// delegated to cascadia (the selector engine goquery itself is built on) so
// validation tracks exactly what the HTTP and browser pollers will later
// accept.
type Selector string

// ParseSelector validates s as a CSS selector and returns it unmodified.
func ParseSelector(s string) (Selector, error) {
	if _, err := cascadia.Compile(s); err != nil {
		return "", &ParseError{Kind: "Selector", Input: s, Cause: err}
	}
	return Selector(s), nil
}

func (s Selector) String() string {
	return string(s)
}
