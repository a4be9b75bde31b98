package domain

import "net/url"

// Url is a string known to parse as a syntactically valid absolute URL. It is
// stored and displayed verbatim; no normalization is performed.
type Url string

// ParseUrl validates that s is an absolute URL (has both a scheme and a
// host) and returns it unmodified.
func ParseUrl(s string) (Url, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", &ParseError{Kind: "Url", Input: s, Cause: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return "", &ParseError{Kind: "Url", Input: s, Cause: errNotAbsolute}
	}
	return Url(s), nil
}

var errNotAbsolute = urlNotAbsoluteError{}

type urlNotAbsoluteError struct{}

func (urlNotAbsoluteError) Error() string { return "url is not absolute" }

func (u Url) String() string {
	return string(u)
}
