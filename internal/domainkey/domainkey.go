// Package domainkey derives the stable grouping key for a URL.
package domainkey

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL marks a URL that could not be parsed or carries no
// usable scheme/host. Callers skip the single tab and continue.
var ErrInvalidURL = errors.New("invalid url")

// ErrExcludedScheme marks a URL on a scheme that is never grouped
// (extension-internal and browser-internal pages).
var ErrExcludedScheme = errors.New("excluded scheme")

// Schemes that are never grouped. Extension pages and browser-internal
// pages would otherwise pollute the collection on every save.
var excludedSchemes = []string{"moz-extension", "chrome", "chrome-extension", "about", "resource"}

// Normalize derives the grouping key `scheme://host` from a raw URL.
// The key is stable under path, query, and fragment changes: two tabs
// differing only in path land in the same group.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing scheme or host", ErrInvalidURL, rawURL)
	}
	scheme := strings.ToLower(u.Scheme)
	for _, s := range excludedSchemes {
		if scheme == s {
			return "", fmt.Errorf("%w: %s", ErrExcludedScheme, scheme)
		}
	}
	return scheme + "://" + strings.ToLower(u.Host), nil
}

// IsDomain reports whether s looks like a normalized domain key rather
// than an arbitrary string, i.e. contains the scheme separator.
func IsDomain(s string) bool {
	return strings.Contains(s, "://")
}
