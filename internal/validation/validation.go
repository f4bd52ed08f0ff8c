// Package validation contains the pure input checks applied before any
// store interaction. All functions are total boolean predicates with no
// side effects.
package validation

import (
	"net/url"
	"regexp"
)

// DefaultMaxURLLength is the maximum accepted length for an original URL
// when no explicit limit is configured.
const DefaultMaxURLLength = 2048

var shortCodeRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

// IsValidURL reports whether s parses as an absolute URL with an http or
// https scheme and a non-empty host.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != ""
}

// ValidateURLLength reports whether s fits within maxLength bytes.
func ValidateURLLength(s string, maxLength int) bool {
	return len(s) <= maxLength
}

// IsValidShortCode reports whether s is 3-20 characters long and consists
// only of letters, digits, underscores and hyphens. Codes are case-sensitive.
func IsValidShortCode(s string) bool {
	return shortCodeRegexp.MatchString(s)
}
