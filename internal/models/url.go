package models

import "time"

// URL represents a shortened URL and its associated metadata.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// ShortCode is the short code or key associated with the original URL.
	ShortCode string
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
	// ExpiresAt is the optional timestamp after which the URL stops redirecting.
	// A nil value means the URL never expires.
	ExpiresAt *time.Time
	// ClickCount tracks the number of times the shortened URL has been resolved.
	ClickCount int64
	// IsActive reports whether the URL still accepts redirects. Once false,
	// the record is never reactivated.
	IsActive bool
}

// IsExpired reports whether the URL is past its expiry timestamp at the given moment.
func (u *URL) IsExpired(now time.Time) bool {
	return u.ExpiresAt != nil && u.ExpiresAt.Before(now)
}
