// Package domain holds the plain data types shared across the shortener,
// redirect, cache, and analytics packages.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// URLMapping is the authoritative row for a short code.
type URLMapping struct {
	ID             uuid.UUID
	ShortCode      string
	LongURL        string
	LongURLHash    [32]byte
	UserID         *uuid.UUID
	IsCustomAlias  bool
	CreatedAt      time.Time
	LastAccessedAt time.Time
	ExpiresAt      *time.Time
	DeletedAt      *time.Time
	AccessCount    int64
	IsDeleted      bool
}

// Expired reports whether the mapping's TTL has passed as of now, using
// second-level precision per the mapping's expiry invariant.
func (m *URLMapping) Expired(now time.Time) bool {
	if m.ExpiresAt == nil {
		return false
	}
	return !m.ExpiresAt.After(now.Truncate(time.Second))
}

// Resolvable reports whether the mapping may be served to a redirect
// request: not soft-deleted and not expired.
func (m *URLMapping) Resolvable(now time.Time) bool {
	return !m.IsDeleted && !m.Expired(now)
}
