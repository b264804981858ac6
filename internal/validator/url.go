// Package validator enforces URL shape and custom-alias grammar, and
// generates alternative alias suggestions on collision.
package validator

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"urlshort/internal/apperr"
)

const maxURLBytes = 2048

// AliasAvailabilityChecker is the narrow store capability the alias
// checker needs: is this code already taken by a non-deleted mapping.
type AliasAvailabilityChecker interface {
	Exists(ctx context.Context, shortCode string) (bool, error)
}

var aliasGrammar = regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)

// ValidateURL parses and normalizes a long URL, enforcing scheme, host,
// and length constraints as an explicit, reusable check: net/url.Parse
// alone confirms only that a string parses, not that it has an
// allow-listed scheme, a host, or fits the 2048-byte cap this service
// requires.
func ValidateURL(raw string) (sanitized string, err error) {
	if len(raw) > maxURLBytes {
		return "", apperr.InvalidURL(fmt.Sprintf("url exceeds maximum length of %d bytes", maxURLBytes))
	}
	u, parseErr := url.Parse(strings.TrimSpace(raw))
	if parseErr != nil {
		return "", apperr.InvalidURL("url could not be parsed")
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", apperr.InvalidURL("url scheme must be http or https")
	}
	if u.Host == "" {
		return "", apperr.InvalidURL("url must include a host")
	}

	u.Scheme = scheme
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}

	sanitized = u.String()
	if len(sanitized) > maxURLBytes {
		return "", apperr.InvalidURL(fmt.Sprintf("url exceeds maximum length of %d bytes", maxURLBytes))
	}
	return sanitized, nil
}

// ValidateAliasGrammar enforces the canonical ^[A-Za-z0-9_-]{3,30}$
// grammar, preserving the caller's case.
func ValidateAliasGrammar(alias string) (sanitized string, err error) {
	trimmed := strings.TrimSpace(alias)
	if !aliasGrammar.MatchString(trimmed) {
		return "", apperr.InvalidAlias("alias must be 3-30 characters of letters, digits, underscore, or hyphen")
	}
	return trimmed, nil
}

// CheckAliasAvailability reports whether alias is free to claim.
func CheckAliasAvailability(ctx context.Context, checker AliasAvailabilityChecker, alias string) (bool, error) {
	exists, err := checker.Exists(ctx, alias)
	if err != nil {
		return false, apperr.StoreUnavailable(err)
	}
	return !exists, nil
}
