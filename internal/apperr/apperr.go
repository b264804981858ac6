// Package apperr defines the closed error taxonomy used across the
// service, replacing ad hoc string-matched errors with a stable,
// machine-readable error code carried alongside the HTTP status it maps
// to and whether the operation that produced it may be retried.
package apperr

import (
	"net/http"
	"strconv"
)

// Code is one of the stable machine-readable error codes named in the
// service's error taxonomy.
type Code string

const (
	CodeInvalidURL        Code = "INVALID_URL"
	CodeInvalidAlias      Code = "INVALID_ALIAS"
	CodeInvalidShortCode  Code = "INVALID_SHORT_CODE"
	CodeValidationError   Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeAliasTaken        Code = "ALIAS_TAKEN"
	CodeDuplicateCode     Code = "DUPLICATE_CODE"
	CodeURLNotFound       Code = "URL_NOT_FOUND"
	CodeURLExpired        Code = "URL_EXPIRED"
	CodeRouteNotFound     Code = "ROUTE_NOT_FOUND"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeCacheUnavailable  Code = "CACHE_UNAVAILABLE"
	CodeBusUnavailable    Code = "BUS_UNAVAILABLE"
	CodeStoreUnavailable  Code = "STORE_UNAVAILABLE"
	CodeGenerationFailed  Code = "GENERATION_FAILED"
	CodeAllocatorDown     Code = "ALLOCATOR_UNAVAILABLE"
	CodeHashExhausted     Code = "HASH_EXHAUSTED"
	CodeHashUnavailable   Code = "HASH_UNAVAILABLE"
)

// Error is the single error type returned by every core component.
type Error struct {
	Code       Code
	Message    string
	Details    []string
	Retryable  bool
	HTTPStatus int
	cause      error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

func New(code Code, status int, message string) *Error {
	return &Error{Code: code, HTTPStatus: status, Message: message}
}

func Wrap(code Code, status int, message string, cause error) *Error {
	return &Error{Code: code, HTTPStatus: status, Message: message, cause: cause}
}

func (e *Error) WithDetails(d ...string) *Error {
	clone := *e
	clone.Details = d
	return &clone
}

func (e *Error) WithRetryable(r bool) *Error {
	clone := *e
	clone.Retryable = r
	return &clone
}

// Constructors for each named taxonomy row.

func InvalidURL(msg string) *Error {
	return New(CodeInvalidURL, http.StatusBadRequest, msg)
}

func InvalidAlias(msg string) *Error {
	return New(CodeInvalidAlias, http.StatusBadRequest, msg)
}

func InvalidShortCode(msg string) *Error {
	return New(CodeInvalidShortCode, http.StatusBadRequest, msg)
}

func ValidationError(msg string) *Error {
	return New(CodeValidationError, http.StatusBadRequest, msg)
}

func Unauthorized(msg string) *Error {
	return New(CodeUnauthorized, http.StatusUnauthorized, msg)
}

func Forbidden(msg string) *Error {
	return New(CodeForbidden, http.StatusForbidden, msg)
}

func AliasTaken(msg string, suggestions []string) *Error {
	return New(CodeAliasTaken, http.StatusConflict, msg).WithDetails(suggestions...)
}

func DuplicateCode(msg string) *Error {
	return New(CodeDuplicateCode, http.StatusConflict, msg)
}

func URLNotFound() *Error {
	return New(CodeURLNotFound, http.StatusNotFound, "short URL not found")
}

func URLExpired() *Error {
	return New(CodeURLExpired, http.StatusGone, "short URL has expired")
}

func RouteNotFound() *Error {
	return New(CodeRouteNotFound, http.StatusNotFound, "route not found")
}

func RateLimitExceeded(retryAfterSec int64) *Error {
	e := New(CodeRateLimitExceeded, http.StatusTooManyRequests, "rate limit exceeded")
	return e.WithDetails(strconv.FormatInt(retryAfterSec, 10))
}

func StoreUnavailable(cause error) *Error {
	return Wrap(CodeStoreUnavailable, http.StatusInternalServerError, "store unavailable", cause).WithRetryable(true)
}

func GenerationFailed(cause error) *Error {
	return Wrap(CodeGenerationFailed, http.StatusInternalServerError, "failed to generate a unique short code", cause)
}

func AllocatorUnavailable(cause error) *Error {
	return Wrap(CodeAllocatorDown, http.StatusInternalServerError, "counter allocator unavailable", cause).WithRetryable(true)
}

func HashExhausted() *Error {
	return New(CodeHashExhausted, http.StatusInternalServerError, "hash id generator exhausted its retry budget")
}

func HashUnavailable(cause error) *Error {
	return Wrap(CodeHashUnavailable, http.StatusInternalServerError, "hash id generator store probe failed", cause).WithRetryable(true)
}

// As extracts an *Error from a generic error via errors.As-compatible
// unwrapping, returning nil if err is not (or does not wrap) an *Error.
func As(err error) *Error {
	type aserr interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e
		}
		u, ok := err.(aserr)
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}
