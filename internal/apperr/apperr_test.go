package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsExtractsDirectError(t *testing.T) {
	err := URLNotFound()
	got := As(err)
	if got == nil || got.Code != CodeURLNotFound {
		t.Fatalf("expected to extract URLNotFound, got %+v", got)
	}
}

func TestAsUnwrapsWrappedError(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("create mapping: %w", StoreUnavailable(cause))

	got := As(wrapped)
	if got == nil || got.Code != CodeStoreUnavailable {
		t.Fatalf("expected to unwrap to StoreUnavailable, got %+v", got)
	}
	if !got.Retryable {
		t.Fatal("expected StoreUnavailable to be retryable")
	}
}

func TestAsReturnsNilForUnrelatedError(t *testing.T) {
	if got := As(errors.New("plain error")); got != nil {
		t.Fatalf("expected nil for an unrelated error, got %+v", got)
	}
}

func TestAliasTakenCarriesSuggestions(t *testing.T) {
	err := AliasTaken("alias taken", []string{"alt1", "alt2"})
	if err.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409, got %d", err.HTTPStatus)
	}
	if len(err.Details) != 2 || err.Details[0] != "alt1" {
		t.Fatalf("expected suggestions preserved, got %v", err.Details)
	}
}

func TestWithDetailsDoesNotMutateOriginal(t *testing.T) {
	base := URLNotFound()
	withDetails := base.WithDetails("a", "b")
	if len(base.Details) != 0 {
		t.Fatal("expected original error to remain unmodified")
	}
	if len(withDetails.Details) != 2 {
		t.Fatalf("expected clone to carry details, got %v", withDetails.Details)
	}
}

func TestErrorStringFallsBackToCode(t *testing.T) {
	e := &Error{Code: CodeRouteNotFound}
	if e.Error() != string(CodeRouteNotFound) {
		t.Fatalf("expected Error() to fall back to code, got %q", e.Error())
	}
}
