package validator

import (
	"context"
	"testing"
)

func TestValidateURL(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
		want    string
	}{
		{"https://Example.com:443/Path", false, "https://example.com/Path"},
		{"http://example.com:80/x", false, "http://example.com/x"},
		{"ftp://example.com", true, ""},
		{"not a url", true, ""},
		{"https://", true, ""},
	}
	for _, c := range cases {
		got, err := ValidateURL(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ValidateURL(%q) expected error, got nil", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateURL(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ValidateURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidateAliasGrammar(t *testing.T) {
	if _, err := ValidateAliasGrammar("ab"); err == nil {
		t.Error("expected error for alias shorter than 3 chars")
	}
	tooLong := make([]byte, 31)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	if _, err := ValidateAliasGrammar(string(tooLong)); err == nil {
		t.Error("expected error for alias longer than 30 chars")
	}
	if _, err := ValidateAliasGrammar("my-alias_1"); err != nil {
		t.Errorf("unexpected error for valid alias: %v", err)
	}
}

type fakeChecker struct{ taken map[string]bool }

func (f *fakeChecker) Exists(ctx context.Context, code string) (bool, error) {
	return f.taken[code], nil
}

func TestSuggestAlternatives(t *testing.T) {
	checker := &fakeChecker{taken: map[string]bool{"promo": true, "promo1": true}}
	suggestions, err := SuggestAlternatives(context.Background(), checker, "promo")
	if err != nil {
		t.Fatalf("SuggestAlternatives failed: %v", err)
	}
	if len(suggestions) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if len(suggestions) > maxSuggestions {
		t.Fatalf("expected at most %d suggestions, got %d", maxSuggestions, len(suggestions))
	}
	for _, s := range suggestions {
		if _, err := ValidateAliasGrammar(s); err != nil {
			t.Errorf("suggestion %q fails alias grammar: %v", s, err)
		}
		if s == "promo1" {
			t.Errorf("suggestion %q should have been excluded as taken", s)
		}
	}
}
