package validator

import (
	"context"
	"fmt"
)

const maxSuggestions = 5

type suggestionStrategy func(alias string) []string

var strategies = []suggestionStrategy{
	numericSuffixes,
	yearSuffixes,
	prefixes,
	suffixes,
	separatorVariants,
}

func numericSuffixes(alias string) []string {
	return []string{alias + "1", alias + "2", alias + "3", alias + "123"}
}

func yearSuffixes(alias string) []string {
	return []string{alias + "2024", alias + "24"}
}

func prefixes(alias string) []string {
	return []string{"my" + alias, "get" + alias, "go" + alias}
}

func suffixes(alias string) []string {
	return []string{alias + "url", alias + "link", alias + "now"}
}

func separatorVariants(alias string) []string {
	return []string{alias + "_1", alias + "-1", alias + "_url", alias + "-link"}
}

// SuggestAlternatives applies a series of ordered strategies until five
// viable, store-available candidates accumulate. Each candidate is
// re-validated against the alias grammar (a strategy may overflow the
// 30-character cap) and re-checked against the store.
func SuggestAlternatives(ctx context.Context, checker AliasAvailabilityChecker, alias string) ([]string, error) {
	var out []string
	seen := map[string]bool{}

	for _, strat := range strategies {
		for _, candidate := range strat(alias) {
			if len(out) >= maxSuggestions {
				return out, nil
			}
			sanitized, err := ValidateAliasGrammar(candidate)
			if err != nil {
				continue
			}
			if seen[sanitized] {
				continue
			}
			seen[sanitized] = true

			available, err := CheckAliasAvailability(ctx, checker, sanitized)
			if err != nil {
				return nil, fmt.Errorf("checking suggestion availability: %w", err)
			}
			if available {
				out = append(out, sanitized)
			}
		}
	}
	return out, nil
}
