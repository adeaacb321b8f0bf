package rules

import (
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
)

// Default returns the built-in rules in their evaluation order.
func Default() []core.Rule {
	return []core.Rule{
		NewSecrets(),
		NewSSRF(),
		NewOpenRedirect(),
		NewSQLInjection(),
		NewUnauthenticatedRoute(),
		NewFetchInLoop(),
		NewMissingTransaction(),
		NewHallucinatedImport(),
		NewConsoleLog(),
		NewPlaceholderCode(),
		NewEnvNotIgnored(),
		NewMissingRateLimit(),
	}
}

// Without removes the rules whose IDs are listed, keeping the order of the rest.
func Without(rules []core.Rule, disabled []string) []core.Rule {
	if len(disabled) == 0 {
		return rules
	}
	skip := make(map[string]bool, len(disabled))
	for _, id := range disabled {
		skip[id] = true
	}
	out := make([]core.Rule, 0, len(rules))
	for _, r := range rules {
		if !skip[r.ID()] {
			out = append(out, r)
		}
	}
	return out
}

// Lookup finds a rule by ID.
func Lookup(rules []core.Rule, id string) (core.Rule, bool) {
	for _, r := range rules {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// UnknownIDs returns the IDs that match no rule, for validating configuration.
func UnknownIDs(rules []core.Rule, ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := Lookup(rules, id); !ok {
			out = append(out, id)
		}
	}
	return out
}
