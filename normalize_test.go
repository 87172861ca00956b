package whale

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAggregatesBareAlternatives(t *testing.T) {
	entries, err := Normalize("start", Rules{
		Simple("op", Lit("+"), Lit("-")),
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, Kind("op"), entries[0].Rule.Kind)
	require.Len(t, entries[0].Rule.Patterns, 2)
}

func TestNormalizeSortsWithinRuleOnly(t *testing.T) {
	entries, err := Normalize("start", Rules{
		Simple("op", Lit("="), Lit("=="), Lit("==="), Regex(`\+=?`)),
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	patterns := entries[0].Rule.Patterns
	require.True(t, patterns[0].IsRegex())
	require.Equal(t, "===", patterns[1].Source())
	require.Equal(t, "==", patterns[2].Source())
	require.Equal(t, "=", patterns[3].Source())
}

func TestNormalizeSplitsBareAndOverrideParts(t *testing.T) {
	lpar := Options{Match: []Pattern{Lit("(")}, Push: "inner"}
	rule := Rule{Kind: "punct", Parts: []RulePart{
		{Pattern: patternPtr(Lit(";"))},
		{Options: &lpar},
		{Pattern: patternPtr(Lit(","))},
	}}

	entries, err := Normalize("start", Rules{rule})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, []Pattern{Lit(";")}, entries[0].Rule.Patterns)
	require.Equal(t, State("inner"), entries[1].Rule.Push)
	require.Equal(t, []Pattern{Lit(",")}, entries[2].Rule.Patterns)
}

func TestNormalizeIncludeDirective(t *testing.T) {
	entries, err := Normalize("start", Rules{IncludeState("common")})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Nil(t, entries[0].Rule)
	require.Equal(t, State("common"), entries[0].Include)
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
	}{
		{name: "IncludeWithAlternatives", rules: Rules{
			{Kind: "bad", Include: "common", Parts: patternParts([]Pattern{Lit("x")})},
		}},
		{name: "ErrorAndFallbackTogether", rules: Rules{
			WithOptions("weird", Options{Error: true, Fallback: true}),
		}},
		{name: "TransitionOnErrorRule", rules: Rules{
			WithOptions("weird", Options{Error: true, Push: "other"}),
		}},
		{name: "BadPop", rules: Rules{
			WithOptions("rpar", Options{Match: []Pattern{Lit(")")}, Pop: 2}),
		}},
		{name: "EmptyRule", rules: Rules{{Kind: "nothing"}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Normalize("start", test.rules)
			require.Error(t, err)
		})
	}
}

func patternPtr(p Pattern) *Pattern { return &p }
