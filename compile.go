package whale

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// CompiledState is the per-state unit RuleCompiler produces: a single
// combined pattern covering every rule's alternatives, a map from its
// top-level capture groups back to the rule each represents, the fast
// single-character dispatch table, and the resolved error/fallback
// rule. Once built it is never mutated and is safe to share across
// Tokenizers.
type CompiledState struct {
	Name State
	// Groups maps a 1-indexed top-level capture group to the rule it
	// represents: Groups[i-1] is the rule for group i.
	Groups  []*RuleOption
	Matcher Matcher
	// Sticky is true when Matcher must match exactly at the offset
	// given to FindAt (no fallback rule declared); false when Matcher
	// may search forward, leaving the engine to emit the skipped gap
	// as a fallback token.
	Sticky bool
	// Fast maps a single rune to the rule it unconditionally produces,
	// short-circuiting Matcher entirely. Empty when the state's leading
	// rules carry no single-character literal alternatives; nil when a
	// fallback rule was declared (fast dispatch is never safe alongside
	// one).
	Fast map[rune]*RuleOption
	// Err is the state's error-or-fallback rule: either the user's
	// declared `error` or `fallback` rule, or a synthesized default.
	Err *RuleOption
}

// defaultErrorKind names the error rule CompileState synthesizes when
// a state declares neither an error nor a fallback rule.
const defaultErrorKind Kind = "error"

// CompileState is the RuleCompiler stage: it takes one state's fully
// resolved rule list (includes already spliced in by StateSetBuilder)
// plus a hasStates flag and produces a CompiledState.
func CompileState(name State, entries []*RuleOption, engine Engine, hasStates bool) (*CompiledState, error) {
	errRule, fallbackRule, matching, err := partitionRules(name, entries, hasStates)
	if err != nil {
		return nil, err
	}

	active := errRule
	if active == nil {
		active = fallbackRule
	}
	if active == nil {
		active = &RuleOption{Kind: defaultErrorKind, LineBreaks: true, Error: true, ShouldThrow: true}
	}

	fast := buildFastTable(matching, fallbackRule != nil)

	combined, groups, err := assemblePattern(name, matching, engine, fallbackRule != nil)
	if err != nil {
		return nil, err
	}

	sticky := fallbackRule == nil
	var matcher Matcher
	if len(matching) > 0 {
		matcher, err = engine.Compile(combined, sticky)
		if err != nil {
			return nil, specErrorf(name, "", "compiling combined pattern: %s", err)
		}
	}

	return &CompiledState{
		Name:    name,
		Groups:  groups,
		Matcher: matcher,
		Sticky:  sticky,
		Fast:    fast,
		Err:     active,
	}, nil
}

// partitionRules splits entries into the (at most one) error rule, the
// (at most one) fallback rule, and the remaining ordinary matching
// rules, validating the error/fallback mutual-exclusion and the
// hasStates transition restriction.
func partitionRules(name State, entries []*RuleOption, hasStates bool) (errRule, fallbackRule *RuleOption, matching []*RuleOption, _ error) {
	for _, r := range entries {
		switch {
		case r.Error:
			if errRule != nil {
				return nil, nil, nil, specErrorf(name, r.Kind, "state declares more than one error rule")
			}
			errRule = r
		case r.Fallback:
			if fallbackRule != nil {
				return nil, nil, nil, specErrorf(name, r.Kind, "state declares more than one fallback rule")
			}
			fallbackRule = r
		default:
			if r.hasTransition() && !hasStates {
				return nil, nil, nil, specErrorf(name, r.Kind, "state transition declared on a stateless lexer")
			}
			matching = append(matching, r)
		}
	}
	if errRule != nil && fallbackRule != nil {
		return nil, nil, nil, specErrorf(name, "", "a state cannot declare both an error rule and a fallback rule")
	}
	return errRule, fallbackRule, matching, nil
}

// buildFastTable performs a front-to-back peel: walk rules
// in priority order, registering each rule's leading single-character
// literal alternatives (sortPatterns already ordered literals longest
// first, so a rule's alternatives are "leading single characters" only
// when every one of them is length 1). The first rule carrying a
// regex or multi-character literal alternative stops the scan for
// itself and every rule after it. A fallback rule disables the table
// outright: a gap-skipping search can land the match anywhere, so a
// single-character shortcut anchored at the old offset is unsound.
func buildFastTable(matching []*RuleOption, hasFallback bool) map[rune]*RuleOption {
	if hasFallback {
		return nil
	}
	fast := map[rune]*RuleOption{}
	for _, rule := range matching {
		for _, p := range rule.Patterns {
			if p.IsRegex() || utf8.RuneCountInString(p.Source()) != 1 {
				return fast
			}
			ch, _ := utf8.DecodeRuneInString(p.Source())
			if _, exists := fast[ch]; !exists {
				fast[ch] = rule
			}
		}
	}
	return fast
}

// assemblePattern wraps each rule's alternatives as a non-capturing
// group, ORs them together, wraps the result in one top-level capture
// group per rule, and joins every rule with "|". It validates each
// alternative along the way: no empty match, no extra capture groups,
// no unescaped newline outside a lineBreaks rule, and a uniform
// Unicode flag across all regex alternatives (skipped when a fallback
// rule is present).
func assemblePattern(name State, matching []*RuleOption, engine Engine, hasFallback bool) (string, []*RuleOption, error) {
	var (
		parts      []string
		groups     []*RuleOption
		sawUnicode bool
		sawPlain   bool
	)

	for _, rule := range matching {
		var alts []string
		for _, p := range rule.Patterns {
			analysis, err := analyzePattern(p, engine)
			if err != nil {
				return "", nil, specErrorf(name, rule.Kind, "%s", err)
			}
			if analysis.MatchesEmpty {
				return "", nil, specErrorf(name, rule.Kind, "alternative %q matches the empty string", p.Source())
			}
			if analysis.CaptureGroups > 0 {
				return "", nil, specErrorf(name, rule.Kind, "alternative %q declares a capture group", p.Source())
			}
			if analysis.MatchesNewline && !rule.LineBreaks {
				return "", nil, specErrorf(name, rule.Kind, "alternative %q matches a newline but lineBreaks is not set", p.Source())
			}
			if p.IsRegex() {
				if p.unicode {
					sawUnicode = true
				} else {
					sawPlain = true
				}
			}
			alts = append(alts, nonCapturing(p))
		}
		parts = append(parts, "("+strings.Join(alts, "|")+")")
		groups = append(groups, rule)
	}

	if !hasFallback && sawUnicode && sawPlain {
		return "", nil, specErrorf(name, "", "regex alternatives mix Unicode and non-Unicode flags")
	}

	return strings.Join(parts, "|"), groups, nil
}

// analyzePattern reports empty/newline/capture-group facts about one
// alternative. Literal alternatives are analyzed directly (a literal
// can never declare a capture group, matches empty only when it is
// the empty string, and matches a newline only by containing one);
// regex alternatives defer to the configured Engine.
func analyzePattern(p Pattern, engine Engine) (Analysis, error) {
	if !p.IsRegex() {
		return Analysis{
			MatchesEmpty:   p.Source() == "",
			MatchesNewline: strings.Contains(p.Source(), "\n"),
		}, nil
	}
	return engine.Analyze(p.Source())
}

// nonCapturing renders one alternative ready to sit inside a larger
// alternation: a regex alternative is used verbatim (it is the
// caller's responsibility to keep it free of top-level capture
// groups), a literal is escaped with regexp.QuoteMeta so any
// regex-significant characters in it are matched literally.
func nonCapturing(p Pattern) string {
	if p.IsRegex() {
		return "(?:" + p.Source() + ")"
	}
	return regexp.QuoteMeta(p.Source())
}
