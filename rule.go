package whale

// State names a lexer state. The zero value means "not set": an empty
// Push, Next, Include or start state is never looked up as a state.
type State string

// TypeFunc computes a token's Kind from its matched text. It must be a
// pure function of text: no access to Tokenizer state, no side
// effects, idempotent on equal inputs.
type TypeFunc func(text string) Kind

// ValueFunc computes a token's logical Value from its matched text,
// under the same purity constraints as TypeFunc.
type ValueFunc func(text string) string

// Options configures a single rule beyond its match alternatives. The
// zero value is a plain rule: no transition, not an error or fallback
// rule, LineBreaks false.
type Options struct {
	// Match lists the rule's alternatives in declaration order.
	// RuleNormalizer sorts them (regex before literal, longer literal
	// first) before they reach RuleCompiler.
	Match []Pattern
	// Type overrides the token kind computed from matched text. If
	// nil, the rule's declared Kind is used.
	Type TypeFunc
	// Value overrides the token's logical value. If nil, the raw
	// matched text is used.
	Value ValueFunc
	// LineBreaks marks that matched text may contain newlines. Forced
	// true when Error or Fallback is set.
	LineBreaks bool
	// Push, Next and Pop are mutually exclusive state transitions,
	// applied in pop-then-push-then-next order (though only one is
	// ever set). Pop must be 1 when set.
	Push State
	Next State
	Pop  int
	// Error marks this as the rule that consumes input no other rule
	// matched. Mutually exclusive with Fallback.
	Error bool
	// Fallback marks this as the rule that consumes the gap between
	// the current offset and the next successful match. Mutually
	// exclusive with Error, and with any state transition.
	Fallback bool
	// ShouldThrow marks that a match of this rule is a fatal syntax
	// error. When the rule fires by consuming otherwise-unmatched tail
	// input, Next raises immediately; when it fires from a genuine
	// match, Next returns the token and raises on the following call
	// (after first returning a token a fallback split queued, if any).
	ShouldThrow bool
}

// RulePart is one entry in a Rule's body: either a bare pattern
// alternative or an override sub-rule carrying its own Options. A
// rule body that mixes bare patterns with override objects round-
// trips through Go as a slice of these, in declaration order, without
// losing the interleaving.
type RulePart struct {
	Pattern *Pattern
	Options *Options
}

// Rule is one entry of a rule specification supplied to Compile or
// States. A Rule is one of:
//
//   - an include directive (Include set, everything else ignored),
//     spliced in place by StateSetBuilder;
//   - a rule declaration (Kind set, Parts holding its body).
//     RuleNormalizer turns each run of consecutive bare-pattern Parts
//     into one aggregating RuleOption and each Options Part into its
//     own RuleOption, in the exact order they appear in Parts.
type Rule struct {
	Kind    Kind
	Parts   []RulePart
	Include State
}

// Rules is an ordered rule list: the canonical input to RuleNormalizer
// for a single state.
type Rules []Rule

func patternParts(alts []Pattern) []RulePart {
	parts := make([]RulePart, len(alts))
	for i := range alts {
		parts[i] = RulePart{Pattern: &alts[i]}
	}
	return parts
}

// Simple declares a plain rule: one or more alternatives, no options.
func Simple(kind Kind, alts ...Pattern) Rule {
	return Rule{Kind: kind, Parts: patternParts(alts)}
}

// WithOptions declares a single rule carrying options; opts.Match
// supplies its alternatives.
func WithOptions(kind Kind, opts Options) Rule {
	return Rule{Kind: kind, Parts: []RulePart{{Options: &opts}}}
}

// Mixed declares a rule combining bare alternatives with one or more
// override sub-rules sharing the same Kind; the bare alternatives are
// listed before the overrides. Build a Rule with Parts directly when
// a different interleaving is needed.
func Mixed(kind Kind, alts []Pattern, overrides ...Options) Rule {
	parts := patternParts(alts)
	for i := range overrides {
		parts = append(parts, RulePart{Options: &overrides[i]})
	}
	return Rule{Kind: kind, Parts: parts}
}

// IncludeState declares an include directive: splice another state's
// rules in at this position. Only valid inside a stateful spec.
func IncludeState(state State) Rule {
	return Rule{Include: state}
}

// ErrorRule declares kind as the state's error rule: it consumes
// whatever remains when no other rule matches, instead of matching a
// pattern of its own.
func ErrorRule(kind Kind) Rule {
	return WithOptions(kind, Options{Error: true})
}

// FallbackRule declares kind as the state's fallback rule: it consumes
// the gap between the current offset and the next successful match.
func FallbackRule(kind Kind) Rule {
	return WithOptions(kind, Options{Fallback: true})
}

// RuleOption is the normalized, per-rule descriptor RuleNormalizer
// produces and RuleCompiler consumes. Once built it is never mutated.
type RuleOption struct {
	Kind        Kind
	Patterns    []Pattern
	TypeFn      TypeFunc
	ValueFn     ValueFunc
	LineBreaks  bool
	Push        State
	Next        State
	Pop         int
	Error       bool
	Fallback    bool
	ShouldThrow bool
}

// resolveKind computes the token kind for matched text: TypeFn if set,
// otherwise the declared Kind.
func (r *RuleOption) resolveKind(text string) Kind {
	if r.TypeFn != nil {
		return r.TypeFn(text)
	}
	return r.Kind
}

// resolveValue computes the token value for matched text: ValueFn if
// set, otherwise the raw text.
func (r *RuleOption) resolveValue(text string) string {
	if r.ValueFn != nil {
		return r.ValueFn(text)
	}
	return text
}

func (r *RuleOption) hasTransition() bool {
	return r.Push != "" || r.Next != "" || r.Pop != 0
}
