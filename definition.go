package whale

import (
	"cmp"
	"io"

	"golang.org/x/exp/slices"
)

// Definition is the compiled, immutable output of rule normalization,
// compilation and state resolution, paired with the defaults any
// Option supplied at construction fixed. Unlike the single live
// Tokenizer Compile/States hand back, a Definition can be reused
// across many Tokenizers lexing independent input strings.
type Definition struct {
	states *StateMap
	trace  *traceWriter
}

// NewDefinition runs the full compilation pipeline over spec and
// returns the reusable result, without constructing a Tokenizer.
// hasStates threads through to RuleCompiler exactly as in BuildStates.
func NewDefinition(spec StateSpecs, hasStates bool, opts ...Option) (*Definition, error) {
	cfg, tw, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	states, err := BuildStates(spec, cfg.start, cfg.engine, hasStates)
	if err != nil {
		return nil, err
	}
	return &Definition{states: states, trace: tw}, nil
}

// LexString returns a fresh Tokenizer over s, sharing this
// Definition's compiled states.
func (d *Definition) LexString(s string) *Tokenizer {
	tok := newTokenizer(d.states, d.trace)
	tok.Reset(s, nil)
	return tok
}

// Lex reads r to completion and returns a Tokenizer over its content.
// Stateful lexers of the kind this package compiles need the whole
// input up front (a regex match can look arbitrarily far ahead), so
// unlike an incremental scanner, Lex buffers r entirely before
// returning.
func (d *Definition) Lex(r io.Reader) (*Tokenizer, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return d.LexString(string(b)), nil
}

// Rules returns the normalized, compiled rule set keyed by state name,
// for tooling that wants to inspect or diff a compiled grammar without
// re-deriving it from the Rules/StateSpecs value that produced it.
func (d *Definition) Rules() map[State][]*RuleOption {
	out := make(map[State][]*RuleOption, len(d.states.States))
	for name, cs := range d.states.States {
		rules := make([]*RuleOption, 0, len(cs.Groups)+1)
		rules = append(rules, cs.Groups...)
		if cs.Err != nil {
			rules = append(rules, cs.Err)
		}
		out[name] = rules
	}
	return out
}

// Kinds returns every token kind some rule in the definition can
// statically produce, sorted for stable output. A rule whose Type
// function reclassifies text dynamically (e.g. Keywords) contributes
// only its declared Kind: the kinds a closure might return at runtime
// are not visible to static inspection, the same limitation Has has.
func (d *Definition) Kinds() []Kind {
	seen := map[Kind]bool{}
	for _, cs := range d.states.States {
		if cs.Err != nil {
			seen[cs.Err.Kind] = true
		}
		for _, r := range cs.Groups {
			seen[r.Kind] = true
		}
		for _, r := range cs.Fast {
			seen[r.Kind] = true
		}
	}
	kinds := make([]Kind, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	slices.SortFunc(kinds, func(a, b Kind) int { return cmp.Compare(a, b) })
	return kinds
}
