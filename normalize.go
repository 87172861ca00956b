package whale

import "golang.org/x/exp/slices"

// NormalizedEntry is one element of a state's normalized rule list:
// either a concrete RuleOption or an include directive, preserved
// verbatim for StateSetBuilder to splice in place. Exactly one of Rule
// and Include is set.
type NormalizedEntry struct {
	Rule    *RuleOption
	Include State
}

// Normalize turns one state's Rules into an ordered []NormalizedEntry.
// A run of bare
// pattern alternatives becomes one aggregating RuleOption; each
// override sub-rule becomes its own RuleOption; include directives
// pass through untouched. Each RuleOption's alternatives are sorted
// regex-before-literal, longer-literal-first (maximal munch within the
// rule); RuleCompiler never reorders across rules.
func Normalize(state State, rules Rules) ([]NormalizedEntry, error) {
	var out []NormalizedEntry
	for _, r := range rules {
		if r.Include != "" {
			if r.Kind != "" || len(r.Parts) > 0 {
				return nil, specErrorf(state, r.Kind, "include %q cannot be combined with a kind or match alternatives", r.Include)
			}
			out = append(out, NormalizedEntry{Include: r.Include})
			continue
		}
		if r.Kind == "" {
			return nil, specErrorf(state, "", "rule has neither a kind nor an include target")
		}
		entries, err := normalizeRule(state, r)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// normalizeRule flattens one Rule's Parts into one or more
// NormalizedEntry values, coalescing consecutive bare patterns into a
// single RuleOption the moment a non-pattern Part (or the end of the
// list) breaks the run.
func normalizeRule(state State, r Rule) ([]NormalizedEntry, error) {
	var out []NormalizedEntry
	var bare []Pattern

	flushBare := func() {
		if len(bare) == 0 {
			return
		}
		out = append(out, NormalizedEntry{Rule: &RuleOption{Kind: r.Kind, Patterns: sortPatterns(bare)}})
		bare = nil
	}

	for _, part := range r.Parts {
		if part.Pattern != nil {
			bare = append(bare, *part.Pattern)
			continue
		}
		flushBare()
		opt, err := normalizeOptions(state, r.Kind, *part.Options)
		if err != nil {
			return nil, err
		}
		out = append(out, NormalizedEntry{Rule: opt})
	}
	flushBare()

	if len(out) == 0 {
		return nil, specErrorf(state, r.Kind, "rule declares no alternatives")
	}
	return out, nil
}

// normalizeOptions validates and lowers a single Options override into
// a RuleOption: error and fallback can't both be set, neither may
// carry a transition or its own match alternatives, pop (when set)
// must equal 1, and push/next/pop are mutually exclusive.
func normalizeOptions(state State, kind Kind, opts Options) (*RuleOption, error) {
	if opts.Error && opts.Fallback {
		return nil, specErrorf(state, kind, "a rule cannot be both the error rule and the fallback rule")
	}
	if opts.Pop != 0 && opts.Pop != 1 {
		return nil, specErrorf(state, kind, "pop must be 1, got %d", opts.Pop)
	}

	transitions := 0
	if opts.Push != "" {
		transitions++
	}
	if opts.Next != "" {
		transitions++
	}
	if opts.Pop != 0 {
		transitions++
	}
	if transitions > 1 {
		return nil, specErrorf(state, kind, "push, next and pop are mutually exclusive")
	}
	if (opts.Error || opts.Fallback) && transitions > 0 {
		return nil, specErrorf(state, kind, "the error or fallback rule cannot declare a state transition")
	}

	if opts.Error || opts.Fallback {
		if len(opts.Match) != 0 {
			return nil, specErrorf(state, kind, "the error or fallback rule may not declare match alternatives")
		}
		return &RuleOption{
			Kind:        kind,
			TypeFn:      opts.Type,
			ValueFn:     opts.Value,
			LineBreaks:  true,
			Error:       opts.Error,
			Fallback:    opts.Fallback,
			ShouldThrow: opts.ShouldThrow,
		}, nil
	}

	if len(opts.Match) == 0 {
		return nil, specErrorf(state, kind, "rule declares no match alternatives")
	}
	return &RuleOption{
		Kind:        kind,
		Patterns:    sortPatterns(opts.Match),
		TypeFn:      opts.Type,
		ValueFn:     opts.Value,
		LineBreaks:  opts.LineBreaks,
		Push:        opts.Push,
		Next:        opts.Next,
		Pop:         opts.Pop,
		ShouldThrow: opts.ShouldThrow,
	}, nil
}

// sortPatterns orders one rule's alternatives for maximal munch: regex
// alternatives precede literals (since a regex's match length isn't
// knowable from its source length), and among literals, longer sorts
// before shorter so e.g. "function" never loses to "fun". The sort is
// stable, so alternatives that tie keep their declaration order.
func sortPatterns(alts []Pattern) []Pattern {
	sorted := slices.Clone(alts)
	slices.SortStableFunc(sorted, func(a, b Pattern) int {
		if a.IsRegex() != b.IsRegex() {
			if a.IsRegex() {
				return -1
			}
			return 1
		}
		if a.IsRegex() {
			return 0
		}
		return len(b.Source()) - len(a.Source())
	})
	return sorted
}
