package whale

// StateSpec names one state's rule list within a multi-state
// specification. Name may be allStateName ("$all"), whose Rules are
// merged into every other state before include resolution.
type StateSpec struct {
	Name  State
	Rules Rules
}

// StateSpecs is an ordered collection of StateSpec: the canonical
// input to BuildStates. The first non-$all entry is the default start
// state when none is given explicitly.
type StateSpecs []StateSpec

// allStateName is the reserved state key whose rules apply everywhere.
const allStateName State = "$all"

// StateMap is the fully resolved, immutable output of StateSetBuilder:
// every declared state compiled and cross-validated, ready for a
// Tokenizer to walk.
type StateMap struct {
	States map[State]*CompiledState
	Start  State
}

// BuildStates is the StateSetBuilder stage. hasStates is threaded down
// to RuleCompiler for each state: it is true for the stateful States()
// entry point and false for the single-state Compile() sugar,
// independent of how many states BuildStates actually sees.
func BuildStates(specs StateSpecs, start State, engine Engine, hasStates bool) (*StateMap, error) {
	normalized, order, allEntries, err := normalizeSpecs(specs)
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, specErrorf("", "", "no states declared")
	}

	for _, name := range order {
		if len(allEntries) > 0 {
			merged := make([]NormalizedEntry, 0, len(normalized[name])+len(allEntries))
			merged = append(merged, normalized[name]...)
			merged = append(merged, allEntries...)
			normalized[name] = merged
		}
	}

	states := map[State]*CompiledState{}
	for _, name := range order {
		entries, err := resolveIncludes(name, normalized)
		if err != nil {
			return nil, err
		}
		ruleOpts := make([]*RuleOption, 0, len(entries))
		for _, e := range entries {
			ruleOpts = append(ruleOpts, e.Rule)
		}
		cs, err := CompileState(name, ruleOpts, engine, hasStates)
		if err != nil {
			return nil, err
		}
		states[name] = cs
	}

	if start == "" {
		start = order[0]
	} else if _, ok := states[start]; !ok {
		return nil, specErrorf(start, "", "start state does not exist")
	}

	if err := validateTransitions(states); err != nil {
		return nil, err
	}

	return &StateMap{States: states, Start: start}, nil
}

// normalizeSpecs runs RuleNormalizer over every declared state,
// separating out the $all pseudo-state's entries.
func normalizeSpecs(specs StateSpecs) (map[State][]NormalizedEntry, []State, []NormalizedEntry, error) {
	normalized := map[State][]NormalizedEntry{}
	var order []State
	var allEntries []NormalizedEntry

	for _, spec := range specs {
		entries, err := Normalize(spec.Name, spec.Rules)
		if err != nil {
			return nil, nil, nil, err
		}
		if spec.Name == allStateName {
			allEntries = entries
			continue
		}
		normalized[spec.Name] = entries
		order = append(order, spec.Name)
	}
	return normalized, order, allEntries, nil
}

// resolveIncludes repeatedly finds the first remaining include
// directive in name's entry list and splices the referenced state's
// entries in its place, skipping any rule already present by pointer
// identity. A visited set scoped to this call prevents infinite
// expansion across include cycles; a self-include, or an include of
// an already-visited state, is dropped rather than re-expanded.
func resolveIncludes(name State, normalized map[State][]NormalizedEntry) ([]NormalizedEntry, error) {
	entries := append([]NormalizedEntry{}, normalized[name]...)
	visited := map[State]bool{}

	for {
		idx := -1
		for i, e := range entries {
			if e.Rule == nil {
				idx = i
				break
			}
		}
		if idx == -1 {
			return entries, nil
		}

		target := entries[idx].Include
		if target == name || visited[target] {
			entries = append(entries[:idx], entries[idx+1:]...)
			continue
		}
		visited[target] = true

		targetEntries, ok := normalized[target]
		if !ok {
			return nil, specErrorf(name, "", "include references unknown state %q", target)
		}

		present := map[*RuleOption]bool{}
		for _, e := range entries {
			if e.Rule != nil {
				present[e.Rule] = true
			}
		}
		var toInsert []NormalizedEntry
		for _, e := range targetEntries {
			if e.Rule != nil && present[e.Rule] {
				continue
			}
			toInsert = append(toInsert, e)
		}

		spliced := make([]NormalizedEntry, 0, len(entries)-1+len(toInsert))
		spliced = append(spliced, entries[:idx]...)
		spliced = append(spliced, toInsert...)
		spliced = append(spliced, entries[idx+1:]...)
		entries = spliced
	}
}

// validateTransitions is StateSetBuilder's post-compile pass: every
// push/next target named anywhere in any state's groups or fast table
// must name a real state. Pop's value is already checked to equal 1
// by RuleNormalizer.
func validateTransitions(states map[State]*CompiledState) error {
	check := func(from State, r *RuleOption) error {
		if r.Push != "" {
			if _, ok := states[r.Push]; !ok {
				return specErrorf(from, r.Kind, "push target %q does not exist", r.Push)
			}
		}
		if r.Next != "" {
			if _, ok := states[r.Next]; !ok {
				return specErrorf(from, r.Kind, "next target %q does not exist", r.Next)
			}
		}
		return nil
	}
	for name, cs := range states {
		for _, g := range cs.Groups {
			if err := check(name, g); err != nil {
				return err
			}
		}
		for _, g := range cs.Fast {
			if err := check(name, g); err != nil {
				return err
			}
		}
	}
	return nil
}
