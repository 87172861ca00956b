package whale

// Keywords builds a TypeFunc that reclassifies matched text into a
// specialized kind when it exactly equals one of the given literals,
// and returns def otherwise. The typical use is an identifier rule's
// Type, with def set to the rule's own kind, so "class" lexes as kw
// while "className" stays identifier.
func Keywords(def Kind, kinds map[Kind][]string) TypeFunc {
	reverse := make(map[string]Kind)
	for kind, literals := range kinds {
		for _, lit := range literals {
			reverse[lit] = kind
		}
	}
	return func(text string) Kind {
		if kind, ok := reverse[text]; ok {
			return kind
		}
		return def
	}
}
