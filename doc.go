// Package whale compiles a declarative rule specification — literal
// strings and regular expressions grouped into named token kinds, with
// optional state transitions — into a stateful Tokenizer that consumes
// an input string and yields a stream of classified tokens carrying
// line/column/offset metadata.
//
// The compilation pipeline runs in a fixed order: rules are normalized
// into an ordered list of RuleOption values, then compiled into a
// single combined regex plus a fast single-character dispatch table
// per state, then (for multi-state specifications) wired into a
// StateMap with include expansion and a universal "$all" rule set.
// The result is an immutable, freely shareable compiled definition; a
// Tokenizer is a cheap, single-threaded cursor over it.
//
// Regular expressions are never compiled directly: every pattern is
// handed to a narrow Engine interface (see pattern.go), so a host
// could in principle swap in a different regex engine, though the
// package ships a standard-library-backed Engine by default.
package whale
