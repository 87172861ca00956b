package whale

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// EOF is the sentinel Kind a Tokenizer reports once the buffer is
// exhausted.
const EOF Kind = "\x00EOF"

// EOF reports whether t is the end-of-input sentinel.
func (t Token) EOF() bool { return t.Kind == EOF }

// Snapshot is a point-in-time capture of a Tokenizer's runtime state,
// as returned by Save and accepted by Reset. It is the only state
// needed, alongside the remaining input, to resume tokenizing exactly
// where a prior Tokenizer left off.
type Snapshot struct {
	Line        int
	Column      int
	State       State
	Stack       []State
	QueuedRule  *RuleOption
	QueuedText  string
	QueuedThrow *SyntaxError
}

// Tokenizer is a mutable cursor over an immutable StateMap and an
// input buffer. It is not safe for concurrent use; Clone produces an
// independent cursor sharing the same compiled states.
type Tokenizer struct {
	states *StateMap
	trace  *traceWriter

	buffer string
	index  int
	line   int
	column int

	state   State
	current *CompiledState
	stack   []State

	queuedRule  *RuleOption
	queuedText  string
	queuedThrow *SyntaxError
}

func newTokenizer(states *StateMap, trace *traceWriter) *Tokenizer {
	t := &Tokenizer{states: states, trace: trace}
	t.Reset("", nil)
	return t
}

// Reset seeds the buffer and rewinds the runtime to the start state,
// or to snapshot if one is given. index always restarts at 0: a
// resumed Tokenizer is handed the remaining input as a fresh buffer,
// so offsets in tokens it emits are relative to that buffer.
func (t *Tokenizer) Reset(input string, snapshot *Snapshot) {
	t.buffer = input
	t.index = 0

	if snapshot == nil {
		t.line, t.column = 1, 1
		t.stack = nil
		t.queuedRule, t.queuedText, t.queuedThrow = nil, "", nil
		t.setState(t.states.Start)
		return
	}

	t.line, t.column = snapshot.Line, snapshot.Column
	t.stack = append([]State{}, snapshot.Stack...)
	t.queuedRule = snapshot.QueuedRule
	t.queuedText = snapshot.QueuedText
	t.queuedThrow = snapshot.QueuedThrow
	t.setState(snapshot.State)
}

// Save captures enough of the runtime to resume tokenizing later via
// Reset, given the remaining unconsumed input.
func (t *Tokenizer) Save() Snapshot {
	return Snapshot{
		Line:        t.line,
		Column:      t.column,
		State:       t.state,
		Stack:       append([]State{}, t.stack...),
		QueuedRule:  t.queuedRule,
		QueuedText:  t.queuedText,
		QueuedThrow: t.queuedThrow,
	}
}

// Clone returns a fresh Tokenizer sharing this one's compiled
// StateMap, with an empty runtime (no buffer, start state, empty
// stack). Tokens pulled from the clone never affect the parent.
func (t *Tokenizer) Clone() *Tokenizer {
	return newTokenizer(t.states, t.trace)
}

// Remaining returns the not-yet-consumed suffix of the current
// buffer, the input Save's caller must carry over to Reset on resume.
func (t *Tokenizer) Remaining() string { return t.buffer[t.index:] }

func (t *Tokenizer) setState(name State) {
	t.state = name
	t.current = t.states.States[name]
}

// PushState records the current state on the stack and switches to
// name.
func (t *Tokenizer) PushState(name State) {
	t.stack = append(t.stack, t.state)
	t.setState(name)
}

// PopState returns to the state below the top of the stack. Popping
// an empty stack is a no-op: the current state persists.
func (t *Tokenizer) PopState() {
	if len(t.stack) == 0 {
		return
	}
	name := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	t.setState(name)
}

// Has reports whether some rule in the compiled StateMap declares
// kind as its default kind. It cannot see kinds a TypeFunc might
// compute dynamically (e.g. keyword reclassification), since those
// are opaque closures, but it correctly covers every statically
// declared kind across the fast table, the regex groups, and the
// error/fallback rule of every state.
func (t *Tokenizer) Has(kind Kind) bool {
	for _, cs := range t.states.States {
		if cs.Err != nil && cs.Err.Kind == kind {
			return true
		}
		for _, r := range cs.Groups {
			if r.Kind == kind {
				return true
			}
		}
		for _, r := range cs.Fast {
			if r.Kind == kind {
				return true
			}
		}
	}
	return false
}

// Next returns the next token, or the EOF sentinel once the buffer is
// exhausted. An error is a *SyntaxError raised by a shouldThrow rule;
// after one is returned, index has already been forced to buffer end
// so subsequent calls return the sentinel rather than re-raising.
func (t *Tokenizer) Next() (Token, error) {
	if t.queuedRule != nil {
		rule, text := t.queuedRule, t.queuedText
		t.queuedRule, t.queuedText = nil, ""
		return t.emit(rule, text, false)
	}
	if t.queuedThrow != nil {
		err := t.queuedThrow
		t.queuedThrow = nil
		t.index = len(t.buffer)
		return Token{}, err
	}
	if t.index >= len(t.buffer) {
		return Token{Kind: EOF, Position: Position{Offset: t.index, Line: t.line, Column: t.column}}, nil
	}

	cs := t.current

	if cs.Fast != nil {
		if ch, size := utf8.DecodeRuneInString(t.buffer[t.index:]); size > 0 {
			if rule, ok := cs.Fast[ch]; ok {
				return t.emit(rule, t.buffer[t.index:t.index+size], false)
			}
		}
	}

	if cs.Matcher != nil {
		if match, ok := cs.Matcher.FindAt(t.buffer, t.index); ok {
			rule, text := resolveMatch(cs, match, t.buffer)
			if !cs.Sticky && match.Start > t.index {
				gap := t.buffer[t.index:match.Start]
				t.queuedRule, t.queuedText = rule, text
				return t.emit(cs.Err, gap, false)
			}
			return t.emit(rule, text, false)
		}
	}

	// Nothing matched at all: the error-or-fallback rule consumes
	// every remaining byte.
	return t.emit(cs.Err, t.buffer[t.index:], true)
}

// resolveMatch walks a combined match's top-level capture groups in
// order and returns the first that participated, mapping it back to
// the rule it represents.
func resolveMatch(cs *CompiledState, m Match, buffer string) (*RuleOption, string) {
	for i := 1; i <= len(cs.Groups); i++ {
		if m.Groups[2*i] >= 0 {
			return cs.Groups[i-1], buffer[m.Groups[2*i]:m.Groups[2*i+1]]
		}
	}
	panic("whale: cannot find token type for matched text")
}

// emit is the `_token` step: it builds the token, advances the
// runtime's position and state, and decides shouldThrow timing.
//
// immediate selects between the two shouldThrow call sites: true when
// rule is firing because nothing else
// matched and it is consuming every remaining byte (the synthesized
// default error rule's documented behavior, also given to a
// user-declared error/fallback rule reached the same way) — there the
// token is never returned, the failure raises now. false when the
// rule matched something concrete (fast table, a regex alternative,
// or a fallback gap) — there the token is returned normally and the
// failure is deferred via queuedThrow, raised by the next Next call
// after any token a fallback split has queued.
func (t *Tokenizer) emit(rule *RuleOption, text string, immediate bool) (Token, error) {
	startOffset, startLine, startColumn := t.index, t.line, t.column

	lineBreaks := 0
	if rule.LineBreaks {
		lineBreaks = strings.Count(text, "\n")
	}

	kind := rule.resolveKind(text)
	value := rule.resolveValue(text)

	t.index += len(text)
	if lineBreaks > 0 {
		last := strings.LastIndexByte(text, '\n')
		t.line += lineBreaks
		t.column = utf8.RuneCountInString(text[last+1:]) + 1
	} else {
		t.column += utf8.RuneCountInString(text)
	}

	if rule.Pop != 0 {
		t.PopState()
	}
	if rule.Push != "" {
		t.PushState(rule.Push)
	}
	if rule.Next != "" {
		t.setState(rule.Next)
	}

	tok := Token{
		Kind:       kind,
		Value:      value,
		Text:       text,
		Position:   Position{Offset: startOffset, Line: startLine, Column: startColumn},
		LineBreaks: lineBreaks,
	}

	if t.trace != nil {
		t.trace.logToken(tok)
	}

	if !rule.ShouldThrow {
		return tok, nil
	}

	err := &SyntaxError{Tok: tok, Source: t.buffer, Msg: fmt.Sprintf("unexpected token %q", text)}
	if immediate {
		t.index = len(t.buffer)
		return Token{}, err
	}
	t.queuedThrow = err
	return tok, nil
}

// FormatError renders a multi-line diagnostic for message anchored at
// tok, or at the Tokenizer's current position if tok is nil (an
// undefined token is treated as end-of-input at the current index).
func (t *Tokenizer) FormatError(tok *Token, message string) string {
	if tok == nil {
		tok = &Token{Position: Position{Offset: t.index, Line: t.line, Column: t.column}}
	}
	return formatError(t.buffer, *tok, message)
}

// formatError renders:
//
//	<message> at line <L> col <C>:
//
//	<lineNo>  <source line>
//	…
//	         ^
//
// showing up to two lines of context before and after the target
// line, with a caret under the column.
func formatError(source string, tok Token, message string) string {
	lines := strings.Split(source, "\n")
	target := tok.Line - 1
	if target < 0 {
		target = 0
	}

	start := target - 2
	if start < 0 {
		start = 0
	}
	end := target + 2
	if end > len(lines)-1 {
		end = len(lines) - 1
	}

	gutter := len(strconv.Itoa(end + 1))

	var b strings.Builder
	fmt.Fprintf(&b, "%s at line %d col %d:\n\n", message, tok.Line, tok.Column)
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%*d  %s\n", gutter, i+1, lines[i])
		if i == target {
			fmt.Fprintf(&b, "%s^\n", strings.Repeat(" ", gutter+2+tok.Column-1))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ConsumeAll drains tok until EOF.
func ConsumeAll(tok *Tokenizer) ([]Token, error) {
	tokens := make([]Token, 0, 1024)
	for {
		token, err := tok.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
		if token.EOF() {
			return tokens, nil
		}
	}
}
