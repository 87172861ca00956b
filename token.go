package whale

import (
	"fmt"

	"github.com/alecthomas/repr"
)

// Kind classifies a Token. It is the name a rule was declared under,
// unless a rule's Type function reclassifies the matched text (see
// Keywords for the common case of reclassifying identifiers as
// keywords).
type Kind string

// Position locates the first character of a Token in the input buffer.
// Offset is a byte offset; Line and Column count runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexeme produced by a Tokenizer.
type Token struct {
	Kind Kind
	// Value is the logical value of the token: the raw Text, unless
	// the matching rule's Value function computed something else.
	Value string
	// Text is the raw text the rule matched, before any Value
	// transform is applied.
	Text string
	Position
	// LineBreaks is the number of newlines contained in Text.
	LineBreaks int
}

// String returns the token's Value, matching the "textual projection
// equal to value" required by the data model.
func (t Token) String() string { return t.Value }

// tokenFields mirrors Token without a GoString method, so GoString
// itself can delegate to repr without recursing into itself.
type tokenFields struct {
	Kind       Kind
	Value      string
	Text       string
	Position   Position
	LineBreaks int
}

// GoString renders a debug-friendly representation via repr, covering
// Kind, Value, Text, Offset, Line and Column.
func (t Token) GoString() string {
	return repr.String(tokenFields{t.Kind, t.Value, t.Text, t.Position, t.LineBreaks}, repr.OmitEmpty(true))
}
