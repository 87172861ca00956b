package whale

import "fmt"

// Error is implemented by both SpecError and SyntaxError: Message is
// the unadorned text, while Error may add context (a SyntaxError
// renders the source diagnostic around its token).
type Error interface {
	error
	// Message is the error text without positional decoration.
	Message() string
}

// SpecError is raised synchronously from Compile or States when a rule
// specification is ill-formed. It names the offending state and kind
// where they are known, so a caller can locate the bad rule in their
// source; either may be empty for errors not tied to one.
type SpecError struct {
	State State
	Kind  Kind
	Msg   string
}

func (e *SpecError) Error() string { return e.Message() }

func (e *SpecError) Message() string {
	switch {
	case e.State != "" && e.Kind != "":
		return fmt.Sprintf("state %q, rule %q: %s", e.State, e.Kind, e.Msg)
	case e.State != "":
		return fmt.Sprintf("state %q: %s", e.State, e.Msg)
	case e.Kind != "":
		return fmt.Sprintf("rule %q: %s", e.Kind, e.Msg)
	default:
		return e.Msg
	}
}

func specErrorf(state State, kind Kind, format string, args ...interface{}) *SpecError {
	return &SpecError{State: state, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// SyntaxError is raised out of Tokenizer.Next when a shouldThrow rule
// fires. Its Error() renders through the same diagnostic box
// Tokenizer.FormatError produces, so printing it directly already
// shows source context.
type SyntaxError struct {
	Tok    Token
	Source string
	Msg    string
}

func (e *SyntaxError) Error() string { return formatError(e.Source, e.Tok, e.Msg) }

func (e *SyntaxError) Message() string { return e.Msg }

// Token returns the token the failure is anchored to.
func (e *SyntaxError) Token() Token { return e.Tok }
