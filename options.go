package whale

import (
	"fmt"
	"io"
)

// Option configures a Tokenizer or Definition at construction time.
type Option func(*tokenizerConfig) error

type tokenizerConfig struct {
	start  State
	trace  io.Writer
	engine Engine
}

// WithStart overrides the default start state (otherwise the first
// state named in the StateSpecs passed to States, or "start" for
// Compile).
func WithStart(state State) Option {
	return func(c *tokenizerConfig) error {
		c.start = state
		return nil
	}
}

// WithTrace logs every emitted token to w.
func WithTrace(w io.Writer) Option {
	return func(c *tokenizerConfig) error {
		c.trace = w
		return nil
	}
}

// WithRegexEngine overrides the Engine used to compile and run
// patterns. The default is StdEngine{}.
func WithRegexEngine(engine Engine) Option {
	return func(c *tokenizerConfig) error {
		c.engine = engine
		return nil
	}
}

func newConfig(opts []Option) (*tokenizerConfig, error) {
	c := &tokenizerConfig{engine: StdEngine{}}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	return c, nil
}

// traceWriter adapts an io.Writer into the small logging surface
// Tokenizer.emit calls on every token it builds, including one whose
// rule then raises.
type traceWriter struct {
	w io.Writer
}

func (t *traceWriter) logToken(tok Token) {
	fmt.Fprintf(t.w, "%d:%d\t%s\t%q\n", tok.Line, tok.Column, tok.Kind, tok.Text)
}

// startState is the reserved single-state name Compile uses.
const startState State = "start"

// Compile builds a Tokenizer whose sole state is named "start" — the
// stateless form. No rule in spec may declare push, pop or next.
func Compile(spec Rules, opts ...Option) (*Tokenizer, error) {
	def, err := NewDefinition(StateSpecs{{Name: startState, Rules: spec}}, false, opts...)
	if err != nil {
		return nil, err
	}
	return def.LexString(""), nil
}

// States builds a Tokenizer from a multi-state specification. The
// default start state is the first entry of spec (excluding "$all").
func States(spec StateSpecs, opts ...Option) (*Tokenizer, error) {
	def, err := NewDefinition(spec, true, opts...)
	if err != nil {
		return nil, err
	}
	return def.LexString(""), nil
}

func buildConfig(opts []Option) (*tokenizerConfig, *traceWriter, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	var tw *traceWriter
	if cfg.trace != nil {
		tw = &traceWriter{w: cfg.trace}
	}
	return cfg, tw, nil
}
