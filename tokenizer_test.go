package whale

import (
	"fmt"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/stretchr/testify/require"
)

type tokenSummary struct {
	kind  Kind
	value string
}

func summarize(tokens []Token) []tokenSummary {
	out := make([]tokenSummary, 0, len(tokens))
	for _, tok := range tokens {
		if tok.EOF() {
			continue
		}
		out = append(out, tokenSummary{kind: tok.Kind, value: tok.Value})
	}
	return out
}

// requireTokens compares actual against want, dumping a repr rendering
// of both sides into the failure message when they differ.
func requireTokens(t *testing.T, want []tokenSummary, actual []Token) {
	t.Helper()
	got := summarize(actual)
	require.Equal(t, want, got, fmt.Sprintf("want %s\ngot  %s", repr.String(want), repr.String(got)))
}

func TestTokenizerScenarios(t *testing.T) {
	tests := []struct {
		name   string
		build  func() (*Tokenizer, error)
		input  string
		tokens []tokenSummary
		err    string
	}{
		{name: "FallbackSplitting",
			build: func() (*Tokenizer, error) {
				return Compile(Rules{
					Simple("op", Regex(`[._]`)),
					FallbackRule("text"),
				})
			},
			input: ".this_that.",
			tokens: []tokenSummary{
				{"op", "."}, {"text", "this"}, {"op", "_"}, {"text", "that"}, {"op", "."},
			},
		},
		{name: "LiteralLengthSort",
			build: func() (*Tokenizer, error) {
				return Compile(Rules{
					Simple("op", Lit("="), Lit("=="), Lit("==="), Lit("+"), Lit("+=")),
					WithOptions("ws", Options{Match: []Pattern{Regex(`\s+`)}, LineBreaks: true}),
				})
			},
			input: "=== +=",
			tokens: []tokenSummary{
				{"op", "==="}, {"ws", " "}, {"op", "+="},
			},
		},
		{name: "StatefulPushPop",
			build: func() (*Tokenizer, error) {
				return States(StateSpecs{
					{Name: "main", Rules: Rules{
						Simple("word", Regex(`\w+`)),
						WithOptions("lpar", Options{Match: []Pattern{Lit("(")}, Push: "inner"}),
						Simple("rpar", Lit(")")),
					}},
					{Name: "inner", Rules: Rules{
						Simple("thing", Regex(`\w+`)),
						WithOptions("lpar", Options{Match: []Pattern{Lit("(")}, Push: "inner"}),
						WithOptions("rpar", Options{Match: []Pattern{Lit(")")}, Pop: 1}),
					}},
				})
			},
			input: "a(b(c)d)e",
			tokens: []tokenSummary{
				{"word", "a"}, {"lpar", "("}, {"thing", "b"}, {"lpar", "("}, {"thing", "c"},
				{"rpar", ")"}, {"thing", "d"}, {"rpar", ")"}, {"word", "e"},
			},
		},
		{name: "KeywordReclassification",
			build: func() (*Tokenizer, error) {
				return Compile(Rules{
					WithOptions("identifier", Options{
						Match: []Pattern{Regex(`[a-zA-Z]+`)},
						Type:  Keywords("identifier", map[Kind][]string{"kw": {"class"}}),
					}),
					FallbackRule("ws"),
				})
			},
			input: "class className",
			tokens: []tokenSummary{
				{"kw", "class"}, {"ws", " "}, {"identifier", "className"},
			},
		},
		{name: "IncludeCycleTokenizes",
			build: func() (*Tokenizer, error) {
				return States(StateSpecs{
					{Name: "a", Rules: Rules{
						Simple("a_tok", Regex(`a+`)),
						IncludeState("b"),
					}},
					{Name: "b", Rules: Rules{
						Simple("b_tok", Regex(`b+`)),
						IncludeState("a"),
					}},
				})
			},
			input:  "aabb",
			tokens: []tokenSummary{{"a_tok", "aa"}, {"b_tok", "bb"}},
		},
		{name: "UserErrorRuleDoesNotThrow",
			build: func() (*Tokenizer, error) {
				return Compile(Rules{
					Simple("digits", Regex(`[0-9]+`)),
					ErrorRule("error"),
				})
			},
			input:  "123foo",
			tokens: []tokenSummary{{"digits", "123"}, {"error", "foo"}},
		},
		{name: "ShouldThrowDefaultError",
			build: func() (*Tokenizer, error) {
				return Compile(Rules{Simple("digits", Regex(`[0-9]+`))})
			},
			input: "invalid",
			err:   `unexpected token "invalid" at line 1 col 1:`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tok, err := test.build()
			require.NoError(t, err)

			tok.Reset(test.input, nil)
			tokens, err := ConsumeAll(tok)
			if test.err != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), test.err)
				return
			}
			require.NoError(t, err)
			requireTokens(t, test.tokens, tokens)
		})
	}
}

// Fallback gaps spanning a newline still report byte offsets relative
// to the whole buffer, not per-line.
func TestFallbackAcrossNewline(t *testing.T) {
	tok, err := Compile(Rules{
		Simple("op", Regex(`[._]`)),
		FallbackRule("text"),
	})
	require.NoError(t, err)

	tok.Reset(".this_th\nat.", nil)
	tokens, err := ConsumeAll(tok)
	require.NoError(t, err)

	var offsets []int
	for _, tr := range tokens {
		if tr.EOF() {
			continue
		}
		offsets = append(offsets, tr.Offset)
	}
	require.Equal(t, []int{0, 1, 5, 6, 11}, offsets)
}

// A shouldThrow default error rule still leaves the tokenizer in a
// state where the following call returns the EOF sentinel.
func TestShouldThrowForcesEOFAfterward(t *testing.T) {
	tok, err := Compile(Rules{Simple("digits", Regex(`[0-9]+`))})
	require.NoError(t, err)

	tok.Reset("invalid", nil)
	_, err = tok.Next()
	require.Error(t, err)
	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	require.Equal(t, 1, synErr.Tok.Line)
	require.Equal(t, 1, synErr.Tok.Column)

	sentinel, err := tok.Next()
	require.NoError(t, err)
	require.True(t, sentinel.EOF())
}

func TestUniversalInvariantOffsetAndTextMatchBuffer(t *testing.T) {
	tok, err := Compile(Rules{
		Simple("op", Regex(`[._]`)),
		FallbackRule("text"),
	})
	require.NoError(t, err)

	input := ".this_that."
	tok.Reset(input, nil)
	total := 0
	for {
		tr, err := tok.Next()
		require.NoError(t, err)
		if tr.EOF() {
			break
		}
		require.Equal(t, input[tr.Offset:tr.Offset+len(tr.Text)], tr.Text)
		total += len(tr.Text)
	}
	require.Equal(t, len(input), total)
}

func TestPopEmptyStackIsNoOp(t *testing.T) {
	tok, err := States(StateSpecs{
		{Name: "main", Rules: Rules{
			WithOptions("rpar", Options{Match: []Pattern{Lit(")")}, Pop: 1}),
		}},
	})
	require.NoError(t, err)

	tok.Reset(")", nil)
	tr, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, Kind("rpar"), tr.Kind)
	require.Equal(t, State("main"), tok.state)
}

func TestSaveResetRoundTrip(t *testing.T) {
	fresh := func() *Tokenizer {
		tok, err := Compile(Rules{
			Simple("op", Regex(`[._]`)),
			FallbackRule("text"),
		})
		require.NoError(t, err)
		return tok
	}

	input := ".this_that."

	continuing := fresh()
	continuing.Reset(input, nil)
	_, err := continuing.Next()
	require.NoError(t, err)
	_, err = continuing.Next()
	require.NoError(t, err)
	wantTokens, err := ConsumeAll(continuing)
	require.NoError(t, err)

	original := fresh()
	original.Reset(input, nil)
	_, err = original.Next()
	require.NoError(t, err)
	_, err = original.Next()
	require.NoError(t, err)
	snapshot := original.Save()
	remaining := original.Remaining()

	resumed := original.Clone()
	resumed.Reset(remaining, &snapshot)
	gotTokens, err := ConsumeAll(resumed)
	require.NoError(t, err)

	requireTokens(t, summarize(wantTokens), gotTokens)
}

func TestCloneIsolatesParent(t *testing.T) {
	tok, err := Compile(Rules{Simple("word", Regex(`\w+`))})
	require.NoError(t, err)

	tok.Reset("hello world", nil)
	_, err = tok.Next()
	require.NoError(t, err)

	clone := tok.Clone()
	clone.Reset("elsewhere", nil)
	_, err = clone.Next()
	require.NoError(t, err)

	require.Equal(t, 5, tok.index)
	require.NotEqual(t, tok.index, clone.index)
}
