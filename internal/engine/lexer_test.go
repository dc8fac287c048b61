package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainTokens(t *testing.T, l *Lexer) []Token {
	t.Helper()
	var toks []Token
	for {
		tok, needMore := l.Next()
		if needMore {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexerPunctuationAndStrings(t *testing.T) {
	l := NewLexer()
	l.Feed([]byte(`{"a": 1, "b": [true, null]}`))
	toks := drainTokens(t, l)

	require.NotEmpty(t, toks)
	assert.Equal(t, TLBrace, toks[0].Kind)
	assert.Equal(t, TString, toks[1].Kind)
	assert.Equal(t, "a", toks[1].Str)
	assert.Equal(t, TColon, toks[2].Kind)
	assert.Equal(t, TNumber, toks[3].Kind)
	assert.EqualValues(t, 1, toks[3].IntVal)
	assert.True(t, toks[3].NumIsInt)
}

func TestLexerResumesMidStringAcrossFeed(t *testing.T) {
	l := NewLexer()
	l.Feed([]byte(`"hello `))
	toks := drainTokens(t, l)
	assert.Empty(t, toks)

	l.Feed([]byte(`world"`))
	toks = drainTokens(t, l)
	require.Len(t, toks, 1)
	assert.Equal(t, "hello world", toks[0].Str)
}

func TestLexerTripleQuotedString(t *testing.T) {
	l := NewLexer()
	l.Feed([]byte(`"""line one
line two"""`))
	toks := drainTokens(t, l)
	require.Len(t, toks, 1)
	assert.Equal(t, "line one\nline two", toks[0].Str)
}

func TestLexerEscapeSequences(t *testing.T) {
	l := NewLexer()
	l.Feed([]byte(`"a\nb\tc\"d"`))
	toks := drainTokens(t, l)
	require.Len(t, toks, 1)
	assert.Equal(t, "a\nb\tc\"d", toks[0].Str)
}

func TestLexerUnknownEscapeWarnsAndPassesThrough(t *testing.T) {
	l := NewLexer()
	l.Feed([]byte(`"a\qb"`))
	toks := drainTokens(t, l)
	require.Len(t, toks, 1)
	assert.Equal(t, "a\\qb", toks[0].Str)
	require.Len(t, l.Warnings, 1)
	assert.Equal(t, KindUnknownEscape, l.Warnings[0].Kind)
}

func TestLexerNumbers(t *testing.T) {
	cases := []struct {
		in       string
		wantInt  bool
		wantI    int64
		wantReal float64
	}{
		{"42", true, 42, 0},
		{"-7", true, -7, 0},
		{"3.14", false, 0, 3.14},
		{"1e3", false, 0, 1000},
		{"-2.5e-1", false, 0, -0.25},
	}
	for _, c := range cases {
		l := NewLexer()
		l.Feed([]byte(c.in + " "))
		toks := drainTokens(t, l)
		require.Lenf(t, toks, 1, "input %q", c.in)
		assert.Equal(t, TNumber, toks[0].Kind)
		assert.Equal(t, c.wantInt, toks[0].NumIsInt, "input %q", c.in)
		if c.wantInt {
			assert.Equal(t, c.wantI, toks[0].IntVal, "input %q", c.in)
		} else {
			assert.InDelta(t, c.wantReal, toks[0].Num, 1e-9, "input %q", c.in)
		}
	}
}

func TestLexerBarewordKeywordsAndPlainBareword(t *testing.T) {
	l := NewLexer()
	l.Feed([]byte(`true false null unquoted_value `))
	toks := drainTokens(t, l)
	require.Len(t, toks, 4)
	assert.Equal(t, TTrue, toks[0].Kind)
	assert.Equal(t, TFalse, toks[1].Kind)
	assert.Equal(t, TNull, toks[2].Kind)
	assert.Equal(t, TBareword, toks[3].Kind)
	assert.Equal(t, "unquoted_value", toks[3].Str)
}

func TestLexerSkipsLineAndHashComments(t *testing.T) {
	l := NewLexer()
	l.Feed([]byte("1, // a comment\n2 # another\n,3\n"))
	toks := drainTokens(t, l)
	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []TokenKind{TNumber, TComma, TNumber, TComma, TNumber}, kinds)
}

func TestLexerSoftCloseAtEOFFinishesTrailingNumber(t *testing.T) {
	l := NewLexer()
	l.Feed([]byte("42"))
	toks := drainTokens(t, l)
	assert.Empty(t, toks)

	tok, has, fatal := l.SoftCloseAtEOF()
	require.True(t, has)
	assert.Nil(t, fatal)
	assert.Equal(t, TNumber, tok.Kind)
	assert.EqualValues(t, 42, tok.IntVal)
}

func TestLexerSoftCloseAtEOFReportsUnterminatedString(t *testing.T) {
	l := NewLexer()
	l.Feed([]byte(`"never closed`))
	drainTokens(t, l)

	_, has, fatal := l.SoftCloseAtEOF()
	assert.False(t, has)
	require.NotNil(t, fatal)
	assert.Equal(t, KindUnterminatedString, fatal.Kind)
}
