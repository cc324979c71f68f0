package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexerWordsAndVarSymbol(t *testing.T) {
	toks := New("LR &REG,1", 0).TokenizeAll()
	require.True(t, len(toks) > 1)
	assert.Equal(t, TokWord, toks[0].Kind)
	assert.Equal(t, "LR", toks[0].Text)
	assert.Equal(t, TokVarSymbol, toks[2].Kind)
	assert.Equal(t, "&REG", toks[2].Text)
}

func TestLexerSequenceSymbol(t *testing.T) {
	toks := New(".LOOP", 0).TokenizeAll()
	assert.Equal(t, TokSeqSymbol, toks[0].Kind)
	assert.Equal(t, ".LOOP", toks[0].Text)
}

func TestLexerStringEscapedQuote(t *testing.T) {
	toks := New("'IT''S'", 0).TokenizeAll()
	assert.Equal(t, TokString, toks[0].Kind)
	assert.Equal(t, "'IT''S'", toks[0].Text)
}

func TestLexerEOFAlwaysTerminal(t *testing.T) {
	toks := New("", 0).TokenizeAll()
	require.Len(t, toks, 1)
	assert.Equal(t, TokEOF, toks[0].Kind)
}

func TestLexerOperatorsAndParens(t *testing.T) {
	toks := New("A+(B-C)", 0).TokenizeAll()
	assert.Equal(t, []TokenKind{TokWord, TokOperator, TokLParen, TokWord, TokOperator, TokWord, TokRParen, TokEOF}, kinds(toks))
}
