// Package lexer tokenizes an HLASM logical line (already continuation-
// joined by ColumnLayout) into the token stream the parser consumes,
// grounded on the teacher's token-stream lexer generalized from ARM
// mnemonic/register/immediate tokens to HLASM label/instruction/operand
// separators.
package lexer

import "github.com/eclipse-che4z/hlasm-analyzer-go/source"

// TokenKind enumerates the lexical categories the parser distinguishes.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokWord          // identifier-shaped text: labels, opcodes, ordinary symbol refs
	TokSeqSymbol     // .NAME
	TokVarSymbol     // &NAME (and &(expr) markers, left to the parser to interpret)
	TokString        // 'quoted string', with '' escaping handled here
	TokComma
	TokLParen
	TokRParen
	TokOperator // + - * / = .
	TokSpace    // run of blanks; significant only at field boundaries
	TokComment  // trailing remark text
	TokContinuationMark
)

// Token is one lexical unit with its source range.
type Token struct {
	Kind  TokenKind
	Text  string
	Range source.Range
}
