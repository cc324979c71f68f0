// Package parser implements the statement parser (C1): it turns raw
// source text into the semantics.Statement stream the processing
// pipeline consumes, applying the column/continuation discipline of
// §4.1 and splitting each logical line into label/instruction/operand/
// remark fields. Operand text is kept deferred (raw, unparsed) per
// semantics.OperandField's own contract; later stages (the CA/machine
// evaluators, datadef, machinecheck) reparse it once the instruction is
// known.
//
// Grounded on the teacher's parser package: lexer.go's token-stream
// shape informed this module's own lexer package, and file.go's line-
// at-a-time reading informed the continuation joiner in lines.go,
// generalized from ARM's free-form one-instruction-per-line source to
// HLASM's fixed-column, continuation-capable statement layout.
package parser

import (
	"strings"
	"unicode/utf16"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/lexer"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// Parser turns one document's source text into a statement slice.
type Parser struct {
	Ctx    *context.Context
	Layout lexer.ColumnLayout
}

// New creates a parser using the default column layout (ICTL may
// override Layout before reparsing, per §4.1).
func New(c *context.Context) *Parser {
	return &Parser{Ctx: c, Layout: lexer.DefaultLayout}
}

// Parse splits text into logical lines and parses each into a
// Statement. Parsing itself cannot fail outright (malformed fields
// simply produce an empty label/instruction/operand); diagnostics are
// reserved for cases later stages cannot recover from, so this always
// returns a (possibly empty) diagnostic slice rather than an error.
func (p *Parser) Parse(uri source.URI, text string) ([]*semantics.Statement, []diag.Diagnostic) {
	lines := joinLogicalLines(text, p.Layout)
	stmts := make([]*semantics.Statement, 0, len(lines))
	var diags []diag.Diagnostic
	for _, ln := range lines {
		stmt, d := p.parseLine(uri, ln)
		stmts = append(stmts, stmt)
		diags = append(diags, d...)
	}
	return stmts, diags
}

func unitLen(s string) int { return len(utf16.Encode([]rune(s))) }

func sliceCols(text string, startCol, endCol int) string {
	units := utf16.Encode([]rune(text))
	startCol = clamp(startCol, 0, len(units))
	endCol = clamp(endCol, 0, len(units))
	if startCol > endCol {
		startCol = endCol
	}
	return string(utf16.Decode(units[startCol:endCol]))
}

func lineRange(ln logicalLine) source.Range {
	return source.Range{
		Start: source.Position{Line: ln.startLine, Column: 0},
		End:   source.Position{Line: ln.startLine, Column: unitLen(ln.text)},
	}
}

func skipSpace(toks []lexer.Token, idx int) int {
	for idx < len(toks) && toks[idx].Kind == lexer.TokSpace {
		idx++
	}
	return idx
}

func (p *Parser) parseLine(uri source.URI, ln logicalLine) (*semantics.Statement, []diag.Diagnostic) {
	if ln.comment {
		return &semantics.Statement{
			URI:     uri,
			Range:   lineRange(ln),
			Remark:  ln.text,
			RawLine: ln.text,
		}, nil
	}

	toks := lexer.New(ln.text, ln.startLine).TokenizeAll()
	stmt := &semantics.Statement{URI: uri, RawLine: ln.text, Range: lineRange(ln)}
	idx := 0

	if ln.labelPresent && idx < len(toks) && toks[idx].Kind != lexer.TokSpace && toks[idx].Kind != lexer.TokEOF {
		t := toks[idx]
		lbl := semantics.Label{Text: t.Text, Range: t.Range, Name: p.Ctx.Intern(t.Text)}
		switch t.Kind {
		case lexer.TokSeqSymbol:
			lbl.Kind = semantics.LabelSequence
		case lexer.TokVarSymbol:
			lbl.Kind = semantics.LabelVariable
		default:
			lbl.Kind = semantics.LabelOrdinary
		}
		stmt.Label = lbl
		idx++
	}

	idx = skipSpace(toks, idx)
	if idx >= len(toks) || toks[idx].Kind == lexer.TokEOF {
		return stmt, nil
	}

	it := toks[idx]
	instr := semantics.Instruction{Text: it.Text, Range: it.Range, Name: p.Ctx.Intern(it.Text)}
	if it.Kind == lexer.TokVarSymbol {
		instr.Kind = semantics.InstructionVariable
	} else {
		instr.Kind = semantics.InstructionOrdinary
	}
	stmt.Instruction = instr
	idx++

	idx = skipSpace(toks, idx)
	opStart := idx
	depth := 0
opLoop:
	for ; idx < len(toks); idx++ {
		switch toks[idx].Kind {
		case lexer.TokLParen:
			depth++
		case lexer.TokRParen:
			if depth > 0 {
				depth--
			}
		case lexer.TokSpace:
			if depth == 0 {
				break opLoop
			}
		case lexer.TokEOF:
			break opLoop
		}
	}
	if idx > opStart {
		startCol := toks[opStart].Range.Start.Column
		endCol := toks[idx-1].Range.End.Column
		stmt.Operands = semantics.OperandField{
			Deferred: true,
			RawText:  sliceCols(ln.text, startCol, endCol),
			Range: source.Range{
				Start: source.Position{Line: ln.startLine, Column: startCol},
				End:   source.Position{Line: ln.startLine, Column: endCol},
			},
		}
	}

	idx = skipSpace(toks, idx)
	if idx < len(toks) && toks[idx].Kind != lexer.TokEOF {
		startCol := toks[idx].Range.Start.Column
		endCol := unitLen(ln.text)
		stmt.Remark = strings.TrimSpace(sliceCols(ln.text, startCol, endCol))
		stmt.RemarkRange = source.Range{
			Start: source.Position{Line: ln.startLine, Column: startCol},
			End:   source.Position{Line: ln.startLine, Column: endCol},
		}
	}

	return stmt, nil
}
