package parser

import (
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// Document is a providers.LineSource over a fully-parsed statement
// slice: HLASM's backward AGO/AIF jumps only ever target statements
// already parsed earlier in the same open-code document, so parsing
// the whole file up front and serving it through an index cursor (with
// Seek for rewinding) is sufficient; no on-demand re-lexing is needed.
type Document struct {
	URI   source.URI
	stmts []*semantics.Statement
	idx   int
}

// NewDocument parses text with p and wraps the result as a LineSource.
func NewDocument(p *Parser, uri source.URI, text string) (*Document, []diag.Diagnostic) {
	stmts, diags := p.Parse(uri, text)
	return &Document{URI: uri, stmts: stmts}, diags
}

// Next returns the next statement, or false once exhausted.
func (d *Document) Next() (*semantics.Statement, bool) {
	if d.idx >= len(d.stmts) {
		return nil, false
	}
	s := d.stmts[d.idx]
	d.idx++
	return s, true
}

// Position reports the current cursor position as a statement index
// (providers.Stack only ever compares positions it obtained from this
// same source, so the unit is this package's to choose).
func (d *Document) Position() source.Position { return source.Position{Line: d.idx} }

// Seek repositions the cursor, for AGO/AIF backward jumps.
func (d *Document) Seek(pos source.Position) { d.idx = pos.Line }
