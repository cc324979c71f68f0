package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

func newParser() *Parser {
	return New(context.New("t://a", context.ArchZ15))
}

func TestParseOrdinaryLabeledStatement(t *testing.T) {
	p := newParser()
	stmts, diags := p.Parse("t://a", "START    LR    1,2")
	require.Empty(t, diags)
	require.Len(t, stmts, 1)

	s := stmts[0]
	assert.Equal(t, semantics.LabelOrdinary, s.Label.Kind)
	assert.Equal(t, "START", s.Label.Text)
	assert.Equal(t, "LR", s.Instruction.Text)
	assert.Equal(t, "1,2", s.Operands.RawText)
	assert.True(t, s.Operands.Deferred)
}

func TestParseUnlabeledStatement(t *testing.T) {
	p := newParser()
	stmts, _ := p.Parse("t://a", "         LR    3,4")
	require.Len(t, stmts, 1)
	assert.Equal(t, semantics.LabelNone, stmts[0].Label.Kind)
	assert.Equal(t, "LR", stmts[0].Instruction.Text)
	assert.Equal(t, "3,4", stmts[0].Operands.RawText)
}

func TestParseSequenceSymbolLabel(t *testing.T) {
	p := newParser()
	stmts, _ := p.Parse("t://a", ".SKIP    LR    5,6")
	require.Len(t, stmts, 1)
	assert.Equal(t, semantics.LabelSequence, stmts[0].Label.Kind)
	assert.Equal(t, ".SKIP", stmts[0].Label.Text)
}

func TestParseCommentLine(t *testing.T) {
	p := newParser()
	stmts, _ := p.Parse("t://a", "* this is a remark\n         LR  1,2")
	require.Len(t, stmts, 2)
	assert.Equal(t, "* this is a remark", stmts[0].Remark)
	assert.Equal(t, semantics.LabelNone, stmts[0].Label.Kind)
	assert.Equal(t, "LR", stmts[1].Instruction.Text)
}

func TestParseBlankLinesAreSkipped(t *testing.T) {
	p := newParser()
	stmts, _ := p.Parse("t://a", "LR 1,2\n\n\nLR 3,4")
	require.Len(t, stmts, 2)
}

func TestParseOperandsRespectParenDepth(t *testing.T) {
	p := newParser()
	stmts, _ := p.Parse("t://a", "         MYMAC  (A,B),C")
	require.Len(t, stmts, 1)
	assert.Equal(t, "MYMAC", stmts[0].Instruction.Text)
	assert.Equal(t, "(A,B),C", stmts[0].Operands.RawText)
}

func TestParseTrailingRemarkAfterOperands(t *testing.T) {
	p := newParser()
	stmts, _ := p.Parse("t://a", "         LR  1,2      a trailing remark")
	require.Len(t, stmts, 1)
	assert.Equal(t, "1,2", stmts[0].Operands.RawText)
	assert.Equal(t, "a trailing remark", stmts[0].Remark)
}

func TestParseContinuationJoinsNextLine(t *testing.T) {
	p := newParser()
	// column 72 (index 71) holds a continuation mark; continuation
	// resumes at column 16 (index 15) on the next line. The label
	// field (column 1) is left blank so "LR" parses as the
	// instruction, not a label.
	body := "   LR  1,2"
	line1 := body + padTo(71-len(body)) + "X"
	line2 := padTo(15) + "more"
	stmts, _ := p.Parse("t://a", line1+"\n"+line2)
	require.Len(t, stmts, 1)
	assert.Equal(t, semantics.LabelNone, stmts[0].Label.Kind)
	assert.Equal(t, "1,2more", stmts[0].Operands.RawText)
}

func padTo(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}

func TestDocumentImplementsSeekAndNext(t *testing.T) {
	p := newParser()
	doc, diags := NewDocument(p, "t://a", "L1  LR  1,2\nL2  LR  3,4")
	require.Empty(t, diags)

	s1, ok := doc.Next()
	require.True(t, ok)
	assert.Equal(t, "L1", s1.Label.Text)

	pos := doc.Position()
	s2, ok := doc.Next()
	require.True(t, ok)
	assert.Equal(t, "L2", s2.Label.Text)

	doc.Seek(pos)
	s2Again, ok := doc.Next()
	require.True(t, ok)
	assert.Equal(t, "L2", s2Again.Label.Text)

	_, ok = doc.Next()
	assert.False(t, ok)
}
