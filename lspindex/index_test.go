package lspindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

func labeledStmt(uri string, line int, labelKind semantics.LabelKind, labelName ids.ID, op string, opName ids.ID) *semantics.Statement {
	pos := source.Position{Line: line}
	rng := source.Range{Start: pos, End: pos}
	return &semantics.Statement{
		URI:         source.URI(uri),
		Range:       rng,
		Label:       semantics.Label{Kind: labelKind, Name: labelName, Range: rng},
		Instruction: semantics.Instruction{Kind: semantics.InstructionOrdinary, Name: opName, Text: op, Range: rng},
	}
}

func TestIndexRecordsOrdinaryLabelDefinition(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	idx := New(c)
	label := c.Intern("START")

	suspend := idx.Observe(labeledStmt("t://a", 0, semantics.LabelOrdinary, label, "LR", c.Intern("LR")), nil)
	assert.False(t, suspend)

	loc, ok := idx.Definition(label)
	require.True(t, ok)
	assert.Equal(t, 0, loc.Range.Start.Line)
}

func TestIndexRecordsMacroCallAndDefinition(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	idx := New(c)
	mymac := c.Intern("MYMAC")
	c.Macros.Define(&context.Macro{Name: mymac, DefLoc: source.Location{URI: "t://a", Range: source.Range{Start: source.Position{Line: 0}}}})
	idx.RecordMacroDefinition(mymac, source.Location{URI: "t://a", Range: source.Range{Start: source.Position{Line: 0}}})

	idx.Observe(labeledStmt("t://a", 1, semantics.LabelNone, ids.ID{}, "MYMAC", mymac), nil)
	idx.Observe(labeledStmt("t://a", 2, semantics.LabelNone, ids.ID{}, "MYMAC", mymac), nil)

	info, ok := idx.Macro(mymac)
	require.True(t, ok)
	assert.Len(t, info.CallSites, 2)

	refs := idx.References(mymac)
	assert.Len(t, refs, 2)
}

func TestIndexHitCountsAccumulatePerLine(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	idx := New(c)

	stmt := labeledStmt("t://a", 5, semantics.LabelNone, ids.ID{}, "LR", c.Intern("LR"))
	idx.Observe(stmt, nil)
	idx.Observe(stmt, nil)
	idx.Observe(stmt, nil)

	count, ok := idx.HitCountAt("t://a", 5)
	require.True(t, ok)
	assert.Equal(t, uint64(3), count)
}

func TestIndexSkipsModelStatements(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	idx := New(c)
	label := c.Intern("L1")

	stmt := labeledStmt("t://a", 0, semantics.LabelOrdinary, label, "LR", c.Intern("LR"))
	stmt.EvaluatedFromModel = true

	idx.Observe(stmt, nil)

	_, ok := idx.Definition(label)
	assert.False(t, ok)
	_, ok = idx.HitCountAt("t://a", 0)
	assert.False(t, ok)
}

func TestComposeRunsAllHooksAndSuspendsIfAnyDoes(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	idx := New(c)
	debuggerCalled := false
	combined := Compose(idx.Observe, func(stmt *semantics.Statement, frame *context.Frame) bool {
		debuggerCalled = true
		return true
	})

	suspend := combined(labeledStmt("t://a", 0, semantics.LabelNone, ids.ID{}, "LR", c.Intern("LR")), nil)
	assert.True(t, suspend)
	assert.True(t, debuggerCalled)
	_, ok := idx.HitCountAt("t://a", 0)
	assert.True(t, ok, "Compose must still run the index hook even though the other hook asked to suspend")
}
