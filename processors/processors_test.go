package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

func stmt(label, op, operands string) *semantics.Statement {
	return &semantics.Statement{
		Label:       semantics.Label{Text: label},
		Instruction: semantics.Instruction{Text: op},
		Operands:    semantics.OperandField{RawText: operands},
	}
}

func TestOrdinaryProcessorSeta(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	id := c.Intern("N")
	c.Scopes.Declare(id, context.VarTypeA, source.Location{})

	p := NewOrdinaryProcessor(c)
	act := p.Process(stmt("&N", "SETA", "1+2*3"))
	assert.Empty(t, act.Diagnostics)

	v, _ := c.Scopes.Lookup(id)
	assert.Equal(t, int32(7), v.GetA(0))
}

func TestOrdinaryProcessorMacroAndCopyActions(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	p := NewOrdinaryProcessor(c)

	act := p.Process(stmt("", "MACRO", ""))
	assert.Equal(t, ActionStartMacroDefinition, act.Kind)

	act = p.Process(stmt("", "COPY", "MYMEMBER"))
	assert.Equal(t, ActionStartCopyMember, act.Kind)
	assert.Equal(t, "MYMEMBER", act.Target.String())
}

func TestOrdinaryProcessorDetectsMacroCall(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	c.Macros.Define(&context.Macro{Name: c.Intern("MYMAC")})

	p := NewOrdinaryProcessor(c)
	act := p.Process(stmt("", "MYMAC", "1,2"))
	assert.Equal(t, ActionInvokeMacro, act.Kind)
	assert.Equal(t, "MYMAC", act.Target.String())
	assert.Equal(t, "1,2", act.Operands)
}

func TestOrdinaryProcessorAutocallsUnresolvedMacro(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	p := NewOrdinaryProcessor(c)

	var requested string
	p.ResolveMacro = func(name string) (*context.Macro, bool) {
		requested = name
		return &context.Macro{Name: c.Intern(name)}, true
	}

	act := p.Process(stmt("", "LIBMAC", "1,2"))
	assert.Equal(t, "LIBMAC", requested)
	assert.Equal(t, ActionInvokeMacro, act.Kind)
	assert.Equal(t, "LIBMAC", act.Target.String())
}

func TestOrdinaryProcessorResolveMacroMissFallsBackToDelegate(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	p := NewOrdinaryProcessor(c)
	p.ResolveMacro = func(name string) (*context.Macro, bool) { return nil, false }

	var delegated string
	p.Delegate = func(s *semantics.Statement) []diag.Diagnostic {
		delegated = s.Instruction.Text
		return nil
	}

	act := p.Process(stmt("", "LR", "1,2"))
	assert.Equal(t, "LR", delegated)
	assert.Empty(t, act.Diagnostics)
}

func TestOrdinaryProcessorAgoStartsLookahead(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	p := NewOrdinaryProcessor(c)
	act := p.Process(stmt("", "AGO", ".LOOP"))
	assert.Equal(t, ActionStartLookahead, act.Kind)
	assert.Equal(t, ".LOOP", act.Target.String())
}

func TestOrdinaryProcessorActrExhaustion(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	p := NewOrdinaryProcessor(c)
	p.Process(stmt("", "ACTR", "1"))

	act := p.Process(stmt("", "AGO", ".LOOP"))
	assert.Equal(t, ActionStartLookahead, act.Kind)
	assert.Empty(t, act.Diagnostics)

	act = p.Process(stmt("", "AGO", ".LOOP"))
	require.Len(t, act.Diagnostics, 1)
	assert.Equal(t, "E056", string(act.Diagnostics[0].Code))
}

func TestMacroDefinitionProcessorCapturesBodyUntilMend(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	p := NewMacroDefinitionProcessor(c)

	act := p.Process(stmt("", "MYMAC", "&A,&B=1"))
	assert.Equal(t, ActionNone, act.Kind)

	act = p.Process(stmt("", "LR", "1,2"))
	assert.Equal(t, ActionNone, act.Kind)

	act = p.Process(stmt("", "MEND", ""))
	require.Equal(t, ActionFinishProcessor, act.Kind)
	require.NotNil(t, act.Macro)
	assert.Equal(t, "MYMAC", act.Macro.Name)
	require.Len(t, act.Macro.Positional, 1)
	require.Len(t, act.Macro.Keyword, 1)
	require.Len(t, act.Macro.Body, 1)
}

func TestMacroDefinitionProcessorNestedMacro(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	p := NewMacroDefinitionProcessor(c)
	p.Process(stmt("", "OUTER", ""))
	p.Process(stmt("", "MACRO", ""))
	act := p.Process(stmt("", "MEND", ""))
	assert.Equal(t, ActionNone, act.Kind, "inner MEND closes the nested macro, not the outer one")
	act = p.Process(stmt("", "MEND", ""))
	assert.Equal(t, ActionFinishProcessor, act.Kind)
}

func TestLookaheadProcessorFindsSequenceSymbol(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	target := c.Intern(".LOOP")
	p := NewLookaheadProcessor(c, target)

	act := p.Process(stmt(".OTHER", "LR", ""))
	assert.Equal(t, ActionNone, act.Kind)

	act = p.Process(&semantics.Statement{Label: semantics.Label{Kind: semantics.LabelSequence, Text: ".LOOP"}})
	assert.Equal(t, ActionFinishProcessor, act.Kind)
	assert.True(t, p.Found)
}

type fakeResolver struct {
	body []context.MacroStatement
	err  error
}

func (f fakeResolver) ResolveCopy(name string) ([]context.MacroStatement, error) { return f.body, f.err }

func TestCopyDefinitionProcessorResolvesBody(t *testing.T) {
	body := []context.MacroStatement{&semantics.Statement{RawLine: "X"}}
	p := NewCopyDefinitionProcessor(fakeResolver{body: body}, "MEMB")
	act := p.Process(stmt("", "COPY", "MEMB"))
	require.Equal(t, ActionFinishProcessor, act.Kind)
	assert.Len(t, act.CopyBody, 1)
}
