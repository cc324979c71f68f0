package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

func TestMachineExprLiteralArithmetic(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	ex, err := Machine("1+2*3", c)
	require.NoError(t, err)
	v, err := ex.Evaluate(c, c.CaptureEvalContext())
	require.NoError(t, err)
	assert.Equal(t, int32(7), v.Abs)
}

func TestMachineExprAttributeReference(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	a := c.Intern("A")
	_, err := c.Symbols.Define(a, context.Abs32(5), 4, 0, 1, 'F', ' ', source.Location{})
	require.NoError(t, err)

	ex, err := Machine("L'A", c)
	require.NoError(t, err)
	v, err := ex.Evaluate(c, c.CaptureEvalContext())
	require.NoError(t, err)
	assert.Equal(t, int32(4), v.Abs)
}

func TestMachineExprUndefinedSymbolIsADependency(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	ex, err := Machine("A+1", c)
	require.NoError(t, err)
	deps := ex.Dependencies(c)
	require.Len(t, deps, 1)
	assert.Equal(t, context.DependantSymbol, deps[0].Kind)
}

func TestEvalASimpleArithmetic(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	ev := NewEvaluator(c)
	v, err := ev.EvalA("(2+3)*4")
	require.NoError(t, err)
	assert.Equal(t, int32(20), v)
}

func TestEvalBRelationalAndLogical(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	ev := NewEvaluator(c)
	v, err := ev.EvalB("1 EQ 1 AND 2 GT 1")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = ev.EvalB("NOT 1 EQ 2")
	require.NoError(t, err)
	assert.True(t, v)
}

func TestEvalCConcatenationAndSubstring(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	id := c.Intern("VAR")
	v := c.Scopes.Declare(id, context.VarTypeC, source.Location{})
	require.NoError(t, v.SetC(0, "HELLO"))

	ev := NewEvaluator(c)
	out, err := ev.EvalC("'X'&VAR")
	require.NoError(t, err)
	assert.Equal(t, "XHELLO", out)

	out, err = ev.EvalC("&VAR(2,3)")
	require.NoError(t, err)
	assert.Equal(t, "ELL", out)
}
