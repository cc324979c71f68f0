package dapmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/macrodbg"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

func TestStackTraceListsInnerToOuter(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	root := &context.Frame{Position: source.Position{Line: 0}, URI: "t://a"}
	inner := root.Push(source.Position{Line: 4}, "t://a", c.Intern("MYMAC"))

	frames := StackTrace(inner)
	require.Len(t, frames, 2)
	assert.Equal(t, "MYMAC", frames[0].Name)
	assert.Equal(t, 5, frames[0].Line)
	assert.Equal(t, "open code", frames[1].Name)
}

func TestVariablesRendersEachCAType(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	loc := source.Location{URI: "t://a"}

	a := c.Scopes.Declare(c.Intern("&A"), context.VarTypeA, loc)
	require.NoError(t, a.SetA(0, 42))
	b := c.Scopes.Declare(c.Intern("&B"), context.VarTypeB, loc)
	require.NoError(t, b.SetB(0, true))
	ch := c.Scopes.Declare(c.Intern("&C"), context.VarTypeC, loc)
	require.NoError(t, ch.SetC(0, "hi"))

	vars := Variables(c.Scopes, 1)
	require.Len(t, vars, 3)

	byName := make(map[string]Variable, len(vars))
	for _, v := range vars {
		byName[v.Name] = v
	}
	assert.Equal(t, "42", byName["&A"].Value)
	assert.Equal(t, "1", byName["&B"].Value)
	assert.Equal(t, "hi", byName["&C"].Value)
}

func TestVariablesUnknownScopeReturnsNil(t *testing.T) {
	c := context.New("t://a", context.ArchZ15)
	assert.Nil(t, Variables(c.Scopes, 99))
}

func TestToBreakpointDTO(t *testing.T) {
	bm := macrodbg.NewBreakpointManager()
	bp := bm.AddLine("t://a", 10, false, "&COND EQ 1")

	dto := ToBreakpointDTO(bp)
	assert.Equal(t, "t://a", dto.URI)
	assert.Equal(t, 10, dto.Line)
	assert.Equal(t, "&COND EQ 1", dto.Condition)
	assert.True(t, dto.Enabled)
}

func TestToWatchpointDTO(t *testing.T) {
	wm := macrodbg.NewWatchpointManager()
	wp := wm.Add("&X")

	dto := ToWatchpointDTO(wp)
	assert.Equal(t, "&X", dto.Expression)
	assert.True(t, dto.Enabled)
}
