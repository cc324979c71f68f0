package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// fakeLineSource feeds a fixed statement slice, supporting Seek for
// rewind tests.
type fakeLineSource struct {
	stmts []*semantics.Statement
	idx   int
}

func (f *fakeLineSource) Next() (*semantics.Statement, bool) {
	if f.idx >= len(f.stmts) {
		return nil, false
	}
	s := f.stmts[f.idx]
	f.idx++
	return s, true
}
func (f *fakeLineSource) Position() source.Position { return source.Position{Line: f.idx} }
func (f *fakeLineSource) Seek(pos source.Position)  { f.idx = pos.Line }

func mkStmt(text string) *semantics.Statement {
	return &semantics.Statement{RawLine: text}
}

func TestStackDrainsOpenCode(t *testing.T) {
	src := &fakeLineSource{stmts: []*semantics.Statement{mkStmt("A"), mkStmt("B")}}
	stack := NewStack(NewOpenCodeProvider(src))

	s, ok := stack.Next()
	require.True(t, ok)
	assert.Equal(t, "A", s.RawLine)

	s, ok = stack.Next()
	require.True(t, ok)
	assert.Equal(t, "B", s.RawLine)

	_, ok = stack.Next()
	assert.False(t, ok)
}

func TestStackPushesAndPopsMacroProvider(t *testing.T) {
	src := &fakeLineSource{stmts: []*semantics.Statement{mkStmt("AFTER")}}
	stack := NewStack(NewOpenCodeProvider(src))

	macroStmts := []*semantics.Statement{mkStmt("INSIDE1"), mkStmt("INSIDE2")}
	stack.Push(NewMacroProvider(macroStmts, nil))
	assert.Equal(t, 2, stack.Depth())

	s, ok := stack.Next()
	require.True(t, ok)
	assert.Equal(t, "INSIDE1", s.RawLine)

	s, ok = stack.Next()
	require.True(t, ok)
	assert.Equal(t, "INSIDE2", s.RawLine)

	// macro body exhausted, falls through to resumed open code
	s, ok = stack.Next()
	require.True(t, ok)
	assert.Equal(t, "AFTER", s.RawLine)
	assert.Equal(t, 1, stack.Depth())
}

func TestOpenCodeRewind(t *testing.T) {
	src := &fakeLineSource{stmts: []*semantics.Statement{mkStmt("A"), mkStmt("B"), mkStmt("C")}}
	p := NewOpenCodeProvider(src)

	s, _ := p.GetNext()
	assert.Equal(t, "A", s.RawLine)
	s, _ = p.GetNext()
	assert.Equal(t, "B", s.RawLine)

	p.Rewind(source.Position{Line: 0})
	s, _ = p.GetNext()
	assert.Equal(t, "A", s.RawLine)
}

func TestPoppingOpenCodePanics(t *testing.T) {
	src := &fakeLineSource{}
	stack := NewStack(NewOpenCodeProvider(src))
	assert.Panics(t, func() { stack.Pop() })
}
