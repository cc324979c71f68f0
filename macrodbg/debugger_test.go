package macrodbg

import (
	stdcontext "context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processing"
	"github.com/eclipse-che4z/hlasm-analyzer-go/providers"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

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
func (f *fakeLineSource) Seek(pos source.Position)   { f.idx = pos.Line }

func stmtAt(uri string, line int, op, operands string) *semantics.Statement {
	return &semantics.Statement{
		URI:         source.URI(uri),
		Range:       source.Range{Start: source.Position{Line: line}, End: source.Position{Line: line}},
		Instruction: semantics.Instruction{Text: op},
		Operands:    semantics.OperandField{RawText: operands},
	}
}

func newTestManager(stmts []*semantics.Statement) (*processing.Manager, *context.Context) {
	src := &fakeLineSource{stmts: stmts}
	c := context.New("t://a", context.ArchZ15)
	root := providers.NewOpenCodeProvider(src)
	return processing.NewManager(c, root, nil), c
}

func TestDebuggerLineBreakpointStopsResume(t *testing.T) {
	mgr, c := newTestManager([]*semantics.Statement{
		stmtAt("t://a", 0, "LR", "1,2"),
		stmtAt("t://a", 1, "LR", "3,4"),
		stmtAt("t://a", 2, "LR", "5,6"),
	})
	d := NewDebugger(mgr, c)
	d.Breakpoints.AddLine("t://a", 1, false, "")

	susp, err := mgr.Resume(stdcontext.Background())
	require.NoError(t, err)
	assert.Equal(t, processing.SuspendBreakpoint, susp)
	assert.Equal(t, int64(2), c.StatementCount)

	bp := d.Breakpoints.ByID(1)
	require.NotNil(t, bp)
	assert.Equal(t, 1, bp.HitCount)

	susp, err = mgr.Resume(stdcontext.Background())
	require.NoError(t, err)
	assert.Equal(t, processing.SuspendFinished, susp)
	assert.Equal(t, int64(3), c.StatementCount)
}

func TestDebuggerStepIntoStopsAfterOneStatement(t *testing.T) {
	mgr, c := newTestManager([]*semantics.Statement{
		stmtAt("t://a", 0, "LR", "1,2"),
		stmtAt("t://a", 1, "LR", "3,4"),
	})
	d := NewDebugger(mgr, c)

	susp, err := d.StepIntoOnce(stdcontext.Background())
	require.NoError(t, err)
	assert.Equal(t, processing.SuspendBreakpoint, susp)
	assert.Equal(t, int64(1), c.StatementCount)
	assert.Equal(t, StepNone, d.StepMode)

	susp, err = d.Continue(stdcontext.Background())
	require.NoError(t, err)
	assert.Equal(t, processing.SuspendFinished, susp)
}

func TestDebuggerWatchpointDetectsValueChange(t *testing.T) {
	mgr, c := newTestManager([]*semantics.Statement{
		stmtAt("t://a", 0, "LR", "1,2"),
		stmtAt("t://a", 1, "LR", "3,4"),
	})
	d := NewDebugger(mgr, c)

	name := c.Intern("COUNT")
	v := c.Scopes.Declare(name, context.VarTypeA, source.Location{})
	require.NoError(t, v.SetA(0, 0))
	d.Watchpoints.Add("&COUNT")

	// First check only primes LastValue; nothing has changed yet.
	changed := d.Watchpoints.CheckAll(d.Eval)
	assert.Empty(t, changed)
	wp := d.Watchpoints.All()[0]
	assert.Equal(t, "0", wp.LastValue)

	require.NoError(t, v.SetA(0, 5))
	changed = d.Watchpoints.CheckAll(d.Eval)
	require.Len(t, changed, 1)
	assert.Equal(t, "5", changed[0].LastValue)
	assert.Equal(t, 1, changed[0].HitCount)

	susp, err := d.Continue(stdcontext.Background())
	require.NoError(t, err)
	assert.Equal(t, processing.SuspendFinished, susp)
}

func TestBreakpointManagerSequenceSymbolMatch(t *testing.T) {
	bm := NewBreakpointManager()
	bp := bm.AddSequence(".LOOP", false, "")
	assert.True(t, bp.Enabled)

	hit := bm.Match("t://a", 9, ".LOOP")
	require.NotNil(t, hit)
	assert.Equal(t, 1, hit.HitCount)

	assert.Nil(t, bm.Match("t://a", 9, ""))
}

func TestNewDebuggerChainsExistingAfterStatementHook(t *testing.T) {
	mgr, c := newTestManager([]*semantics.Statement{
		stmtAt("t://a", 0, "LR", "1,2"),
		stmtAt("t://a", 1, "LR", "3,4"),
	})

	var observedLines []int
	mgr.AfterStatement = func(stmt *semantics.Statement, frame *context.Frame) bool {
		observedLines = append(observedLines, stmt.Range.Start.Line)
		return false
	}

	d := NewDebugger(mgr, c)
	d.Breakpoints.AddLine("t://a", 1, false, "")

	susp, err := mgr.Resume(stdcontext.Background())
	require.NoError(t, err)
	assert.Equal(t, processing.SuspendBreakpoint, susp, "the debugger's own hook must still fire alongside the pre-existing one")
	assert.Equal(t, []int{0, 1}, observedLines, "the pre-existing hook must keep observing every statement")
}

func TestCommandHistoryNavigatesBackAndForward(t *testing.T) {
	h := NewCommandHistory()
	h.Add("step")
	h.Add("continue")
	h.Add("print &X")

	assert.Equal(t, "print &X", h.Previous())
	assert.Equal(t, "continue", h.Previous())
	assert.Equal(t, "step", h.Previous())
	assert.Equal(t, "continue", h.Next())
}
