package processing

import (
	stdcontext "context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processors"
	"github.com/eclipse-che4z/hlasm-analyzer-go/providers"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

var bg = stdcontext.Background()

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

func ordinaryStmt(label, op, operands string) *semantics.Statement {
	kind := semantics.LabelNone
	if len(label) > 0 && label[0] == '.' {
		kind = semantics.LabelSequence
	} else if label != "" {
		kind = semantics.LabelOrdinary
	}
	return &semantics.Statement{
		Label:       semantics.Label{Kind: kind, Text: label},
		Instruction: semantics.Instruction{Text: op},
		Operands:    semantics.OperandField{RawText: operands},
	}
}

func newManager(stmts []*semantics.Statement, resolver processors.MemberResolver) *Manager {
	src := &fakeLineSource{stmts: stmts}
	c := context.New("t://a", context.ArchZ15)
	root := providers.NewOpenCodeProvider(src)
	return NewManager(c, root, resolver)
}

func TestManagerRunsOpenCodeToCompletion(t *testing.T) {
	m := newManager([]*semantics.Statement{
		ordinaryStmt("", "LR", "1,2"),
		ordinaryStmt("", "LR", "3,4"),
	}, nil)

	susp, err := m.Resume(bg)
	require.NoError(t, err)
	assert.Equal(t, SuspendFinished, susp)
	assert.Equal(t, int64(2), m.Ctx.StatementCount)
}

func TestManagerResumeBudgetYields(t *testing.T) {
	m := newManager([]*semantics.Statement{
		ordinaryStmt("", "LR", "1,2"),
		ordinaryStmt("", "LR", "3,4"),
		ordinaryStmt("", "LR", "5,6"),
	}, nil)
	m.StatementBudget = 2

	susp, err := m.Resume(bg)
	require.NoError(t, err)
	assert.Equal(t, SuspendBudget, susp)
	assert.Equal(t, int64(2), m.Ctx.StatementCount)

	m.StatementBudget = 0
	susp, err = m.Resume(bg)
	require.NoError(t, err)
	assert.Equal(t, SuspendFinished, susp)
	assert.Equal(t, int64(3), m.Ctx.StatementCount)
}

func TestManagerAgoForwardSkipsToSequenceSymbol(t *testing.T) {
	m := newManager([]*semantics.Statement{
		ordinaryStmt("", "AGO", ".SKIP"),
		ordinaryStmt("", "LR", "1,2"), // must be skipped
		ordinaryStmt(".SKIP", "LR", "3,4"),
	}, nil)

	susp, err := m.Resume(bg)
	require.NoError(t, err)
	assert.Equal(t, SuspendFinished, susp)
	assert.Empty(t, m.Diags.All())
}

func TestManagerAgoUnknownSequenceSymbolDiagnoses(t *testing.T) {
	m := newManager([]*semantics.Statement{
		ordinaryStmt("", "AGO", ".NOPE"),
	}, nil)

	_, err := m.Resume(bg)
	require.NoError(t, err)
	require.Len(t, m.Diags.All(), 1)
	assert.Equal(t, "E047", string(m.Diags.All()[0].Code))
}

func TestManagerMacroDefinitionThenInvocation(t *testing.T) {
	m := newManager([]*semantics.Statement{
		ordinaryStmt("", "MACRO", ""),
		ordinaryStmt("", "MYMAC", "&A"),
		ordinaryStmt("", "LR", "&A,&A"),
		ordinaryStmt("", "MEND", ""),
		ordinaryStmt("", "MYMAC", "1"),
	}, nil)

	susp, err := m.Resume(bg)
	require.NoError(t, err)
	assert.Equal(t, SuspendFinished, susp)

	_, ok := m.Ctx.Macros.Lookup(m.Ctx.Intern("MYMAC"))
	assert.True(t, ok)
	assert.Equal(t, 0, m.Ctx.Scopes.Depth(), "macro scope must be popped once its body is exhausted")
}

func TestManagerAfterStatementSuspendsAsBreakpoint(t *testing.T) {
	m := newManager([]*semantics.Statement{
		ordinaryStmt("", "LR", "1,2"),
		ordinaryStmt("", "LR", "3,4"),
	}, nil)
	hit := 0
	m.AfterStatement = func(stmt *semantics.Statement, frame *context.Frame) bool {
		hit++
		return hit == 1
	}

	susp, err := m.Resume(bg)
	require.NoError(t, err)
	assert.Equal(t, SuspendBreakpoint, susp)
	assert.Equal(t, int64(1), m.Ctx.StatementCount)

	susp, err = m.Resume(bg)
	require.NoError(t, err)
	assert.Equal(t, SuspendFinished, susp)
	assert.Equal(t, int64(2), m.Ctx.StatementCount)
}

func TestManagerResumeHonorsCancellation(t *testing.T) {
	m := newManager([]*semantics.Statement{
		ordinaryStmt("", "LR", "1,2"),
	}, nil)

	cancelled, cancel := stdcontext.WithCancel(bg)
	cancel()

	susp, err := m.Resume(cancelled)
	require.NoError(t, err)
	assert.Equal(t, SuspendCancelled, susp)
	assert.Equal(t, int64(0), m.Ctx.StatementCount)
}

type fakeCopyResolver struct {
	body []context.MacroStatement
}

func (f fakeCopyResolver) ResolveCopy(name string) ([]context.MacroStatement, error) {
	return f.body, nil
}

func TestManagerCopyPushesMemberBody(t *testing.T) {
	inner := &semantics.Statement{RawLine: "INNER", Instruction: semantics.Instruction{Text: "LR"}, Operands: semantics.OperandField{RawText: "1,1"}}
	m := newManager([]*semantics.Statement{
		ordinaryStmt("", "COPY", "MEMB"),
		ordinaryStmt("", "LR", "2,2"),
	}, fakeCopyResolver{body: []context.MacroStatement{inner}})

	susp, err := m.Resume(bg)
	require.NoError(t, err)
	assert.Equal(t, SuspendFinished, susp)
	assert.Equal(t, int64(3), m.Ctx.StatementCount, "COPY statement + inlined member statement + trailing statement")

	_, ok := m.Ctx.Copy.Lookup(m.Ctx.Intern("MEMB"))
	assert.True(t, ok)
}
